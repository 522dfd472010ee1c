package kafka_test

import (
	"context"
	"testing"
	"time"

	"go-elms/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success bound to a transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO outbox_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)

		repo := kafka.NewOutboxRepository(db)
		err = repo.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:             uuid.NewString(),
			LeaveRequestID: uuid.NewString(),
			EventType:      "leave.status.changed",
			Payload:        []byte(`{"old_status":"pending","new_status":"approved"}`),
			Status:         kafka.OutboxStatusPending,
		})
		assert.NoError(t, err)

		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative empty payload rejected before any write", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		repo := kafka.NewOutboxRepository(db)
		err = repo.Create(ctx, kafka.OutboxEvent{
			ID:     uuid.NewString(),
			Status: kafka.OutboxStatusPending,
		})

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_ListDue(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns pending and retryable failed rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		firstID := uuid.NewString()
		secondID := uuid.NewString()
		requestID := uuid.NewString()

		rows := sqlmock.NewRows([]string{
			"id", "leave_request_id", "event_type", "payload",
			"status", "retry_count", "coalesce",
		}).
			AddRow(firstID, requestID, "leave.status.changed", []byte(`{}`),
				kafka.OutboxStatusPending, 0, time.Now()).
			AddRow(secondID, requestID, "leave.status.changed", []byte(`{}`),
				kafka.OutboxStatusFailed, 2, time.Now())

		mock.ExpectQuery("SELECT").
			WithArgs(kafka.OutboxStatusPending, kafka.OutboxStatusFailed, 50).
			WillReturnRows(rows)

		repo := kafka.NewOutboxRepository(db)
		events, err := repo.ListDue(ctx, 50)

		assert.NoError(t, err)
		assert.Len(t, events, 2)
		assert.Equal(t, firstID, events[0].ID)
		assert.Equal(t, requestID, events[0].LeaveRequestID)
		assert.Equal(t, 2, events[1].RetryCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_MarkOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("success sent clears the error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		id := uuid.NewString()
		mock.ExpectExec("UPDATE outbox_events").
			WithArgs(id, kafka.OutboxStatusSent).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := kafka.NewOutboxRepository(db)
		assert.NoError(t, repo.MarkSent(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success failed applies the capped backoff", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		id := uuid.NewString()
		mock.ExpectExec("UPDATE outbox_events").
			WithArgs(id, kafka.OutboxStatusFailed, "broker unreachable", 500, 10, 15).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := kafka.NewOutboxRepository(db)
		assert.NoError(t, repo.MarkFailed(ctx, id, "broker unreachable"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
