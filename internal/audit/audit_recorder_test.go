package audit_test

import (
	"context"
	"testing"

	"go-elms/internal/audit"
	auditerrors "go-elms/internal/audit/errors"
	"go-elms/internal/shared/contextutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_Record(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()
	entityID := uuid.New()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("INSERT INTO audit_logs").
			WillReturnResult(sqlmock.NewResult(1, 1))

		recorder := audit.NewRecorder(db)
		err = recorder.Record(ctx, audit.Entry{
			ActorID:    actorID,
			Action:     audit.ActionLeaveApproved,
			EntityType: audit.EntityLeaveRequest,
			EntityID:   &entityID,
			OldValues:  map[string]any{"status": "pending"},
			NewValues:  map[string]any{"status": "approved"},
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success with origin from context", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		originCtx := contextutil.WithOrigin(ctx, contextutil.Origin{
			IPAddress: "203.0.113.7",
			UserAgent: "curl/8.0",
		})

		mock.ExpectExec("INSERT INTO audit_logs").
			WillReturnResult(sqlmock.NewResult(1, 1))

		recorder := audit.NewRecorder(db)
		err = recorder.Record(originCtx, audit.Entry{
			ActorID:    actorID,
			Action:     audit.ActionLogin,
			EntityType: audit.EntityUser,
			EntityID:   &actorID,
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative anonymous actor rejected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		recorder := audit.NewRecorder(db)
		err = recorder.Record(ctx, audit.Entry{
			Action:     audit.ActionLogin,
			EntityType: audit.EntityUser,
		})

		assert.ErrorIs(t, err, auditerrors.ErrMissingActor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative missing action rejected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		recorder := audit.NewRecorder(db)
		err = recorder.Record(ctx, audit.Entry{
			ActorID:    actorID,
			EntityType: audit.EntityUser,
		})

		assert.ErrorIs(t, err, auditerrors.ErrMissingAction)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bound to transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO audit_logs").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectRollback()

		tx, err := db.Begin()
		assert.NoError(t, err)

		recorder := audit.NewRecorder(db).WithTx(tx)
		err = recorder.Record(ctx, audit.Entry{
			ActorID:    actorID,
			Action:     audit.ActionLeaveCancelled,
			EntityType: audit.EntityLeaveRequest,
			EntityID:   &entityID,
		})
		assert.NoError(t, err)

		// rolling back discards the entry together with the mutation
		assert.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
