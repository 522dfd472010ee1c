package kafka

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// Failed publishes back off linearly, one step per prior attempt. The cap
// keeps a poison row from pushing its own retry horizon out indefinitely.
const (
	retryBackoffStepSeconds = 15
	retryBackoffMaxSteps    = 10
	errorMessageMaxLen      = 500
)

// OutboxEvent is one row of the leave status feed. Rows are inserted in the
// same transaction as the status change they describe; the producer worker
// drains due rows into Kafka.
type OutboxEvent struct {
	ID             string
	CorrelationID  string
	LeaveRequestID string
	EventType      string
	Payload        []byte
	Status         string
	RetryCount     int
	NextAttemptAt  time.Time
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	// ListDue returns pending rows plus failed rows whose backoff has
	// elapsed, oldest first.
	ListDue(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if event.ID == "" || len(event.Payload) == 0 {
		return errors.New("outbox event needs an id and a payload")
	}

	query := `
        INSERT INTO outbox_events (
            id, correlation_id, leave_request_id, event_type, payload, status
        ) VALUES ($1, $2, $3, $4, $5, $6)
    `

	exec := r.execer()
	_, err := exec.ExecContext(
		ctx, query,
		event.ID, event.CorrelationID, event.LeaveRequestID,
		event.EventType, event.Payload, event.Status,
	)
	return err
}

func (r *outboxRepository) ListDue(ctx context.Context, limit int) ([]OutboxEvent, error) {
	query := `
SELECT
	id::text,
	leave_request_id::text,
	event_type,
	payload,
	status,
	retry_count,
	COALESCE(next_attempt_at, created_at)
FROM outbox_events
WHERE status IN ($1, $2)
	AND (next_attempt_at IS NULL OR next_attempt_at <= NOW())
ORDER BY created_at ASC
LIMIT $3
`

	rows, err := r.db.QueryContext(ctx, query, OutboxStatusPending, OutboxStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]OutboxEvent, 0, limit)
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID,
			&e.LeaveRequestID,
			&e.EventType,
			&e.Payload,
			&e.Status,
			&e.RetryCount,
			&e.NextAttemptAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	query := `
UPDATE outbox_events
SET
	status = $2,
	published_at = NOW(),
	error_message = NULL,
	updated_at = NOW()
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, query, id, OutboxStatusSent)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `
UPDATE outbox_events
SET
	status = $2,
	retry_count = retry_count + 1,
	error_message = LEFT($3, $4),
	next_attempt_at = NOW() + LEAST(retry_count + 1, $5) * make_interval(secs => $6),
	updated_at = NOW()
WHERE id = $1
`
	_, err := r.db.ExecContext(
		ctx, query,
		id, OutboxStatusFailed, reason,
		errorMessageMaxLen, retryBackoffMaxSteps, retryBackoffStepSeconds,
	)
	return err
}

func (r *outboxRepository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
