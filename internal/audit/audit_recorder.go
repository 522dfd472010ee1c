package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	auditerrors "go-elms/internal/audit/errors"
	"go-elms/internal/shared/contextutil"

	"github.com/google/uuid"
)

// Entry is what callers hand to the recorder. OldValues and NewValues hold
// the pre- and post-image of changed fields for mutations; both nil for
// actions that change nothing (logins, reads worth auditing).
type Entry struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	OldValues  map[string]any
	NewValues  map[string]any
}

//go:generate mockgen -source=audit_recorder.go -destination=mock/audit_recorder_mock.go -package=mock
type Recorder interface {
	// WithTx binds the recorder to a transaction so the audit entry commits
	// or rolls back together with the mutation it describes.
	WithTx(tx *sql.Tx) Recorder
	Record(ctx context.Context, e Entry) error
}

type recorder struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRecorder(db *sql.DB) Recorder {
	return &recorder{db: db}
}

func (r *recorder) WithTx(tx *sql.Tx) Recorder {
	return &recorder{db: r.db, tx: tx}
}

func (r *recorder) Record(ctx context.Context, e Entry) error {
	if e.ActorID == uuid.Nil {
		return auditerrors.ErrMissingActor
	}
	if e.Action == "" {
		return auditerrors.ErrMissingAction
	}

	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return err
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return err
	}

	origin := contextutil.GetOrigin(ctx)

	query := `
        INSERT INTO audit_logs (
            id, actor_id, action, entity_type, entity_id, old_values, new_values, ip_address, user_agent, timestamp
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
    `

	exec := r.execer()
	_, err = exec.ExecContext(
		ctx, query,
		uuid.New(), e.ActorID, e.Action, e.EntityType, e.EntityID,
		oldValues, newValues, origin.IPAddress, origin.UserAgent,
	)
	return err
}

func marshalValues(values map[string]any) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	return json.Marshal(values)
}

func (r *recorder) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
