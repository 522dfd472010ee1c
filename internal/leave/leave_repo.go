package leave

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope is the role-derived base set a listing may draw from. Caller filters
// only ever narrow it: scope conditions and filter conditions are AND-ed, so
// no filter combination can widen visibility.
type Scope struct {
	All         bool
	EmployeeIDs []uuid.UUID
}

type Filters struct {
	Status     Status
	EmployeeID string
	From       *time.Time
	To         *time.Time
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	// FindByIDForUpdate locks the row within the bound transaction so the
	// status guard and the status write are serialized against concurrent
	// adjudicators.
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	Update(ctx context.Context, l *LeaveRequest) error
	FindScoped(ctx context.Context, scope Scope, f Filters, offset, limit int) ([]LeaveRequest, int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Create(l).Error
	}

	query := `
        INSERT INTO leave_requests (
            id, employee_id, leave_type, start_date, end_date, reason, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.tx.ExecContext(
		ctx, query,
		l.ID, l.EmployeeID, l.LeaveType, l.StartDate, l.EndDate, l.Reason, l.Status,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	if r.tx == nil {
		return r.FindByID(ctx, id)
	}

	query := `
        SELECT id, employee_id, leave_type, start_date, end_date, reason, status,
               approved_by, approved_at, manager_comments
        FROM leave_requests
        WHERE id = $1
        FOR UPDATE
    `

	var (
		l          LeaveRequest
		approvedBy sql.NullString
		approvedAt sql.NullTime
		comments   sql.NullString
	)
	err := r.tx.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.EmployeeID, &l.LeaveType, &l.StartDate, &l.EndDate,
		&l.Reason, &l.Status, &approvedBy, &approvedAt, &comments,
	)
	if err == sql.ErrNoRows {
		return nil, gorm.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	if approvedBy.Valid {
		v, err := uuid.Parse(approvedBy.String)
		if err != nil {
			return nil, err
		}
		l.ApprovedBy = &v
	}
	if approvedAt.Valid {
		v := approvedAt.Time
		l.ApprovedAt = &v
	}
	if comments.Valid {
		v := comments.String
		l.ManagerComments = &v
	}
	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *LeaveRequest) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Save(l).Error
	}

	query := `
        UPDATE leave_requests SET
            leave_type = $2, start_date = $3, end_date = $4, reason = $5,
            status = $6, approved_by = $7, approved_at = $8, manager_comments = $9,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.tx.ExecContext(
		ctx, query,
		l.ID, l.LeaveType, l.StartDate, l.EndDate, l.Reason,
		l.Status, l.ApprovedBy, l.ApprovedAt, l.ManagerComments,
	)
	return err
}

func (r *repository) FindScoped(ctx context.Context, scope Scope, f Filters, offset, limit int) ([]LeaveRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&LeaveRequest{})

	if !scope.All {
		if len(scope.EmployeeIDs) == 0 {
			return []LeaveRequest{}, 0, nil
		}
		q = q.Where("employee_id IN ?", scope.EmployeeIDs)
	}

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.EmployeeID != "" {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.From != nil {
		q = q.Where("start_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("end_date <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leaves []LeaveRequest
	err := q.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&leaves).Error
	return leaves, total, err
}
