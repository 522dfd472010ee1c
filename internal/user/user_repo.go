package user

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context, offset, limit int) ([]User, int64, error)
	ReportsOf(ctx context.Context, managerID string) ([]User, error)
	CountActiveReports(ctx context.Context, managerID string) (int64, error)
	Update(ctx context.Context, u *User) error
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

// Create goes through the bound transaction when one is set so the row and
// its audit entry commit together.
func (r *repository) Create(ctx context.Context, u *User) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Create(u).Error
	}

	query := `
        INSERT INTO users (
            id, username, email, password_hash, first_name, last_name, role, manager_id, is_active
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.tx.ExecContext(
		ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.Role, u.ManagerID, u.IsActive,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "username = ?", username).Error
	return &u, err
}

func (r *repository) FindAll(ctx context.Context, offset, limit int) ([]User, int64, error) {
	q := r.db.WithContext(ctx).Model(&User{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []User
	err := q.Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (r *repository) ReportsOf(ctx context.Context, managerID string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Order("username ASC").
		Find(&users).Error
	return users, err
}

// CountActiveReports counts through the bound transaction when one is set,
// so guards that depend on it see the same snapshot as the write they gate.
func (r *repository) CountActiveReports(ctx context.Context, managerID string) (int64, error) {
	if r.tx != nil {
		var count int64
		err := r.tx.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM users WHERE manager_id = $1 AND is_active = true`,
			managerID,
		).Scan(&count)
		return count, err
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Where("manager_id = ?", managerID).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, u *User) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Save(u).Error
	}

	query := `
        UPDATE users SET
            username = $2, email = $3, password_hash = $4, first_name = $5,
            last_name = $6, role = $7, manager_id = $8, is_active = $9, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.tx.ExecContext(
		ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.Role, u.ManagerID, u.IsActive,
	)
	return err
}
