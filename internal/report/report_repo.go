package report

import (
	"context"

	"go-elms/internal/leave"
	"go-elms/internal/user"

	"gorm.io/gorm"
)

//go:generate mockgen -source=report_repo.go -destination=mock/report_repo_mock.go -package=mock
type Repository interface {
	CountUsers(ctx context.Context) (total, active int64, err error)
	CountLeavesByStatus(ctx context.Context) ([]StatusCount, error)
	CountLeavesByType(ctx context.Context) ([]TypeCount, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountUsers(ctx context.Context) (int64, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&user.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}

	var active int64
	err := r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("is_active = ?", true).
		Count(&active).Error
	return total, active, err
}

func (r *repository) CountLeavesByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&leave.LeaveRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *repository) CountLeavesByType(ctx context.Context) ([]TypeCount, error) {
	var counts []TypeCount
	err := r.db.WithContext(ctx).
		Model(&leave.LeaveRequest{}).
		Select("leave_type, COUNT(*) AS count").
		Group("leave_type").
		Order("leave_type ASC").
		Scan(&counts).Error
	return counts, err
}
