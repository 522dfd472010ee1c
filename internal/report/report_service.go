package report

import (
	"context"
	"encoding/json"
	"time"

	"go-elms/internal/leave"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	dashboardCacheKey = "reports:dashboard"
	// Counts go stale fast; a short TTL keeps the dashboard near-live while
	// still absorbing refresh storms.
	dashboardCacheTTL = 60 * time.Second
)

//go:generate mockgen -source=report_service.go -destination=mock/report_service_mock.go -package=mock
type Service interface {
	Dashboard(ctx context.Context) (DashboardResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("report.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("report.service")
	}
	return &service{repo: repo, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

func (s *service) Dashboard(ctx context.Context) (DashboardResponse, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, dashboardCacheKey).Result()
		if err == nil {
			var resp DashboardResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(dashboardCacheKey, func() (interface{}, error) {
		resp, err := s.buildDashboard(ctx)
		if err != nil {
			return DashboardResponse{}, err
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, dashboardCacheKey, string(jsonData), dashboardCacheTTL).Err(); err != nil {
					s.logger.Warn("dashboard cache write failed", zap.Error(err))
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		return DashboardResponse{}, err
	}

	return v.(DashboardResponse), nil
}

func (s *service) buildDashboard(ctx context.Context) (DashboardResponse, error) {
	totalUsers, activeUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		s.logger.Error("dashboard user counts failed", zap.Error(err))
		return DashboardResponse{}, err
	}

	byStatus, err := s.repo.CountLeavesByStatus(ctx)
	if err != nil {
		s.logger.Error("dashboard status counts failed", zap.Error(err))
		return DashboardResponse{}, err
	}

	byType, err := s.repo.CountLeavesByType(ctx)
	if err != nil {
		s.logger.Error("dashboard type counts failed", zap.Error(err))
		return DashboardResponse{}, err
	}

	var totalRequests, pendingRequests int64
	for _, c := range byStatus {
		totalRequests += c.Count
		if c.Status == string(leave.StatusPending) {
			pendingRequests = c.Count
		}
	}

	return DashboardResponse{
		TotalUsers:      totalUsers,
		ActiveUsers:     activeUsers,
		TotalRequests:   totalRequests,
		PendingRequests: pendingRequests,
		ByStatus:        byStatus,
		ByType:          byType,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}
