package audit

import (
	"context"
	"time"

	auditerrors "go-elms/internal/audit/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=audit_service.go -destination=mock/audit_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context, req ListAuditRequest, page, pageSize int) ([]AuditLogResponse, int64, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("audit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) List(ctx context.Context, req ListAuditRequest, page, pageSize int) ([]AuditLogResponse, int64, error) {
	f := Filters{
		Action:     req.Action,
		EntityType: req.EntityType,
	}

	if req.ActorID != "" {
		if _, err := uuid.Parse(req.ActorID); err != nil {
			return nil, 0, auditerrors.ErrInvalidActorFilter
		}
		f.ActorID = req.ActorID
	}
	if req.From != "" {
		t, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return nil, 0, auditerrors.ErrInvalidDateFilter
		}
		f.From = &t
	}
	if req.To != "" {
		t, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return nil, 0, auditerrors.ErrInvalidDateFilter
		}
		// inclusive end of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}

	logs, total, err := s.repo.Find(ctx, f, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("list audit logs failed", zap.Error(err))
		return nil, 0, err
	}

	return mapToListResponse(logs), total, nil
}

func mapToResponse(l AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         l.ID.String(),
		ActorID:    l.ActorID.String(),
		Action:     l.Action,
		EntityType: l.EntityType,
		OldValues:  l.OldValues,
		NewValues:  l.NewValues,
		IPAddress:  l.IPAddress,
		UserAgent:  l.UserAgent,
		Timestamp:  l.Timestamp.UTC().Format(time.RFC3339),
	}
	if l.EntityID != nil {
		v := l.EntityID.String()
		resp.EntityID = &v
	}
	return resp
}

func mapToListResponse(logs []AuditLog) []AuditLogResponse {
	resp := make([]AuditLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = mapToResponse(l)
	}
	return resp
}
