package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-elms/internal/audit"
	"go-elms/internal/events"
	leaveerrors "go-elms/internal/leave/errors"
	"go-elms/internal/messaging/kafka"
	"go-elms/internal/shared/apperror"
	"go-elms/internal/shared/contextutil"
	"go-elms/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, actorID string, req ApplyLeaveRequest) (LeaveResponse, error)
	Edit(ctx context.Context, actorID, requestID string, req EditLeaveRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, actorID, requestID string) error
	Adjudicate(ctx context.Context, actorID, requestID string, req AdjudicateLeaveRequest) (LeaveResponse, error)
	Get(ctx context.Context, actorID, requestID string) (LeaveResponse, error)
	List(ctx context.Context, actorID string, req ListLeavesRequest, page, pageSize int) ([]LeaveResponse, int64, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	users    user.Repository
	recorder audit.Recorder
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	users user.Repository,
	recorder audit.Recorder,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, repo: repo, users: users, recorder: recorder, outbox: outbox, logger: l}
}

func (s *service) Apply(ctx context.Context, actorID string, req ApplyLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("apply leave requested",
		zap.String("actor_id", actorID),
		zap.String("leave_type", req.LeaveType),
	)

	actor, err := s.loadActiveActor(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}

	leaveType := LeaveType(req.LeaveType)
	if !leaveType.Valid() {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveType
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	l := &LeaveRequest{
		ID:         uuid.New(),
		EmployeeID: actor.ID,
		LeaveType:  leaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		Reason:     req.Reason,
		Status:     StatusPending,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	entry := audit.Entry{
		ActorID:    actor.ID,
		Action:     audit.ActionLeaveCreated,
		EntityType: audit.EntityLeaveRequest,
		EntityID:   &l.ID,
		NewValues: map[string]any{
			"leave_type": string(l.LeaveType),
			"start_date": l.StartDate.Format(dateLayout),
			"end_date":   l.EndDate.Format(dateLayout),
			"duration":   l.Duration(),
			"status":     string(l.Status),
		},
	}
	if err := s.recorder.WithTx(tx).Record(ctx, entry); err != nil {
		s.logger.Error("apply leave audit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", actor.ID.String()),
		zap.Int("duration", l.Duration()),
	)

	return mapToLeaveResponse(*l), nil
}

func (s *service) Edit(ctx context.Context, actorID, requestID string, req EditLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("edit leave requested",
		zap.String("actor_id", actorID),
		zap.String("leave_id", requestID),
	)

	actor, err := s.loadActiveActor(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidRequestID
	}

	leaveType := LeaveType(req.LeaveType)
	if !leaveType.Valid() {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveType
	}
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("edit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.FindByIDForUpdate(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, apperror.ErrForbidden
		}
		s.logger.Error("edit leave load failed", zap.String("leave_id", requestID), zap.Error(err))
		return LeaveResponse{}, err
	}

	if l.EmployeeID != actor.ID {
		return LeaveResponse{}, apperror.ErrForbidden
	}
	// The date lock is checked before the status guard: an Approved request
	// that has already started reports RequestLocked, not InvalidTransition.
	if !startsStrictlyInFuture(l.StartDate) {
		return LeaveResponse{}, leaveerrors.ErrRequestLocked
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrInvalidTransition
	}

	oldValues := map[string]any{}
	newValues := map[string]any{}
	if l.LeaveType != leaveType {
		oldValues["leave_type"] = string(l.LeaveType)
		newValues["leave_type"] = string(leaveType)
	}
	if !l.StartDate.Equal(startDate) {
		oldValues["start_date"] = l.StartDate.Format(dateLayout)
		newValues["start_date"] = startDate.Format(dateLayout)
	}
	if !l.EndDate.Equal(endDate) {
		oldValues["end_date"] = l.EndDate.Format(dateLayout)
		newValues["end_date"] = endDate.Format(dateLayout)
	}
	if l.Reason != req.Reason {
		oldValues["reason"] = l.Reason
		newValues["reason"] = req.Reason
	}

	if len(newValues) == 0 {
		return mapToLeaveResponse(*l), nil
	}

	l.LeaveType = leaveType
	l.StartDate = startDate
	l.EndDate = endDate
	l.Reason = req.Reason

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("edit leave persist failed", zap.String("leave_id", requestID), zap.Error(err))
		return LeaveResponse{}, err
	}

	entry := audit.Entry{
		ActorID:    actor.ID,
		Action:     audit.ActionLeaveUpdated,
		EntityType: audit.EntityLeaveRequest,
		EntityID:   &l.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if err := s.recorder.WithTx(tx).Record(ctx, entry); err != nil {
		s.logger.Error("edit leave audit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("edit leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("edit leave success", zap.String("leave_id", l.ID.String()))

	return mapToLeaveResponse(*l), nil
}

func (s *service) Cancel(ctx context.Context, actorID, requestID string) error {
	s.logger.Debug("cancel leave requested",
		zap.String("actor_id", actorID),
		zap.String("leave_id", requestID),
	)

	actor, err := s.loadActiveActor(ctx, actorID)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return leaveerrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.FindByIDForUpdate(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrForbidden
		}
		s.logger.Error("cancel leave load failed", zap.String("leave_id", requestID), zap.Error(err))
		return err
	}

	if l.EmployeeID != actor.ID {
		return apperror.ErrForbidden
	}
	if l.Status != StatusPending && l.Status != StatusApproved {
		return leaveerrors.ErrInvalidTransition
	}
	if !startsStrictlyInFuture(l.StartDate) {
		return leaveerrors.ErrRequestLocked
	}

	oldStatus := l.Status
	l.Status = StatusCancelled

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("cancel leave persist failed", zap.String("leave_id", requestID), zap.Error(err))
		return err
	}

	entry := audit.Entry{
		ActorID:    actor.ID,
		Action:     audit.ActionLeaveCancelled,
		EntityType: audit.EntityLeaveRequest,
		EntityID:   &l.ID,
		OldValues:  map[string]any{"status": string(oldStatus)},
		NewValues:  map[string]any{"status": string(l.Status)},
	}
	if err := s.recorder.WithTx(tx).Record(ctx, entry); err != nil {
		s.logger.Error("cancel leave audit failed", zap.Error(err))
		return err
	}

	if err := s.enqueueStatusChanged(ctx, tx, l, actor.ID, oldStatus); err != nil {
		s.logger.Error("cancel leave outbox failed", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.Error(err))
		return err
	}
	s.logger.Info("cancel leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("old_status", string(oldStatus)),
	)

	return nil
}

func (s *service) Adjudicate(ctx context.Context, actorID, requestID string, req AdjudicateLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("adjudicate leave requested",
		zap.String("actor_id", actorID),
		zap.String("leave_id", requestID),
		zap.String("decision", req.Decision),
	)

	actor, err := s.loadActiveActor(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidRequestID
	}

	var newStatus Status
	var action string
	switch req.Decision {
	case "approve":
		newStatus = StatusApproved
		action = audit.ActionLeaveApproved
	case "reject":
		newStatus = StatusRejected
		action = audit.ActionLeaveRejected
	default:
		return LeaveResponse{}, leaveerrors.ErrInvalidDecision
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("adjudicate leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.FindByIDForUpdate(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, apperror.ErrForbidden
		}
		s.logger.Error("adjudicate leave load failed", zap.String("leave_id", requestID), zap.Error(err))
		return LeaveResponse{}, err
	}

	// The manager link is re-read on every call so a reassignment takes
	// effect immediately; the predicate result is never cached.
	employee, err := s.users.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, apperror.ErrForbidden
		}
		s.logger.Error("adjudicate leave load employee failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !user.CanAdjudicate(actor, employee) {
		return LeaveResponse{}, apperror.ErrForbidden
	}

	// Re-checked on the locked row: a concurrent adjudicator that committed
	// first leaves the request non-Pending and this call fails here.
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrInvalidTransition
	}

	oldStatus := l.Status
	now := time.Now().UTC()
	l.Status = newStatus
	l.ApprovedBy = &actor.ID
	l.ApprovedAt = &now
	if req.Comments != "" {
		comments := req.Comments
		l.ManagerComments = &comments
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("adjudicate leave persist failed", zap.String("leave_id", requestID), zap.Error(err))
		return LeaveResponse{}, err
	}

	entry := audit.Entry{
		ActorID:    actor.ID,
		Action:     action,
		EntityType: audit.EntityLeaveRequest,
		EntityID:   &l.ID,
		OldValues:  map[string]any{"status": string(oldStatus)},
		NewValues:  map[string]any{"status": string(l.Status)},
	}
	if err := s.recorder.WithTx(tx).Record(ctx, entry); err != nil {
		s.logger.Error("adjudicate leave audit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.enqueueStatusChanged(ctx, tx, l, actor.ID, oldStatus); err != nil {
		s.logger.Error("adjudicate leave outbox failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("adjudicate leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("adjudicate leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("decision", req.Decision),
		zap.String("adjudicator_id", actor.ID.String()),
	)

	return mapToLeaveResponse(*l), nil
}

func (s *service) Get(ctx context.Context, actorID, requestID string) (LeaveResponse, error) {
	actor, err := s.loadActiveActor(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidRequestID
	}

	l, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, apperror.ErrForbidden
		}
		return LeaveResponse{}, err
	}

	if err := s.checkVisibility(ctx, actor, l); err != nil {
		return LeaveResponse{}, err
	}
	return mapToLeaveResponse(*l), nil
}

func (s *service) List(ctx context.Context, actorID string, req ListLeavesRequest, page, pageSize int) ([]LeaveResponse, int64, error) {
	actor, err := s.loadActiveActor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}

	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, 0, err
	}

	filters, err := parseListFilters(req)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	leaves, total, err := s.repo.FindScoped(ctx, scope, filters, offset, pageSize)
	if err != nil {
		s.logger.Error("list leaves failed", zap.String("actor_id", actorID), zap.Error(err))
		return nil, 0, err
	}

	responses := make([]LeaveResponse, 0, len(leaves))
	for _, l := range leaves {
		responses = append(responses, mapToLeaveResponse(l))
	}
	return responses, total, nil
}

// scopeFor derives the role-based visibility base set. A manager sees their
// own requests plus those of direct reports; an employee only their own.
func (s *service) scopeFor(ctx context.Context, actor *user.User) (Scope, error) {
	switch actor.Role {
	case user.RoleAdmin:
		return Scope{All: true}, nil
	case user.RoleManager:
		reports, err := s.users.ReportsOf(ctx, actor.ID.String())
		if err != nil {
			return Scope{}, err
		}
		ids := make([]uuid.UUID, 0, len(reports)+1)
		ids = append(ids, actor.ID)
		for _, r := range reports {
			ids = append(ids, r.ID)
		}
		return Scope{EmployeeIDs: ids}, nil
	default:
		return Scope{EmployeeIDs: []uuid.UUID{actor.ID}}, nil
	}
}

func (s *service) checkVisibility(ctx context.Context, actor *user.User, l *LeaveRequest) error {
	if actor.Role == user.RoleAdmin || l.EmployeeID == actor.ID {
		return nil
	}
	employee, err := s.users.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrForbidden
		}
		return err
	}
	if !user.CanAdjudicate(actor, employee) {
		return apperror.ErrForbidden
	}
	return nil
}

// loadActiveActor collapses unknown and deactivated actors into the same
// Forbidden so callers learn nothing about account existence.
func (s *service) loadActiveActor(ctx context.Context, actorID string) (*user.User, error) {
	if _, err := uuid.Parse(actorID); err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrForbidden
		}
		return nil, err
	}
	if !actor.IsActive {
		return nil, apperror.ErrForbidden
	}
	return actor, nil
}

func (s *service) enqueueStatusChanged(ctx context.Context, tx *sql.Tx, l *LeaveRequest, actorID uuid.UUID, oldStatus Status) error {
	event := events.LeaveStatusChangedEvent{
		EventType:  "leave.status.changed",
		RequestID:  l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		ActorID:    actorID.String(),
		OldStatus:  string(oldStatus),
		NewStatus:  string(l.Status),
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	outboxEvent := kafka.OutboxEvent{
		ID:             uuid.NewString(),
		CorrelationID:  contextutil.GetRequestID(ctx),
		LeaveRequestID: l.ID.String(),
		EventType:      event.EventType,
		Payload:        payload,
		Status:         kafka.OutboxStatusPending,
	}
	return s.outbox.WithTx(tx).Create(ctx, outboxEvent)
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return startDate, endDate, nil
}

func parseListFilters(req ListLeavesRequest) (Filters, error) {
	var f Filters
	if req.Status != "" {
		status := Status(req.Status)
		if !status.Valid() {
			return Filters{}, apperror.InvalidField("status")
		}
		f.Status = status
	}
	if req.EmployeeID != "" {
		if _, err := uuid.Parse(req.EmployeeID); err != nil {
			return Filters{}, apperror.InvalidField("employee_id")
		}
		f.EmployeeID = req.EmployeeID
	}
	if req.From != "" {
		from, err := time.Parse(dateLayout, req.From)
		if err != nil {
			return Filters{}, leaveerrors.ErrInvalidDateFormat
		}
		f.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(dateLayout, req.To)
		if err != nil {
			return Filters{}, leaveerrors.ErrInvalidDateFormat
		}
		f.To = &to
	}
	return f, nil
}

// startsStrictlyInFuture compares calendar days, not instants: a request
// starting today has already started for locking purposes.
func startsStrictlyInFuture(start time.Time) bool {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start.After(today)
}

func mapToLeaveResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:         l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  string(l.LeaveType),
		StartDate:  l.StartDate.Format(dateLayout),
		EndDate:    l.EndDate.Format(dateLayout),
		Duration:   l.Duration(),
		Reason:     l.Reason,
		Status:     string(l.Status),
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if l.ManagerComments != nil {
		resp.ManagerComments = l.ManagerComments
	}
	return resp
}
