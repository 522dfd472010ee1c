package user

import (
	"context"
	"database/sql"

	"go-elms/internal/audit"
	usererrors "go-elms/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// maxManagerChainDepth bounds the ancestor walk; a legal reporting forest is
// never this deep, so hitting the bound means the stored data is already bad.
const maxManagerChainDepth = 100

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actorID string, req CreateUserRequest) (UserResponse, error)
	Update(ctx context.Context, actorID, id string, req UpdateUserRequest) (UserResponse, error)
	ResetPassword(ctx context.Context, actorID, id string, req ResetPasswordRequest) error
	GetByID(ctx context.Context, id string) (UserResponse, error)
	List(ctx context.Context, page, pageSize int) ([]UserResponse, int64, error)
	Reports(ctx context.Context, managerID string) ([]UserResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	recorder audit.Recorder
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, recorder audit.Recorder, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{db: db, repo: repo, recorder: recorder, logger: l}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateUserRequest) (UserResponse, error) {
	s.logger.Debug("create user requested",
		zap.String("actor_id", actorID),
		zap.String("username", req.Username),
		zap.String("role", req.Role),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	role := Role(req.Role)
	if !role.Valid() {
		return UserResponse{}, usererrors.ErrInvalidRole
	}

	id := uuid.New()
	managerID, err := s.resolveManagerLink(ctx, id, req.ManagerID)
	if err != nil {
		return UserResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, err
	}

	u := &User{
		ID:           id,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		ManagerID:    managerID,
		IsActive:     true,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create user begin tx failed", zap.Error(err))
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, u); err != nil {
		s.logger.Error("create user persist failed", zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	entry := audit.Entry{
		ActorID:    actorUUID,
		Action:     audit.ActionUserCreated,
		EntityType: audit.EntityUser,
		EntityID:   &u.ID,
		NewValues: map[string]any{
			"username":   u.Username,
			"email":      u.Email,
			"role":       string(u.Role),
			"manager_id": uuidPtrString(u.ManagerID),
			"is_active":  u.IsActive,
		},
	}
	if err := s.recorder.WithTx(tx).Record(ctx, entry); err != nil {
		s.logger.Error("create user audit failed", zap.Error(err))
		return UserResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create user commit failed", zap.Error(err))
		return UserResponse{}, err
	}
	s.logger.Info("create user success",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(u.Role)),
	)

	return mapToResponse(*u), nil
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdateUserRequest) (UserResponse, error) {
	s.logger.Debug("update user requested",
		zap.String("actor_id", actorID),
		zap.String("user_id", id),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	role := Role(req.Role)
	if !role.Valid() {
		return UserResponse{}, usererrors.ErrInvalidRole
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}

	managerID, err := s.resolveManagerLink(ctx, u.ID, req.ManagerID)
	if err != nil {
		return UserResponse{}, err
	}

	deactivating := u.IsActive && req.IsActive != nil && !*req.IsActive
	if deactivating && u.ID == actorUUID {
		return UserResponse{}, usererrors.ErrCannotDeactivateSelf
	}

	// Deactivating a manager and changing their role away from Manager both
	// orphan the reporting chain; either way reports must be reassigned
	// first. The count is taken inside the transaction below.
	losesManagerRole := u.Role == RoleManager && (deactivating || role != RoleManager)

	oldValues := map[string]any{
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"role":       string(u.Role),
		"manager_id": uuidPtrString(u.ManagerID),
		"is_active":  u.IsActive,
	}

	u.Email = req.Email
	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.Role = role
	u.ManagerID = managerID
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	newValues := map[string]any{
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"role":       string(u.Role),
		"manager_id": uuidPtrString(u.ManagerID),
		"is_active":  u.IsActive,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update user begin tx failed", zap.Error(err))
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if losesManagerRole {
		reports, err := qtx.CountActiveReports(ctx, id)
		if err != nil {
			return UserResponse{}, err
		}
		if reports > 0 {
			return UserResponse{}, usererrors.ErrManagerHasReports
		}
	}

	if err := qtx.Update(ctx, u); err != nil {
		s.logger.Error("update user persist failed", zap.String("user_id", id), zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	action := audit.ActionUserUpdated
	if deactivating {
		action = audit.ActionUserDeactivated
	}
	entry := audit.Entry{
		ActorID:    actorUUID,
		Action:     action,
		EntityType: audit.EntityUser,
		EntityID:   &u.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if err := s.recorder.WithTx(tx).Record(ctx, entry); err != nil {
		s.logger.Error("update user audit failed", zap.Error(err))
		return UserResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update user commit failed", zap.Error(err))
		return UserResponse{}, err
	}
	s.logger.Info("update user success",
		zap.String("user_id", id),
		zap.String("action", action),
	)

	return mapToResponse(*u), nil
}

func (s *service) ResetPassword(ctx context.Context, actorID, id string, req ResetPasswordRequest) error {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return usererrors.ErrInvalidUserID
	}
	if _, err := uuid.Parse(id); err != nil {
		return usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Update(ctx, u); err != nil {
		s.logger.Error("reset password persist failed", zap.String("user_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	// Hashes never appear in audit values.
	entry := audit.Entry{
		ActorID:    actorUUID,
		Action:     audit.ActionPasswordReset,
		EntityType: audit.EntityUser,
		EntityID:   &u.ID,
	}
	if err := s.recorder.WithTx(tx).Record(ctx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("reset password success", zap.String("user_id", id))
	return nil
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*u), nil
}

func (s *service) List(ctx context.Context, page, pageSize int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.FindAll(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return mapToListResponse(users), total, nil
}

func (s *service) Reports(ctx context.Context, managerID string) ([]UserResponse, error) {
	if _, err := uuid.Parse(managerID); err != nil {
		return nil, usererrors.ErrInvalidManagerID
	}
	users, err := s.repo.ReportsOf(ctx, managerID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(users), nil
}

// resolveManagerLink validates a requested manager assignment: the manager
// must exist, be active, hold the manager role, and the link must not close
// a cycle in the reporting chain. Returns the parsed id, or nil when no
// manager was requested.
func (s *service) resolveManagerLink(ctx context.Context, userID uuid.UUID, managerID *string) (*uuid.UUID, error) {
	if managerID == nil || *managerID == "" {
		return nil, nil
	}

	mid, err := uuid.Parse(*managerID)
	if err != nil {
		return nil, usererrors.ErrInvalidManagerID
	}
	if mid == userID {
		return nil, usererrors.ErrManagerCycle
	}

	m, err := s.repo.FindByID(ctx, mid.String())
	if err != nil {
		return nil, usererrors.ErrManagerNotFound
	}
	if !m.IsActive {
		return nil, usererrors.ErrManagerNotFound
	}
	if m.Role != RoleManager {
		return nil, usererrors.ErrManagerNotManager
	}

	// Walk up from the proposed manager; reaching the user again means the
	// assignment would turn the reporting forest into a cycle. The relational
	// layer cannot express this, so it is enforced here at write time.
	cur := m
	for depth := 0; depth < maxManagerChainDepth; depth++ {
		if cur.ManagerID == nil {
			return &mid, nil
		}
		if *cur.ManagerID == userID {
			return nil, usererrors.ErrManagerCycle
		}
		next, err := s.repo.FindByID(ctx, cur.ManagerID.String())
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return nil, usererrors.ErrManagerCycle
}

func uuidPtrString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func mapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
	}
	if u.ManagerID != nil {
		v := u.ManagerID.String()
		resp.ManagerID = &v
	}
	return resp
}

func mapToListResponse(users []User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = mapToResponse(u)
	}
	return resp
}
