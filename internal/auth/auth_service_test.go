package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-elms/internal/audit"
	"go-elms/internal/auth"
	autherrors "go-elms/internal/auth/errors"
	"go-elms/internal/shared/config"
	"go-elms/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepository struct {
	findByIDFn       func(ctx context.Context, id string) (*user.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*user.User, error)
}

func (f *fakeUserRepository) WithTx(tx *sql.Tx) user.Repository { return f }

func (f *fakeUserRepository) Create(ctx context.Context, u *user.User) error { return nil }

func (f *fakeUserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	if f.findByUsernameFn != nil {
		return f.findByUsernameFn(ctx, username)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindAll(ctx context.Context, offset, limit int) ([]user.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepository) ReportsOf(ctx context.Context, managerID string) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepository) CountActiveReports(ctx context.Context, managerID string) (int64, error) {
	return 0, nil
}

func (f *fakeUserRepository) Update(ctx context.Context, u *user.User) error { return nil }

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (f *fakeAuditRecorder) WithTx(tx *sql.Tx) audit.Recorder { return f }

func (f *fakeAuditRecorder) Record(ctx context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

var testAuthConfig = config.AuthConfig{
	JWTSecret:  "test-secret",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 7 * 24 * time.Hour,
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(h)
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testAuthConfig.JWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	return claims
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	activeAccount := func() *user.User {
		return &user.User{
			ID:           userID,
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: hashPassword(t, "correct-horse"),
			FirstName:    "Alice",
			LastName:     "Smith",
			Role:         user.RoleEmployee,
			IsActive:     true,
		}
	}

	t.Run("success", func(t *testing.T) {
		repo := &fakeUserRepository{}
		recorder := &fakeAuditRecorder{}
		svc := auth.NewService(repo, recorder, testAuthConfig)

		repo.findByUsernameFn = func(ctx context.Context, username string) (*user.User, error) {
			assert.Equal(t, "alice", username)
			return activeAccount(), nil
		}

		access, refresh, resp, err := svc.Login(ctx, "alice", "correct-horse")

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, "alice", resp.Username)
		assert.Equal(t, "employee", resp.Role)
		assert.Equal(t, "Alice Smith", resp.FullName)

		claims := parseClaims(t, access)
		assert.Equal(t, userID.String(), claims["user_id"])
		assert.Equal(t, "employee", claims["role"])

		assert.Len(t, recorder.entries, 1)
		assert.Equal(t, audit.ActionLogin, recorder.entries[0].Action)
		assert.Equal(t, userID, recorder.entries[0].ActorID)
	})

	t.Run("negative unknown username", func(t *testing.T) {
		repo := &fakeUserRepository{}
		recorder := &fakeAuditRecorder{}
		svc := auth.NewService(repo, recorder, testAuthConfig)

		_, _, _, err := svc.Login(ctx, "nobody", "whatever")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
		assert.Empty(t, recorder.entries)
	})

	t.Run("negative wrong password", func(t *testing.T) {
		repo := &fakeUserRepository{}
		recorder := &fakeAuditRecorder{}
		svc := auth.NewService(repo, recorder, testAuthConfig)

		repo.findByUsernameFn = func(ctx context.Context, username string) (*user.User, error) {
			return activeAccount(), nil
		}

		_, _, _, err := svc.Login(ctx, "alice", "wrong")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
		assert.Len(t, recorder.entries, 1)
		assert.Equal(t, audit.ActionLoginFailed, recorder.entries[0].Action)
	})

	t.Run("negative deactivated account gets the same rejection", func(t *testing.T) {
		repo := &fakeUserRepository{}
		recorder := &fakeAuditRecorder{}
		svc := auth.NewService(repo, recorder, testAuthConfig)

		repo.findByUsernameFn = func(ctx context.Context, username string) (*user.User, error) {
			u := activeAccount()
			u.IsActive = false
			return u, nil
		}

		_, _, _, err := svc.Login(ctx, "alice", "correct-horse")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
		assert.Equal(t, audit.ActionLoginFailed, recorder.entries[0].Action)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	account := &user.User{
		ID:       userID,
		Username: "bob",
		Role:     user.RoleManager,
		IsActive: true,
	}

	t.Run("success round trip", func(t *testing.T) {
		repo := &fakeUserRepository{}
		svc := auth.NewService(repo, &fakeAuditRecorder{}, testAuthConfig)

		repo.findByUsernameFn = func(ctx context.Context, username string) (*user.User, error) {
			u := *account
			u.PasswordHash = hashPassword(t, "pw-pw-pw-pw")
			return &u, nil
		}
		repo.findByIDFn = func(ctx context.Context, id string) (*user.User, error) {
			assert.Equal(t, userID.String(), id)
			return account, nil
		}

		_, refresh, _, err := svc.Login(ctx, "bob", "pw-pw-pw-pw")
		assert.NoError(t, err)

		newAccess, newRefresh, resp, err := svc.RefreshToken(ctx, refresh)

		assert.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)
		assert.Equal(t, "manager", resp.Role)

		claims := parseClaims(t, newAccess)
		assert.Equal(t, userID.String(), claims["user_id"])
	})

	t.Run("negative garbage token", func(t *testing.T) {
		svc := auth.NewService(&fakeUserRepository{}, &fakeAuditRecorder{}, testAuthConfig)

		_, _, _, err := svc.RefreshToken(ctx, "not-a-jwt")

		assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
	})

	t.Run("negative deactivated account", func(t *testing.T) {
		repo := &fakeUserRepository{}
		svc := auth.NewService(repo, &fakeAuditRecorder{}, testAuthConfig)

		repo.findByUsernameFn = func(ctx context.Context, username string) (*user.User, error) {
			u := *account
			u.PasswordHash = hashPassword(t, "pw-pw-pw-pw")
			return &u, nil
		}
		_, refresh, _, err := svc.Login(ctx, "bob", "pw-pw-pw-pw")
		assert.NoError(t, err)

		repo.findByIDFn = func(ctx context.Context, id string) (*user.User, error) {
			u := *account
			u.IsActive = false
			return &u, nil
		}

		_, _, _, err = svc.RefreshToken(ctx, refresh)

		assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_GetMe(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		repo := &fakeUserRepository{}
		svc := auth.NewService(repo, &fakeAuditRecorder{}, testAuthConfig)

		repo.findByIDFn = func(ctx context.Context, id string) (*user.User, error) {
			return &user.User{
				ID:        userID,
				Username:  "carol",
				Email:     "carol@example.com",
				FirstName: "Carol",
				LastName:  "White",
				Role:      user.RoleAdmin,
				IsActive:  true,
			}, nil
		}

		resp, err := svc.GetMe(ctx, userID.String())

		assert.NoError(t, err)
		assert.Equal(t, "carol", resp.Username)
		assert.Equal(t, "admin", resp.Role)
	})

	t.Run("negative invalid id", func(t *testing.T) {
		svc := auth.NewService(&fakeUserRepository{}, &fakeAuditRecorder{}, testAuthConfig)

		_, err := svc.GetMe(ctx, "abc")

		assert.ErrorIs(t, err, autherrors.ErrInvalidUserID)
	})
}
