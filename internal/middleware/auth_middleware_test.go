package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-elms/internal/middleware"
	"go-elms/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testJWTSecret = "test-secret"

func signedToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success actor reaches the request context and logger", func(t *testing.T) {
		t.Setenv("JWT_SECRET", testJWTSecret)

		core, logs := observer.New(zap.InfoLevel)
		logger := zap.New(core)

		userID := uuid.NewString()

		router := gin.New()
		router.Use(middleware.RequestID())
		router.Use(middleware.ContextLogger(logger))
		router.Use(middleware.AuthMiddleware())
		router.GET("/me", func(c *gin.Context) {
			ctx := c.Request.Context()
			assert.Equal(t, userID, contextutil.GetUserID(ctx))
			contextutil.GetLogger(ctx, nil).Info("handled")
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, userID, "employee"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		entries := logs.All()
		assert.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, userID, fields["user_id"])
		assert.NotEmpty(t, fields["request_id"])
	})

	t.Run("negative missing token", func(t *testing.T) {
		t.Setenv("JWT_SECRET", testJWTSecret)

		router := gin.New()
		router.Use(middleware.AuthMiddleware())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("negative expired token", func(t *testing.T) {
		t.Setenv("JWT_SECRET", testJWTSecret)

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": uuid.NewString(),
			"role":    "employee",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(testJWTSecret))
		assert.NoError(t, err)

		router := gin.New()
		router.Use(middleware.AuthMiddleware())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
