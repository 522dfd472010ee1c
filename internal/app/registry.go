package app

import (
	"database/sql"

	"go-elms/internal/audit"
	"go-elms/internal/auth"
	"go-elms/internal/authz"
	"go-elms/internal/leave"
	"go-elms/internal/messaging/kafka"
	"go-elms/internal/middleware"
	"go-elms/internal/report"
	"go-elms/internal/shared/config"
	"go-elms/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	userRepo := user.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	auditRepo := audit.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	reportRepo := report.NewRepository(gormDB)
	recorder := audit.NewRecorder(db)

	// --- RBAC Core ---
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return err
	}

	// --- Services ---
	authService := auth.NewService(userRepo, recorder, cfg.Auth, logger)
	userService := user.NewService(db, userRepo, recorder, logger)
	leaveService := leave.NewService(db, leaveRepo, userRepo, recorder, outboxRepo, logger)
	auditService := audit.NewService(auditRepo, logger)
	reportService := report.NewService(reportRepo, rdb, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, logger)
	userHandler := user.NewHandler(userService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	auditHandler := audit.NewHandler(auditService, logger)
	reportHandler := report.NewHandler(reportService, logger)

	// --- Routes Registration ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(logger))

	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		user.RegisterRoutes(api, userHandler, enforcer)
		leave.RegisterRoutes(api, leaveHandler, enforcer)
		audit.RegisterRoutes(api, auditHandler, enforcer)
		report.RegisterRoutes(api, reportHandler, enforcer)
	}

	return nil
}
