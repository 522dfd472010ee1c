package user

import (
	"go-elms/internal/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, enforcer *casbin.Enforcer) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("", middleware.Authorize(enforcer, "user", "manage"), handler.List)
		users.GET("/:id", middleware.Authorize(enforcer, "user", "manage"), handler.GetByID)
		users.POST("", middleware.Authorize(enforcer, "user", "manage"), handler.Create)
		users.PUT("/:id", middleware.Authorize(enforcer, "user", "manage"), handler.Update)
		users.POST("/:id/reset-password", middleware.Authorize(enforcer, "user", "manage"), handler.ResetPassword)
	}

	// A manager's view of their own reporting chain.
	team := r.Group("/team")
	team.Use(middleware.AuthMiddleware())
	{
		team.GET("", middleware.Authorize(enforcer, "leave", "adjudicate"), handler.Reports)
	}
}
