package leave

import (
	"go-elms/internal/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, enforcer *casbin.Enforcer) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("", middleware.Authorize(enforcer, "leave", "create"), handler.Apply)
		leaves.GET("", middleware.Authorize(enforcer, "leave", "read"), handler.List)
		leaves.GET("/:id", middleware.Authorize(enforcer, "leave", "read"), handler.Get)
		leaves.PUT("/:id", middleware.Authorize(enforcer, "leave", "edit"), handler.Edit)
		leaves.POST("/:id/cancel", middleware.Authorize(enforcer, "leave", "cancel"), handler.Cancel)
		leaves.POST("/:id/adjudicate", middleware.Authorize(enforcer, "leave", "adjudicate"), handler.Adjudicate)
	}
}
