package middleware

import (
	"go-elms/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger builds a request-scoped logger and propagates the request id
// plus the caller's network origin into the request context, so services and
// the audit recorder can reach them without knowing about gin. It runs before
// authentication; AuthMiddleware adds the actor once the token is verified.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetString("request_id")

		reqLogger := logger.With(
			zap.String("request_id", rid),
		)

		ctx := c.Request.Context()
		ctx = contextutil.WithLogger(ctx, reqLogger)
		ctx = contextutil.WithOrigin(ctx, contextutil.Origin{
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
