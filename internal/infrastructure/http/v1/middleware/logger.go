package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"carehub/internal/core/tenant"
	"carehub/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// It also places log in the request context for logger.FromContext.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if tenantID := c.GetString(ctxKeyActiveTenant); tenantID != "" {
			fields = append(fields, "active_tenant_id", tenantID)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "error", errs)
		}

		log.WithContext(c.Request.Context()).Infow("http request", fields...)
	}
}

// activeTenantOf returns the active tenant of the request's tenant context.
func activeTenantOf(c *gin.Context) string {
	if tc := tenant.FromContext(c.Request.Context()); tc != nil {
		return tc.ActiveTenantID()
	}
	return ""
}
