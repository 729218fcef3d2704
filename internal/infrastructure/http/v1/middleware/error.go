package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carehub/internal/core/apperror"
	"carehub/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Internal causes are logged, never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderError(c, c.Errors.Last().Err)
	}
}

// renderError writes err as the JSON error body. It is shared with Recovery,
// which runs outside ErrorHandler when a handler panics.
func renderError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		logger.Error(ctx, "unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString(ctxKeyRequestID),
			},
		})
		return
	}

	switch {
	case appErr.HTTPStatus >= http.StatusInternalServerError:
		logger.Error(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
	case appErr.Err != nil:
		logger.Warn(ctx, "request rejected", "code", appErr.Code, "cause", appErr.Err)
	}

	if appErr.Retryable() {
		c.Header("Retry-After", "1")
	}

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.HTTPStatus, body)
}
