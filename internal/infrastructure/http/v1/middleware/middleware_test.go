package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carehub/internal/core/apperror"
	"carehub/internal/core/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		wantRetry  string
	}{
		{
			name:       "forbidden hides cause",
			err:        apperror.NewForbidden().WithCause(security.ErrCrossTenantAccess),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"code":"FORBIDDEN","message":"not authorized"}`,
		},
		{
			name:       "upstream unavailable sets retry-after",
			err:        apperror.NewUpstreamUnavailable("membership", errors.New("dial tcp: refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantRetry:  "1",
		},
		{
			name:       "validation keeps details",
			err:        apperror.NewValidation("invalid request body").WithDetail("error", "bad"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"code":"VALIDATION_ERROR","message":"invalid request body","details":{"error":"bad"}}`,
		},
		{
			name:       "plain error is internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/", func(c *gin.Context) {
				_ = c.Error(tt.err)
				c.Abort()
			})

			rec := serve(t, r, "/")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantRetry, rec.Header().Get("Retry-After"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			assert.NotContains(t, rec.Body.String(), "refused")
			assert.NotContains(t, rec.Body.String(), "boom")
		})
	}
}

type recordingObserver []security.Decision

func (o *recordingObserver) ObserveDecision(d security.Decision) { *o = append(*o, d) }

func TestGuard_WithoutTenantContextIsUnauthenticated(t *testing.T) {
	var observed recordingObserver
	guard := NewGuard(security.NewEnforcer(nil), &observed)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/t/:id", guard.RequirePermission(security.PermPatientView, TenantFromParam("id")), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := serve(t, r, "/t/abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, observed, 1)
	assert.Equal(t, security.ReasonUnauthenticated, observed[0].Reason)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(*gin.Context) { panic("kaboom") })

	rec := serve(t, r, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestTrace_SetsRequestHeaders(t *testing.T) {
	r := gin.New()
	r.Use(Trace())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(t, r, "/")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}
