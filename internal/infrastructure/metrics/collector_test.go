package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carehub/internal/core/security"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.ObserveDecision(security.Allow)
	c.ObserveDecision(security.Decision{Reason: security.ReasonCrossTenantAccess})
	c.ObserveDecision(security.Decision{Reason: security.ReasonCrossTenantAccess})
	c.ObserveResolution("bearer")
	c.ObserveSwitch("conflict")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.decisions.WithLabelValues("allow", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.decisions.WithLabelValues("deny", "cross_tenant_access")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resolutions.WithLabelValues("bearer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.switches.WithLabelValues("conflict")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveResolution("session")
	c.RegisterGaugeFunc("db_pool_acquired_conns", "Acquired connections.", func() float64 { return 3 })

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `carehub_session_resolutions_total{result="session"} 1`)
	assert.Contains(t, rec.Body.String(), "carehub_db_pool_acquired_conns 3")
}
