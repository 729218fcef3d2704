// Package metrics exposes Prometheus counters for authorization decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carehub/internal/core/security"
)

const namespace = "carehub"

// Collector owns the Prometheus registry and the service's metrics.
type Collector struct {
	registry *prometheus.Registry

	decisions   *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	switches    *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_decisions_total",
			Help:      "Authorization decisions by outcome and deny reason.",
		}, []string{"decision", "reason"}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resolutions_total",
			Help:      "Session resolutions by result.",
		}, []string{"result"}),
		switches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_switches_total",
			Help:      "Tenant switch attempts by result.",
		}, []string{"result"}),
	}
}

// ObserveDecision counts an authorization decision.
func (c *Collector) ObserveDecision(d security.Decision) {
	c.decisions.WithLabelValues(d.Label(), string(d.Reason)).Inc()
}

// ObserveResolution implements auth.ResolveObserver.
func (c *Collector) ObserveResolution(result string) {
	c.resolutions.WithLabelValues(result).Inc()
}

// ObserveSwitch counts a tenant switch attempt.
func (c *Collector) ObserveSwitch(result string) {
	c.switches.WithLabelValues(result).Inc()
}

// RegisterGaugeFunc exposes a value sampled at scrape time.
func (c *Collector) RegisterGaugeFunc(name, help string, fn func() float64) {
	promauto.With(c.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
}

// Handler returns the /metrics handler for this registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
