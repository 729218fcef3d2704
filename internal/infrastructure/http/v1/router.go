// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"carehub/internal/core/security"
	"carehub/internal/core/tenant"
	"carehub/internal/infrastructure/http/v1/handlers"
	"carehub/internal/infrastructure/http/v1/middleware"
	"carehub/internal/infrastructure/metrics"
	"carehub/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Resolver turns credentials into identities
	Resolver tenant.SessionResolver

	// Membership backs the per-request tenant context
	Membership tenant.Membership

	// Tenants is the tenant directory used for display names and details
	Tenants tenant.Registry

	// Registry is the role table; nil uses the default registry
	Registry *security.Registry

	// Metrics collects decision counters and serves /metrics; may be nil
	Metrics *metrics.Collector

	// HealthChecks are pinged by /health/ready
	HealthChecks map[string]handlers.Pinger

	SessionCookie   string
	UpstreamTimeout time.Duration

	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Registry == nil {
		cfg.Registry = security.DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	var (
		decisionObserver middleware.DecisionObserver
		switchObserver   handlers.SwitchObserver
	)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
		decisionObserver = cfg.Metrics
		switchObserver = cfg.Metrics
	}

	guard := middleware.NewGuard(security.NewEnforcer(cfg.Registry), decisionObserver)
	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Authenticate(middleware.AuthConfig{
		Resolver:        cfg.Resolver,
		Membership:      cfg.Membership,
		SessionCookie:   cfg.SessionCookie,
		UpstreamTimeout: cfg.UpstreamTimeout,
	}))
	{
		sessionHandler := handlers.NewSessionHandler(base, cfg.Tenants, cfg.Registry, switchObserver)
		v1.GET("/session", sessionHandler.Get)
		v1.POST("/session/tenant", sessionHandler.SwitchTenant)

		authorizeHandler := handlers.NewAuthorizeHandler(base, guard)
		v1.POST("/authorize", authorizeHandler.Check)

		rolesHandler := handlers.NewRolesHandler(base, cfg.Registry)
		v1.GET("/roles", guard.RequirePermission(security.PermRoleView), rolesHandler.List)

		tenantHandler := handlers.NewTenantHandler(base, cfg.Tenants)
		v1.GET("/tenants/:tenantID",
			guard.RequirePermission(security.PermSettingsView, middleware.TenantFromParam("tenantID")),
			tenantHandler.Get,
		)
	}

	return router
}
