package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"carehub/internal/core/security"
	"carehub/internal/core/tenant"
	"carehub/pkg/logger"
)

// DecisionObserver is notified of every authorization decision.
type DecisionObserver interface {
	ObserveDecision(d security.Decision)
}

// Guard applies the enforcer to requests carrying a tenant context.
type Guard struct {
	enforcer *security.Enforcer
	observer DecisionObserver
}

// NewGuard creates a guard. observer may be nil.
func NewGuard(enforcer *security.Enforcer, observer DecisionObserver) *Guard {
	return &Guard{enforcer: enforcer, observer: observer}
}

// Check authorizes perm against the tenant context in ctx.
// requiredTenantID is the tenant the operation targets, or "" for none.
// A missing or ended tenant context yields Unauthenticated.
func (g *Guard) Check(ctx context.Context, perm security.Permission, requiredTenantID string) security.Decision {
	var (
		identity *security.Identity
		active   string
	)
	if tc := tenant.FromContext(ctx); tc != nil {
		identity = tc.Identity()
		active = tc.ActiveTenantID()
	}

	decision := g.enforcer.Authorize(identity, active, perm, requiredTenantID)
	if g.observer != nil {
		g.observer.ObserveDecision(decision)
	}
	if !decision.Allowed {
		logger.Warn(ctx, "access denied",
			"permission", string(perm),
			"reason", string(decision.Reason),
			"required_tenant_id", requiredTenantID,
			"active_tenant_id", active,
		)
	}
	return decision
}

// RequireOption configures RequirePermission.
type RequireOption func(*requireConfig)

type requireConfig struct {
	tenantFrom func(c *gin.Context) string
}

// TenantFromParam names the path parameter holding the targeted tenant id.
func TenantFromParam(name string) RequireOption {
	return func(rc *requireConfig) {
		rc.tenantFrom = func(c *gin.Context) string { return c.Param(name) }
	}
}

// RequirePermission aborts the request unless the caller holds perm
// (and, with TenantFromParam, acts in the targeted tenant).
func (g *Guard) RequirePermission(perm security.Permission, opts ...RequireOption) gin.HandlerFunc {
	var rc requireConfig
	for _, opt := range opts {
		opt(&rc)
	}

	return func(c *gin.Context) {
		var required string
		if rc.tenantFrom != nil {
			required = rc.tenantFrom(c)
		}

		decision := g.Check(c.Request.Context(), perm, required)
		if !decision.Allowed {
			_ = c.Error(decision.Err())
			c.Abort()
			return
		}
		c.Next()
	}
}
