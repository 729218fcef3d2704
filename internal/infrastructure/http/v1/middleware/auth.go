package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	appctx "carehub/internal/core/context"
	"carehub/internal/core/tenant"
	"carehub/internal/domain/auth"
)

const ctxKeyActiveTenant = "active_tenant_id"

// AuthConfig wires the request-scoped tenant context.
type AuthConfig struct {
	Resolver        tenant.SessionResolver
	Membership      tenant.Membership
	SessionCookie   string
	UpstreamTimeout time.Duration
}

// Authenticate resolves the presented credential into a tenant context that lives
// for the rest of the request. The context is ended when the request completes.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cred := auth.CredentialFromRequest(c.Request, cfg.SessionCookie)

		tc := tenant.NewContext(cfg.Membership, tenant.WithUpstreamTimeout(cfg.UpstreamTimeout))
		defer tc.End()

		if err := tc.Establish(ctx, cfg.Resolver, cred); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx = tenant.WithContext(ctx, tc)
		ctx = appctx.WithIdentity(ctx, tc.Identity())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		// Record after the handler so a switch during the request is reflected.
		c.Set(ctxKeyActiveTenant, activeTenantOf(c))
	}
}
