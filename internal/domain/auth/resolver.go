package auth

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"carehub/internal/core/apperror"
	"carehub/internal/core/security"
	"carehub/internal/core/tenant"
	"carehub/pkg/logger"
)

var tracer = otel.Tracer("carehub/auth")

// ResolverConfig configures the session resolver.
type ResolverConfig struct {
	// DefaultTenantID is substituted for principals without a tenant.
	// Empty means such principals are rejected.
	DefaultTenantID string

	// Timeout bounds each verifier call.
	Timeout time.Duration
}

// ResolveObserver is notified of every resolution outcome.
type ResolveObserver interface {
	ObserveResolution(result string)
}

// Resolution outcomes reported to the observer.
const (
	ResultBearer        = "bearer"
	ResultSession       = "session"
	ResultUnauthorized  = "unauthorized"
	ResultUnavailable   = "upstream_unavailable"
	ResultNoCredentials = "no_credential"
)

// Resolver turns a presented credential into an Identity.
// It prefers the bearer token and falls back to the session cookie.
type Resolver struct {
	bearer   Verifier
	session  Verifier
	config   ResolverConfig
	observer ResolveObserver
}

// NewResolver creates a resolver. Either verifier may be nil to disable that path.
func NewResolver(bearer, session Verifier, config ResolverConfig) *Resolver {
	return &Resolver{bearer: bearer, session: session, config: config}
}

// WithObserver sets the outcome observer.
func (r *Resolver) WithObserver(o ResolveObserver) *Resolver {
	r.observer = o
	return r
}

// Resolve implements tenant.SessionResolver.
//
// The result is an Identity, an Unauthorized error, or an UpstreamUnavailable error
// when a verifier could not be reached and no other path succeeded.
func (r *Resolver) Resolve(ctx context.Context, cred security.Credential) (*security.Identity, error) {
	ctx, span := tracer.Start(ctx, "auth.resolve")
	defer span.End()

	if cred.IsEmpty() {
		r.observe(ResultNoCredentials)
		return nil, apperror.NewUnauthorized("authentication required").WithCause(ErrNoCredential)
	}

	type attempt struct {
		name     string
		verifier Verifier
		token    string
	}
	attempts := []attempt{
		{ResultBearer, r.bearer, cred.Bearer},
		{ResultSession, r.session, cred.Session},
	}

	var upstreamErr error
	for _, a := range attempts {
		if a.token == "" || a.verifier == nil {
			continue
		}

		identity, err := r.verify(ctx, a.verifier, a.token)
		if err == nil {
			span.SetAttributes(
				attribute.String("auth.method", a.name),
				attribute.String("auth.role", string(identity.Role)),
			)
			r.observe(a.name)
			return identity, nil
		}

		if errors.Is(err, ErrInvalidCredential) {
			logger.Warn(ctx, "credential rejected", "method", a.name, "error", err)
			continue
		}

		logger.Error(ctx, "credential verifier unavailable", "method", a.name, "error", err)
		upstreamErr = err
	}

	if upstreamErr != nil {
		span.RecordError(upstreamErr)
		span.SetStatus(codes.Error, "verifier unavailable")
		r.observe(ResultUnavailable)
		return nil, apperror.NewUpstreamUnavailable("credential_verifier", upstreamErr)
	}

	span.SetStatus(codes.Error, "unauthenticated")
	r.observe(ResultUnauthorized)
	return nil, apperror.NewUnauthorized("invalid credential").WithCause(ErrInvalidCredential)
}

func (r *Resolver) verify(ctx context.Context, v Verifier, token string) (*security.Identity, error) {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	p, err := v.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return r.toIdentity(ctx, p)
}

// toIdentity validates the principal. An unknown role or a missing tenant that
// cannot be substituted makes the credential invalid.
func (r *Resolver) toIdentity(ctx context.Context, p *Principal) (*security.Identity, error) {
	if p == nil || p.UserID == "" {
		return nil, ErrInvalidCredential
	}

	role, ok := security.ParseRole(p.Role)
	if !ok {
		logger.Warn(ctx, "credential carries unknown role", "user_id", p.UserID, "role", p.Role)
		return nil, ErrInvalidCredential
	}

	identity := &security.Identity{
		UserID:   p.UserID,
		Email:    p.Email,
		Name:     p.Name,
		Role:     role,
		TenantID: p.TenantID,
	}

	if identity.TenantID == "" && role != security.RoleSuperAdmin {
		if r.config.DefaultTenantID == "" {
			logger.Warn(ctx, "credential has no tenant and no default tenant is configured", "user_id", p.UserID)
			return nil, ErrInvalidCredential
		}
		logger.Warn(ctx, "substituting default tenant", "user_id", p.UserID, "tenant_id", r.config.DefaultTenantID)
		identity.TenantID = r.config.DefaultTenantID
	}

	return identity, nil
}

func (r *Resolver) observe(result string) {
	if r.observer != nil {
		r.observer.ObserveResolution(result)
	}
}

var _ tenant.SessionResolver = (*Resolver)(nil)
