package tenant

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"carehub/internal/core/apperror"
	"carehub/internal/core/security"
	"carehub/pkg/logger"
)

var tracer = otel.Tracer("carehub/tenant")

// ErrContextEstablished is returned when Establish is called twice.
var ErrContextEstablished = errors.New("tenant context already established")

// State is the lifecycle position of a Context.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateReady
	StateSwitching
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	case StateSwitching:
		return "switching"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// DefaultUpstreamTimeout bounds each membership call when no timeout is configured.
const DefaultUpstreamTimeout = 5 * time.Second

// Context holds the identity and active tenant for one request or client session.
//
// The active tenant is always one of the entitled tenants, or empty.
// Switch calls on one Context are serialized.
type Context struct {
	mu         sync.RWMutex
	membership Membership
	timeout    time.Duration

	state    State
	identity *security.Identity
	entitled []string
	active   string
}

// Option configures a Context.
type Option func(*Context)

// WithUpstreamTimeout bounds each membership call.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(c *Context) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewContext creates an uninitialized context backed by membership.
func NewContext(membership Membership, opts ...Option) *Context {
	c := &Context{
		membership: membership,
		timeout:    DefaultUpstreamTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Establish resolves the credential and loads the user's tenants.
// On any failure the context ends.
func (c *Context) Establish(ctx context.Context, resolver SessionResolver, cred security.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateUninitialized:
	case StateEnded:
		return ErrContextEnded
	default:
		return ErrContextEstablished
	}

	c.state = StateResolving

	identity, err := resolver.Resolve(ctx, cred)
	if err != nil {
		c.state = StateEnded
		return err
	}
	if identity == nil {
		c.state = StateEnded
		return apperror.NewUnauthorized("authentication required")
	}

	entitled, primary, err := c.load(ctx, identity.UserID)
	if err != nil {
		c.state = StateEnded
		return err
	}

	c.identity = identity
	c.entitled = entitled
	c.active = pickActive(entitled, primary, identity.TenantID)
	c.state = StateReady

	return nil
}

func (c *Context) load(ctx context.Context, userID string) ([]string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	entitled, err := c.membership.EntitledTenants(ctx, userID)
	if err != nil {
		return nil, "", upstream(err)
	}
	primary, err := c.membership.PrimaryTenant(ctx, userID)
	if err != nil {
		return nil, "", upstream(err)
	}
	return slices.Clone(entitled), primary, nil
}

// pickActive prefers the recorded primary tenant, then the tenant the credential
// was issued for, then the first entitled tenant.
func pickActive(entitled []string, primary, credentialTenant string) string {
	if primary != "" && slices.Contains(entitled, primary) {
		return primary
	}
	if credentialTenant != "" && slices.Contains(entitled, credentialTenant) {
		return credentialTenant
	}
	if len(entitled) > 0 {
		return entitled[0]
	}
	return ""
}

// Switch makes target the active tenant.
//
// The primary tenant preference is written durably before the active tenant changes.
// If the write fails the active tenant is unchanged. If the durable record read back
// afterwards differs from target, the context adopts the durable value and returns
// ErrSwitchConflict.
func (c *Context) Switch(ctx context.Context, target string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateReady:
	case StateEnded:
		return ErrContextEnded
	default:
		return ErrContextNotReady
	}

	ctx, span := tracer.Start(ctx, "tenant.switch")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.from", c.active),
		attribute.String("tenant.to", target),
	)

	log := logger.FromContext(ctx).With(
		"user_id", c.identity.UserID,
		"from_tenant_id", c.active,
		"to_tenant_id", target,
	)

	if !slices.Contains(c.entitled, target) {
		log.Warnw("tenant switch rejected: not entitled")
		return ErrTenantNotEntitled
	}

	c.state = StateSwitching
	defer func() { c.state = StateReady }()

	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.membership.SetPrimaryTenant(wctx, c.identity.UserID, target); err != nil {
		if errors.Is(err, ErrTenantNotEntitled) {
			log.Warnw("tenant switch rejected by store: not entitled")
			return ErrTenantNotEntitled
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "primary tenant write failed")
		log.Errorw("tenant switch failed: primary tenant write", "error", err)
		return upstream(err)
	}

	durable, err := c.membership.PrimaryTenant(wctx, c.identity.UserID)
	if err != nil {
		// The write was acknowledged; only the read-back failed.
		log.Warnw("tenant switch: read-back failed, keeping written tenant", "error", err)
		c.active = target
		return nil
	}

	if durable != target {
		c.adoptDurable(wctx, durable)
		span.SetAttributes(attribute.String("tenant.durable", durable))
		log.Warnw("tenant switch conflict", "durable_tenant_id", durable, "active_tenant_id", c.active)
		return ErrSwitchConflict
	}

	c.active = target
	log.Infow("tenant switched")
	return nil
}

// adoptDurable moves to the durable primary tenant if the user is entitled to it.
// The entitled list is reloaded first since the concurrent writer may know of
// memberships this context has not seen.
func (c *Context) adoptDurable(ctx context.Context, durable string) {
	if entitled, err := c.membership.EntitledTenants(ctx, c.identity.UserID); err == nil {
		c.entitled = slices.Clone(entitled)
		if !slices.Contains(c.entitled, c.active) {
			c.active = ""
		}
	}
	if durable != "" && slices.Contains(c.entitled, durable) {
		c.active = durable
	}
}

// End terminates the context. It is idempotent.
func (c *Context) End() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateEnded
	c.identity = nil
	c.entitled = nil
	c.active = ""
}

// State returns the current lifecycle state.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Identity returns the resolved identity, or nil unless the context is ready.
func (c *Context) Identity() *security.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return nil
	}
	return c.identity
}

// ActiveTenantID returns the active tenant, or "" when none is active.
func (c *Context) ActiveTenantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return ""
	}
	return c.active
}

// EntitledTenants returns a copy of the entitled tenant ids.
func (c *Context) EntitledTenants() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return nil
	}
	return slices.Clone(c.entitled)
}

func upstream(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewUpstreamUnavailable("membership", err)
}

// --- context.Context plumbing ---

type contextKey struct{}

// WithContext stores the tenant context in ctx.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the tenant context stored in ctx, or nil.
func FromContext(ctx context.Context) *Context {
	tc, _ := ctx.Value(contextKey{}).(*Context)
	return tc
}
