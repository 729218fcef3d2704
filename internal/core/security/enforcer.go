package security

import (
	"errors"

	"carehub/internal/core/apperror"
)

// DenyReason explains a denied decision. It is for logs and metrics only;
// clients see the same 403 body for every forbidden reason.
type DenyReason string

const (
	ReasonNone                   DenyReason = ""
	ReasonUnauthenticated        DenyReason = "unauthenticated"
	ReasonCrossTenantAccess      DenyReason = "cross_tenant_access"
	ReasonInsufficientPermission DenyReason = "insufficient_permission"
)

var (
	ErrCrossTenantAccess      = errors.New("cross-tenant access")
	ErrInsufficientPermission = errors.New("insufficient permission")
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow is the single allowing decision.
var Allow = Decision{Allowed: true}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denied decision into the error rendered to clients.
// It returns nil for an allowed decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonCrossTenantAccess:
		return apperror.NewForbidden().WithCause(ErrCrossTenantAccess)
	case ReasonInsufficientPermission:
		return apperror.NewForbidden().WithCause(ErrInsufficientPermission)
	default:
		return apperror.NewUnauthorized("authentication required")
	}
}

// Label returns the metric label for the decision.
func (d Decision) Label() string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}

// Enforcer decides whether an identity may perform an operation.
// It performs no I/O.
type Enforcer struct {
	registry *Registry
}

// NewEnforcer creates an enforcer over registry, or the default registry when nil.
func NewEnforcer(registry *Registry) *Enforcer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Enforcer{registry: registry}
}

// Authorize evaluates the check for identity acting in activeTenantID.
// requiredTenantID is the tenant the operation targets; empty means none was named.
// The checks run in order and the first failing one decides.
func (e *Enforcer) Authorize(identity *Identity, activeTenantID string, perm Permission, requiredTenantID string) Decision {
	if identity == nil {
		return deny(ReasonUnauthenticated)
	}

	if requiredTenantID != "" && !identity.IsSuperAdmin() && requiredTenantID != activeTenantID {
		return deny(ReasonCrossTenantAccess)
	}

	if !e.registry.HasPermission(identity.Role, perm) {
		return deny(ReasonInsufficientPermission)
	}

	return Allow
}
