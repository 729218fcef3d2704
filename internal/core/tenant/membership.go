package tenant

import (
	"context"

	"carehub/internal/core/security"
)

// Membership is the persistence collaborator for tenant membership and the
// per-user primary tenant preference.
type Membership interface {
	// EntitledTenants returns the ids of tenants the user belongs to.
	EntitledTenants(ctx context.Context, userID string) ([]string, error)

	// PrimaryTenant returns the user's recorded primary tenant, or "" when none is recorded.
	PrimaryTenant(ctx context.Context, userID string) (string, error)

	// SetPrimaryTenant durably records tenantID as the user's primary tenant.
	// Returns ErrTenantNotEntitled if the user is not a member.
	SetPrimaryTenant(ctx context.Context, userID, tenantID string) error
}

// SessionResolver turns a presented credential into an identity.
type SessionResolver interface {
	Resolve(ctx context.Context, cred security.Credential) (*security.Identity, error)
}
