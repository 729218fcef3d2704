package tenant

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"carehub/internal/core/id"
)

// Registry provides read access to the tenant directory.
type Registry interface {
	// GetByID retrieves tenant by UUID string.
	GetByID(ctx context.Context, tenantID string) (*Tenant, error)

	// ListByIDs returns the tenants with the given ids, ordered by name.
	// Unknown ids are skipped.
	ListByIDs(ctx context.Context, tenantIDs []string) ([]*Tenant, error)
}

// PostgresRegistry implements Registry on the tenants table.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

func (r *PostgresRegistry) GetByID(ctx context.Context, tenantID string) (*Tenant, error) {
	if !id.Valid(tenantID) {
		return nil, ErrTenantNotFound
	}

	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT id::text, name, status, created_at
		FROM tenants
		WHERE id = $1
	`, tenantID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) ListByIDs(ctx context.Context, tenantIDs []string) ([]*Tenant, error) {
	if len(tenantIDs) == 0 {
		return nil, nil
	}
	var tenants []*Tenant
	err := pgxscan.Select(ctx, r.pool, &tenants, `
		SELECT id::text, name, status, created_at
		FROM tenants
		WHERE id = ANY($1::uuid[])
		ORDER BY name
	`, tenantIDs)
	if err != nil {
		return nil, fmt.Errorf("list tenants by ids: %w", err)
	}
	return tenants, nil
}

// Create inserts an active tenant and returns it.
func (r *PostgresRegistry) Create(ctx context.Context, name string) (*Tenant, error) {
	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		INSERT INTO tenants (id, name, status)
		VALUES ($1, $2, $3)
		RETURNING id::text, name, status, created_at
	`, id.New(), name, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return &t, nil
}

var _ Registry = (*PostgresRegistry)(nil)
