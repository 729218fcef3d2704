package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"carehub/internal/core/id"
	"carehub/internal/core/tenant"
)

const (
	membershipsTable = "tenant_memberships"
	preferencesTable = "user_tenant_preferences"
	tenantsTable     = "tenants"
)

// MembershipStore implements tenant.Membership on PostgreSQL.
type MembershipStore struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewMembershipStore creates a new membership store.
func NewMembershipStore(txm *TxManager) *MembershipStore {
	return &MembershipStore{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ tenant.Membership = (*MembershipStore)(nil)

func (s *MembershipStore) entitledQuery(userID string) squirrel.SelectBuilder {
	return s.builder.
		Select("m.tenant_id::text").
		From(membershipsTable + " m").
		Join(tenantsTable + " t ON t.id = m.tenant_id").
		Where(squirrel.Eq{"m.user_id": userID, "t.status": string(tenant.StatusActive)}).
		OrderBy("m.created_at", "m.tenant_id")
}

func (s *MembershipStore) primaryQuery(userID string) squirrel.SelectBuilder {
	return s.builder.
		Select("primary_tenant_id::text").
		From(preferencesTable).
		Where(squirrel.Eq{"user_id": userID})
}

// memberLockQuery locks the membership row so it cannot be revoked while the
// preference is written.
func (s *MembershipStore) memberLockQuery(userID, tenantID string) squirrel.SelectBuilder {
	return s.builder.
		Select("m.tenant_id::text").
		From(membershipsTable + " m").
		Join(tenantsTable + " t ON t.id = m.tenant_id").
		Where(squirrel.Eq{"m.user_id": userID, "m.tenant_id": tenantID, "t.status": string(tenant.StatusActive)}).
		Suffix("FOR SHARE OF m")
}

func (s *MembershipStore) upsertPrimaryQuery(userID, tenantID string) squirrel.InsertBuilder {
	return s.builder.
		Insert(preferencesTable).
		Columns("user_id", "primary_tenant_id", "updated_at").
		Values(userID, tenantID, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET primary_tenant_id = EXCLUDED.primary_tenant_id, updated_at = EXCLUDED.updated_at")
}

// EntitledTenants implements tenant.Membership. Only active tenants count.
// A user id that is not a UUID has no memberships.
func (s *MembershipStore) EntitledTenants(ctx context.Context, userID string) ([]string, error) {
	if !id.Valid(userID) {
		return nil, nil
	}

	sql, args, err := s.entitledQuery(userID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []string
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list entitled tenants: %w", err)
	}
	return ids, nil
}

// PrimaryTenant implements tenant.Membership.
func (s *MembershipStore) PrimaryTenant(ctx context.Context, userID string) (string, error) {
	if !id.Valid(userID) {
		return "", nil
	}

	sql, args, err := s.primaryQuery(userID).ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var primary string
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &primary, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("get primary tenant: %w", err)
	}
	return primary, nil
}

// SetPrimaryTenant implements tenant.Membership. The membership check and the
// write happen in one transaction.
func (s *MembershipStore) SetPrimaryTenant(ctx context.Context, userID, tenantID string) error {
	if !id.Valid(userID) || !id.Valid(tenantID) {
		return tenant.ErrTenantNotEntitled
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := s.txm.GetQuerier(ctx)

		sql, args, err := s.memberLockQuery(userID, tenantID).ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		var locked string
		if err := pgxscan.Get(ctx, q, &locked, sql, args...); err != nil {
			if pgxscan.NotFound(err) {
				return tenant.ErrTenantNotEntitled
			}
			return fmt.Errorf("check membership: %w", err)
		}

		sql, args, err = s.upsertPrimaryQuery(userID, tenantID).ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("set primary tenant: %w", err)
		}
		return nil
	})
}

// Grant adds userID to tenantID. Granting an existing membership is a no-op.
func (s *MembershipStore) Grant(ctx context.Context, userID, tenantID string) error {
	sql, args, err := s.builder.
		Insert(membershipsTable).
		Columns("user_id", "tenant_id").
		Values(userID, tenantID).
		Suffix("ON CONFLICT (user_id, tenant_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("grant membership: %w", err)
	}
	return nil
}

// ErrMembershipNotFound is returned by Revoke when there is nothing to revoke.
var ErrMembershipNotFound = errors.New("membership not found")

// Revoke removes userID from tenantID and clears the primary tenant preference
// if it pointed there.
func (s *MembershipStore) Revoke(ctx context.Context, userID, tenantID string) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := s.txm.GetQuerier(ctx)

		sql, args, err := s.builder.
			Delete(membershipsTable).
			Where(squirrel.Eq{"user_id": userID, "tenant_id": tenantID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		tag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("revoke membership: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrMembershipNotFound
		}

		sql, args, err = s.builder.
			Delete(preferencesTable).
			Where(squirrel.Eq{"user_id": userID, "primary_tenant_id": tenantID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("clear primary tenant: %w", err)
		}
		return nil
	})
}
