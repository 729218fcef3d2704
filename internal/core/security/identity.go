package security

// Identity is the authenticated principal for one request or client session.
// It is never persisted.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   Role
	// TenantID is the tenant the credential was issued for. Empty only for super_admin.
	TenantID string
}

// IsSuperAdmin reports whether the identity bypasses tenant scoping.
func (i *Identity) IsSuperAdmin() bool {
	return i != nil && i.Role == RoleSuperAdmin
}
