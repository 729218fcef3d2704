// Package dto provides data transfer objects for HTTP API.
package dto

import (
	"carehub/internal/core/security"
	"carehub/internal/core/tenant"
)

// --- Request DTOs ---

// SwitchTenantRequest names the tenant to make active.
type SwitchTenantRequest struct {
	TenantID string `json:"tenantId" binding:"required,uuid"`
}

// AuthorizeRequest asks whether the caller may perform an operation.
type AuthorizeRequest struct {
	Permission string `json:"permission" binding:"required"`
	TenantID   string `json:"tenantId,omitempty" binding:"omitempty,uuid"`
}

// --- Response DTOs ---

// UserResponse describes the authenticated user.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// TenantResponse is one entitled tenant.
type TenantResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Active bool   `json:"active"`
}

// SessionResponse describes the caller's tenant context.
type SessionResponse struct {
	User           UserResponse     `json:"user"`
	ActiveTenantID string           `json:"activeTenantId,omitempty"`
	Tenants        []TenantResponse `json:"tenants"`
	Permissions    []string         `json:"permissions"`
}

// NewSessionResponse builds the response from context state. names maps tenant
// ids to display names; missing names are left empty.
func NewSessionResponse(identity *security.Identity, active string, entitled []string, names map[string]string, perms security.PermissionSet) SessionResponse {
	tenants := make([]TenantResponse, 0, len(entitled))
	for _, id := range entitled {
		tenants = append(tenants, TenantResponse{ID: id, Name: names[id], Active: id == active})
	}
	return SessionResponse{
		User: UserResponse{
			ID:    identity.UserID,
			Email: identity.Email,
			Name:  identity.Name,
			Role:  string(identity.Role),
		},
		ActiveTenantID: active,
		Tenants:        tenants,
		Permissions:    perms.Strings(),
	}
}

// AuthorizeResponse carries only the outcome; deny reasons are not disclosed.
type AuthorizeResponse struct {
	Allowed bool `json:"allowed"`
}

// RoleResponse is one row of the role table.
type RoleResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// TenantDetailResponse describes a tenant.
type TenantDetailResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// FromTenant converts a directory record.
func FromTenant(t *tenant.Tenant) TenantDetailResponse {
	return TenantDetailResponse{ID: t.ID, Name: t.Name, Status: string(t.Status)}
}
