// Package security provides the permission registry and the authorization enforcer.
package security

import (
	"slices"
	"strings"
)

// Permission is an atomic capability namespaced as "resource:action".
// The full set is enumerated below; permissions are never created at runtime.
type Permission string

// Resources
const (
	ResourceTenant       = "tenant"
	ResourceUser         = "user"
	ResourceRole         = "role"
	ResourcePatient      = "patient"
	ResourceAppointment  = "appointment"
	ResourceDocument     = "document"
	ResourceClinicalNote = "clinical_note"
	ResourceCarePlan     = "care_plan"
	ResourceReport       = "report"
	ResourceSettings     = "settings"
	ResourceAudit        = "audit"
)

const (
	PermTenantView   Permission = "tenant:view"
	PermTenantCreate Permission = "tenant:create"
	PermTenantUpdate Permission = "tenant:update"
	PermTenantDelete Permission = "tenant:delete"

	PermUserView   Permission = "user:view"
	PermUserCreate Permission = "user:create"
	PermUserUpdate Permission = "user:update"
	PermUserDelete Permission = "user:delete"

	PermRoleView   Permission = "role:view"
	PermRoleAssign Permission = "role:assign"

	PermPatientView   Permission = "patient:view"
	PermPatientCreate Permission = "patient:create"
	PermPatientUpdate Permission = "patient:update"
	PermPatientDelete Permission = "patient:delete"

	PermAppointmentView   Permission = "appointment:view"
	PermAppointmentCreate Permission = "appointment:create"
	PermAppointmentUpdate Permission = "appointment:update"
	PermAppointmentCancel Permission = "appointment:cancel"

	PermDocumentView   Permission = "document:view"
	PermDocumentUpload Permission = "document:upload"
	PermDocumentDelete Permission = "document:delete"

	PermClinicalNoteView   Permission = "clinical_note:view"
	PermClinicalNoteCreate Permission = "clinical_note:create"
	PermClinicalNoteUpdate Permission = "clinical_note:update"

	PermCarePlanView   Permission = "care_plan:view"
	PermCarePlanCreate Permission = "care_plan:create"
	PermCarePlanUpdate Permission = "care_plan:update"

	PermReportView   Permission = "report:view"
	PermReportExport Permission = "report:export"

	PermSettingsView   Permission = "settings:view"
	PermSettingsUpdate Permission = "settings:update"

	PermAuditView Permission = "audit:view"
)

// catalog is the universe of permissions. Adding a permission means adding a line here
// and, if a hand-maintained role should hold it, a cell in roleTable.
var catalog = []Permission{
	PermTenantView, PermTenantCreate, PermTenantUpdate, PermTenantDelete,
	PermUserView, PermUserCreate, PermUserUpdate, PermUserDelete,
	PermRoleView, PermRoleAssign,
	PermPatientView, PermPatientCreate, PermPatientUpdate, PermPatientDelete,
	PermAppointmentView, PermAppointmentCreate, PermAppointmentUpdate, PermAppointmentCancel,
	PermDocumentView, PermDocumentUpload, PermDocumentDelete,
	PermClinicalNoteView, PermClinicalNoteCreate, PermClinicalNoteUpdate,
	PermCarePlanView, PermCarePlanCreate, PermCarePlanUpdate,
	PermReportView, PermReportExport,
	PermSettingsView, PermSettingsUpdate,
	PermAuditView,
}

// Resource returns the part before the colon.
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ":")
	return resource
}

// Action returns the part after the colon.
func (p Permission) Action() string {
	_, action, _ := strings.Cut(string(p), ":")
	return action
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// Valid reports whether p is part of the catalog.
func (p Permission) Valid() bool {
	return slices.Contains(catalog, p)
}

// ParsePermission returns the catalog permission matching s.
func ParsePermission(s string) (Permission, bool) {
	p := Permission(strings.TrimSpace(strings.ToLower(s)))
	if !p.Valid() {
		return "", false
	}
	return p, true
}

// AllPermissions returns the universe of permissions as a fresh set.
func AllPermissions() PermissionSet {
	return NewPermissionSet(catalog...)
}

// PermissionSet is an unordered set of permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether p is in the set. A nil set holds nothing.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Without returns a new set with every permission on the given resources removed.
func (s PermissionSet) Without(resources ...string) PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		if slices.Contains(resources, p.Resource()) {
			continue
		}
		out[p] = struct{}{}
	}
	return out
}

// Clone returns an independent copy.
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Sorted returns the permissions in lexical order.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Strings returns the sorted permissions as plain strings.
func (s PermissionSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = string(p)
	}
	return out
}
