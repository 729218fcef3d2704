package security

import "strings"

// Role is one of a closed set of role names.
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleTenantAdmin      Role = "tenant_admin"
	RoleClinicalAdmin    Role = "clinical_admin"
	RoleCareManager      Role = "care_manager"
	RoleCareProfessional Role = "care_professional"
	RoleFrontDesk        Role = "front_desk"
	RolePatient          Role = "patient"
)

// Roles lists every role in display order.
var Roles = []Role{
	RoleSuperAdmin,
	RoleTenantAdmin,
	RoleClinicalAdmin,
	RoleCareManager,
	RoleCareProfessional,
	RoleFrontDesk,
	RolePatient,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole returns the known role matching s.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// roleRow describes how a role's permission set is obtained.
// Exactly one of derive or perms is set.
type roleRow struct {
	derive func() PermissionSet
	perms  []Permission
}

// roleTable is the reviewable role -> permission mapping.
// super_admin and tenant_admin are derived from the catalog; the rest are maintained by hand.
var roleTable = map[Role]roleRow{
	RoleSuperAdmin: {
		derive: AllPermissions,
	},
	RoleTenantAdmin: {
		derive: func() PermissionSet { return AllPermissions().Without(ResourceTenant) },
	},
	RoleClinicalAdmin: {perms: []Permission{
		PermUserView,
		PermRoleView,
		PermPatientView, PermPatientCreate, PermPatientUpdate, PermPatientDelete,
		PermAppointmentView, PermAppointmentCreate, PermAppointmentUpdate, PermAppointmentCancel,
		PermDocumentView, PermDocumentUpload, PermDocumentDelete,
		PermClinicalNoteView, PermClinicalNoteCreate, PermClinicalNoteUpdate,
		PermCarePlanView, PermCarePlanCreate, PermCarePlanUpdate,
		PermReportView, PermReportExport,
		PermSettingsView,
		PermAuditView,
	}},
	RoleCareManager: {perms: []Permission{
		PermPatientView, PermPatientCreate, PermPatientUpdate,
		PermAppointmentView, PermAppointmentCreate, PermAppointmentUpdate, PermAppointmentCancel,
		PermDocumentView, PermDocumentUpload,
		PermClinicalNoteView,
		PermCarePlanView, PermCarePlanCreate, PermCarePlanUpdate,
		PermReportView,
	}},
	RoleCareProfessional: {perms: []Permission{
		PermPatientView, PermPatientUpdate,
		PermAppointmentView, PermAppointmentUpdate,
		PermDocumentView, PermDocumentUpload,
		PermClinicalNoteView, PermClinicalNoteCreate, PermClinicalNoteUpdate,
		PermCarePlanView, PermCarePlanUpdate,
	}},
	RoleFrontDesk: {perms: []Permission{
		PermPatientView, PermPatientCreate, PermPatientUpdate,
		PermAppointmentView, PermAppointmentCreate, PermAppointmentUpdate, PermAppointmentCancel,
		PermDocumentView, PermDocumentUpload,
	}},
	RolePatient: {perms: []Permission{
		PermPatientView,
		PermAppointmentView, PermAppointmentCreate, PermAppointmentCancel,
		PermDocumentView,
		PermCarePlanView,
	}},
}
