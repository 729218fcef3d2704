package security

import (
	"fmt"
	"sort"
)

// Registry maps roles to permission sets. It is immutable after construction
// and safe for concurrent use.
type Registry struct {
	rows map[Role]PermissionSet
}

// NewRegistry builds the registry from the role table.
// It panics if the table references a permission outside the catalog.
func NewRegistry() *Registry {
	r, err := buildRegistry(roleTable)
	if err != nil {
		panic(err)
	}
	return r
}

func buildRegistry(table map[Role]roleRow) (*Registry, error) {
	rows := make(map[Role]PermissionSet, len(table))
	for role, row := range table {
		var set PermissionSet
		if row.derive != nil {
			set = row.derive()
		} else {
			set = NewPermissionSet(row.perms...)
		}
		for p := range set {
			if !p.Valid() {
				return nil, fmt.Errorf("role %s: unknown permission %q", role, p)
			}
		}
		rows[role] = set
	}
	return &Registry{rows: rows}, nil
}

// PermissionsFor returns a copy of the role's permissions.
// Unknown roles get an empty set.
func (r *Registry) PermissionsFor(role Role) PermissionSet {
	set, ok := r.rows[role]
	if !ok {
		return PermissionSet{}
	}
	return set.Clone()
}

// HasPermission reports whether role holds perm.
func (r *Registry) HasPermission(role Role, perm Permission) bool {
	return r.rows[role].Has(perm)
}

// RoleEntry is one row of the registry as rendered for review.
type RoleEntry struct {
	Role        Role
	Permissions []Permission
}

// Table returns every row in role display order.
func (r *Registry) Table() []RoleEntry {
	entries := make([]RoleEntry, 0, len(r.rows))
	for role, set := range r.rows {
		entries = append(entries, RoleEntry{Role: role, Permissions: set.Sorted()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return roleOrder(entries[i].Role) < roleOrder(entries[j].Role)
	})
	return entries
}

func roleOrder(role Role) int {
	for i, r := range Roles {
		if r == role {
			return i
		}
	}
	return len(Roles)
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// PermissionsFor returns the role's permissions from the default registry.
func PermissionsFor(role Role) PermissionSet {
	return defaultRegistry.PermissionsFor(role)
}

// HasPermission checks role against the default registry.
func HasPermission(role Role, perm Permission) bool {
	return defaultRegistry.HasPermission(role, perm)
}
