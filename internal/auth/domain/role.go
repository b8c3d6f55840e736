package domain

import (
	"fmt"

	apperrors "github.com/allisson/careportal/internal/errors"
)

// PermissionSet is an immutable set of permissions.
type PermissionSet map[Permission]struct{}

func newPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Intersects reports whether any of perms is in the set.
func (s PermissionSet) Intersects(perms ...Permission) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// rolePermissions is the static role table. It is read-only after package init.
var rolePermissions = map[Role]PermissionSet{
	RoleSuperAdmin: newPermissionSet(
		PermPatientsCreate, PermPatientsRead, PermPatientsUpdate, PermPatientsDelete,
		PermAssessmentsCreate, PermAssessmentsRead, PermAssessmentsUpdate, PermAssessmentsDelete,
		PermDoctorsCreate, PermDoctorsRead, PermDoctorsUpdate, PermDoctorsDelete,
		PermAuditRead,
	),
	RoleAdmin: newPermissionSet(
		PermPatientsRead, PermPatientsUpdate,
		PermAssessmentsCreate, PermAssessmentsRead, PermAssessmentsUpdate,
		PermDoctorsRead,
	),
}

// Permissions returns the permission set granted to the role, or nil for unknown roles.
func (r Role) Permissions() PermissionSet {
	return rolePermissions[r]
}

// IsValid reports whether the role exists in the role table.
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Allows reports whether the role grants at least one of required.
func (r Role) Allows(required ...Permission) bool {
	return r.Permissions().Intersects(required...)
}

// ParseRole converts a stored or user supplied value into a known Role.
func ParseRole(value string) (Role, error) {
	role := Role(value)
	if !role.IsValid() {
		return "", apperrors.Wrapf(ErrUnknownRole, "%q", value)
	}
	return role, nil
}

// ValidateRoleTable checks the role table at startup: every role must grant at least
// one permission and every granted permission must be a declared one.
func ValidateRoleTable() error {
	known := newPermissionSet(AllPermissions...)

	for role, perms := range rolePermissions {
		if len(perms) == 0 {
			return apperrors.Wrap(apperrors.ErrConfiguration, fmt.Sprintf("role %s grants no permissions", role))
		}
		for p := range perms {
			if !known.Has(p) {
				return apperrors.Wrap(
					apperrors.ErrConfiguration,
					fmt.Sprintf("role %s grants unknown permission %s", role, p),
				)
			}
		}
	}
	return nil
}
