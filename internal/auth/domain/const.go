// Package domain defines users, roles and the typed permission table used by the
// access control guard.
package domain

// Role names a fixed set of permissions.
type Role string

const (
	// RoleSuperAdmin can manage every resource and read the audit trail.
	RoleSuperAdmin Role = "SuperAdmin"

	// RoleAdmin is the default role granted on signup.
	RoleAdmin Role = "Admin"
)

// Permission is a "<resource>:<action>" capability checked by AuthorizationMiddleware.
type Permission string

const (
	PermPatientsCreate Permission = "patients:create"
	PermPatientsRead   Permission = "patients:read"
	PermPatientsUpdate Permission = "patients:update"
	PermPatientsDelete Permission = "patients:delete"

	PermAssessmentsCreate Permission = "assessments:create"
	PermAssessmentsRead   Permission = "assessments:read"
	PermAssessmentsUpdate Permission = "assessments:update"
	PermAssessmentsDelete Permission = "assessments:delete"

	PermDoctorsCreate Permission = "doctors:create"
	PermDoctorsRead   Permission = "doctors:read"
	PermDoctorsUpdate Permission = "doctors:update"
	PermDoctorsDelete Permission = "doctors:delete"

	PermAuditRead Permission = "audit:read"
)

// AllPermissions lists every permission the application knows about.
var AllPermissions = []Permission{
	PermPatientsCreate, PermPatientsRead, PermPatientsUpdate, PermPatientsDelete,
	PermAssessmentsCreate, PermAssessmentsRead, PermAssessmentsUpdate, PermAssessmentsDelete,
	PermDoctorsCreate, PermDoctorsRead, PermDoctorsUpdate, PermDoctorsDelete,
	PermAuditRead,
}

// UserEmailScope is the blind index scope of User.Email.
const UserEmailScope = "user.email"
