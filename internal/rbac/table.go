package rbac

import "fmt"

// Declared permissions.
const (
	PermViewDashboard Permission = "VIEW_DASHBOARD"
	PermViewProfile   Permission = "VIEW_PROFILE"
	PermEnrollCourse  Permission = "ENROLL_COURSE"
	PermTakeExam      Permission = "TAKE_EXAM"

	PermCreateCourse Permission = "CREATE_COURSE"
	PermEditCourse   Permission = "EDIT_COURSE"
	PermDeleteCourse Permission = "DELETE_COURSE"

	PermCreateBook Permission = "CREATE_BOOK"
	PermEditBook   Permission = "EDIT_BOOK"
	PermDeleteBook Permission = "DELETE_BOOK"

	PermCreateQuestion Permission = "CREATE_QUESTION"
	PermEditQuestion   Permission = "EDIT_QUESTION"
	PermDeleteQuestion Permission = "DELETE_QUESTION"

	PermCreateExam Permission = "CREATE_EXAM"
	PermEditExam   Permission = "EDIT_EXAM"
	PermDeleteExam Permission = "DELETE_EXAM"

	PermManageNotices Permission = "MANAGE_NOTICES"
	PermManageUsers   Permission = "MANAGE_USERS"
	PermViewReports   Permission = "VIEW_REPORTS"
	PermExportReports Permission = "EXPORT_REPORTS"

	PermManageAdmins   Permission = "MANAGE_ADMINS"
	PermManageSettings Permission = "MANAGE_SETTINGS"
)

// AllPermissions lists every declared permission.
func AllPermissions() []Permission {
	return []Permission{
		PermViewDashboard, PermViewProfile, PermEnrollCourse, PermTakeExam,
		PermCreateCourse, PermEditCourse, PermDeleteCourse,
		PermCreateBook, PermEditBook, PermDeleteBook,
		PermCreateQuestion, PermEditQuestion, PermDeleteQuestion,
		PermCreateExam, PermEditExam, PermDeleteExam,
		PermManageNotices, PermManageUsers, PermViewReports, PermExportReports,
		PermManageAdmins, PermManageSettings,
	}
}

func learnerScopes() []Permission {
	return []Permission{PermViewProfile, PermEnrollCourse, PermTakeExam}
}

func adminScopes() []Permission {
	return append(learnerScopes(),
		PermViewDashboard,
		PermCreateCourse, PermEditCourse, PermDeleteCourse,
		PermCreateBook, PermEditBook, PermDeleteBook,
		PermCreateQuestion, PermEditQuestion, PermDeleteQuestion,
		PermCreateExam, PermEditExam, PermDeleteExam,
		PermManageNotices, PermManageUsers, PermViewReports, PermExportReports,
	)
}

func superAdminScopes() []Permission {
	return append(adminScopes(), PermManageAdmins, PermManageSettings)
}

// table is built once and never mutated; Permissions hands out copies.
var table = map[Role]PermissionSet{
	RoleUser:       NewPermissionSet(learnerScopes()...),
	RoleAdmin:      NewPermissionSet(adminScopes()...),
	RoleSuperAdmin: NewPermissionSet(superAdminScopes()...),
}

// Permissions returns the statically defined set for role. Unknown roles
// yield an empty set.
func Permissions(role Role) PermissionSet {
	src, ok := table[role]
	if !ok {
		return PermissionSet{}
	}
	out := make(PermissionSet, len(src))
	for p := range src {
		out[p] = struct{}{}
	}
	return out
}

// ValidateTable checks the role table for consistency.
func ValidateTable() error {
	declared := NewPermissionSet(AllPermissions()...)
	roles := Roles()
	for _, role := range roles {
		perms, ok := table[role]
		if !ok {
			return fmt.Errorf("rbac: role %s has no permission entry", role)
		}
		for p := range perms {
			if !declared.Has(p) {
				return fmt.Errorf("rbac: role %s grants undeclared permission %s", role, p)
			}
		}
	}
	if len(table) != len(roles) {
		return fmt.Errorf("rbac: table has %d roles, expected %d", len(table), len(roles))
	}
	for i := 1; i < len(roles); i++ {
		lower, higher := roles[i-1], roles[i]
		if !table[higher].Contains(table[lower]) {
			return fmt.Errorf("rbac: role %s must include every permission of %s", higher, lower)
		}
	}
	for role, perms := range table {
		if role != RoleSuperAdmin && perms.Has(PermManageAdmins) {
			return fmt.Errorf("rbac: %s reserved for %s, granted to %s", PermManageAdmins, RoleSuperAdmin, role)
		}
	}
	return nil
}
