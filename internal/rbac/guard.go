package rbac

// Guard decides whether a user may access protected content.
type Guard struct {
	AllowedRoles        []Role
	RequiredPermissions []Permission
}

// Allows reports whether user passes the guard. A nil user is always
// denied; a guard without roles or permissions allows any user.
func (g Guard) Allows(user *User) bool {
	return g.Check(user) == nil
}

// Check is Allows with the reason for denial.
func (g Guard) Check(user *User) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if len(g.AllowedRoles) > 0 && !roleIn(user.Role, g.AllowedRoles) {
		return ErrForbidden
	}
	if len(g.RequiredPermissions) > 0 && !user.Permissions().HasAll(g.RequiredPermissions...) {
		return ErrForbidden
	}
	return nil
}

// HasPermission reports whether user holds perm.
func HasPermission(user *User, perm Permission) bool {
	return user.Permissions().Has(perm)
}

// HasRole reports whether user holds one of roles.
func HasRole(user *User, roles ...Role) bool {
	if user == nil {
		return false
	}
	return roleIn(user.Role, roles)
}

func roleIn(role Role, roles []Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
