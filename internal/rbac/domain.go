package rbac

import (
	"errors"
	"sort"
	"strings"
)

// Role is the coarse grouping assigned to every account.
type Role string

const (
	// RoleUser is a learner account.
	RoleUser Role = "USER"
	// RoleAdmin manages catalogue content and reports.
	RoleAdmin Role = "ADMIN"
	// RoleSuperAdmin additionally manages admins and platform settings.
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Roles lists every known role from least to most privileged.
func Roles() []Role {
	return []Role{RoleUser, RoleAdmin, RoleSuperAdmin}
}

// ParseRole normalises a role name received from the backend.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	role = Role(strings.ReplaceAll(string(role), "-", "_"))
	for _, known := range Roles() {
		if role == known {
			return role, true
		}
	}
	return role, false
}

// Permission is an atomic capability flag.
type Permission string

// User is the authenticated actor as seen by the access-control layer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Permissions returns the permission set derived from the user's role.
func (u *User) Permissions() PermissionSet {
	if u == nil {
		return PermissionSet{}
	}
	return Permissions(u.Role)
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

// Has reports whether p is a member of the set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAll reports whether every permission in required is present.
func (s PermissionSet) HasAll(required ...Permission) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Contains reports whether s is a superset of other.
func (s PermissionSet) Contains(other PermissionSet) bool {
	for p := range other {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexical order.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	// ErrUnauthenticated indicates that no user is attached to the request.
	ErrUnauthenticated = errors.New("rbac: unauthenticated")
	// ErrForbidden indicates that the user fails the guard.
	ErrForbidden = errors.New("rbac: forbidden")
)
