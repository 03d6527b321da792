package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTable(t *testing.T) {
	require.NoError(t, ValidateTable())
}

func TestPermissionsMatchStaticTable(t *testing.T) {
	cases := map[Role][]Permission{
		RoleUser:       learnerScopes(),
		RoleAdmin:      adminScopes(),
		RoleSuperAdmin: superAdminScopes(),
	}
	for role, want := range cases {
		got := Permissions(role)
		assert.Equal(t, NewPermissionSet(want...), got, "role %s", role)
	}
}

func TestPermissionsUnknownRoleIsEmpty(t *testing.T) {
	assert.Empty(t, Permissions(Role("GUEST")))
	assert.Empty(t, Permissions(""))
}

func TestPermissionsReturnsCopy(t *testing.T) {
	perms := Permissions(RoleUser)
	perms[PermManageAdmins] = struct{}{}
	assert.False(t, Permissions(RoleUser).Has(PermManageAdmins))
}

func TestSuperAdminHoldsEveryPermission(t *testing.T) {
	perms := Permissions(RoleSuperAdmin)
	for _, p := range AllPermissions() {
		assert.True(t, perms.Has(p), "missing %s", p)
	}
}

func TestManageAdminsReservedForSuperAdmin(t *testing.T) {
	assert.False(t, Permissions(RoleAdmin).Has(PermManageAdmins))
	assert.False(t, Permissions(RoleUser).Has(PermManageAdmins))
	assert.True(t, Permissions(RoleSuperAdmin).Has(PermManageAdmins))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" super-admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleSuperAdmin, role)

	role, ok = ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = ParseRole("janitor")
	assert.False(t, ok)
}

func TestPermissionSetSorted(t *testing.T) {
	set := NewPermissionSet(PermTakeExam, PermCreateBook, PermViewProfile)
	assert.Equal(t, []Permission{PermCreateBook, PermTakeExam, PermViewProfile}, set.Sorted())
}
