package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/processflow/internal/domain"
)

func TestHasPermission_Table(t *testing.T) {
	cases := []struct {
		role domain.Role
		perm Permission
		want bool
	}{
		{domain.RoleAdmin, PermUsersDelete, true},
		{domain.RoleAdmin, PermLogsView, true},
		{domain.RoleAdmin, PermReportsSector, false},
		{domain.RoleSupervisor, PermOrdersFinalize, true},
		{domain.RoleSupervisor, PermOrdersDelete, false},
		{domain.RoleSupervisor, PermUsersCreate, false},
		{domain.RoleSupervisor, PermUsersView, true},
		{domain.RoleOperator, PermOrdersMove, true},
		{domain.RoleOperator, PermOrdersCreate, false},
		{domain.RoleOperator, PermUsersCreate, false},
		{domain.RoleReader, PermOrdersView, true},
		{domain.RoleReader, PermOrdersMove, false},
		{domain.RoleReader, PermReportsSector, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+"/"+string(tc.perm), func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermission(tc.role, tc.perm))
		})
	}
}

func TestHasPermission_UnknownNeverGrants(t *testing.T) {
	assert.False(t, HasPermission(domain.Role("root"), PermUsersCreate))
	assert.False(t, HasPermission(domain.RoleAdmin, Permission("usuarios.tudo")))
	assert.False(t, HasPermission("", ""))
}

func TestHasAnyPermission(t *testing.T) {
	assert.True(t, HasAnyPermission(domain.RoleOperator, PermOrdersDelete, PermOrdersFinalize))
	assert.False(t, HasAnyPermission(domain.RoleReader, PermOrdersMove, PermOrdersFinalize))
	assert.False(t, HasAnyPermission(domain.RoleAdmin))
}

func TestPermissionsFor_Sizes(t *testing.T) {
	assert.Len(t, PermissionsFor(domain.RoleAdmin), 22)
	assert.Len(t, PermissionsFor(domain.RoleSupervisor), 10)
	assert.Len(t, PermissionsFor(domain.RoleOperator), 4)
	assert.Len(t, PermissionsFor(domain.RoleReader), 3)
	assert.Empty(t, PermissionsFor("ghost"))

	perms := PermissionsFor(domain.RoleReader)
	assert.Equal(t, []Permission{PermClientsView, PermOrdersView, PermReportsSector}, perms)
}
