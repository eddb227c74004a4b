package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoleTable_IsFullMatrix(t *testing.T) {
	table := DefaultRoleTable()
	require.NoError(t, table.Validate())

	for _, role := range AllRoles() {
		assert.Len(t, table[role], len(AllPermissions()), "role %s", role)
	}
}

func TestRoleTable_Validate(t *testing.T) {
	t.Run("missing role", func(t *testing.T) {
		table := DefaultRoleTable()
		delete(table, RoleFederalLead)
		err := table.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `role "Federal Lead" is not defined`)
	})

	t.Run("reports every missing cell", func(t *testing.T) {
		table := DefaultRoleTable()
		delete(table[RoleAdmin], PermUserManage)
		delete(table[RoleSubmitter], PermStudyManage)
		err := table.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user:manage")
		assert.Contains(t, err.Error(), "study:manage")
	})

	t.Run("unknown permission", func(t *testing.T) {
		table := DefaultRoleTable()
		table[RoleAdmin][Permission{Resource: "dashboard", Action: "delete"}] = Static(true)
		err := table.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown permission dashboard:delete")
	})

	t.Run("dynamic grant without predicate", func(t *testing.T) {
		table := DefaultRoleTable()
		table[RoleAdmin][PermDashboardView] = Dynamic(nil)
		err := table.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "without predicate")
	})
}

func TestDefaultRoleTable_Capabilities(t *testing.T) {
	table := DefaultRoleTable()

	tests := []struct {
		role Role
		perm Permission
		kind GrantKind
		want bool
	}{
		{RoleFederalLead, PermSubmissionRequestReview, GrantStatic, true},
		{RoleFederalLead, PermSubmissionRequestCreate, GrantStatic, false},
		{RoleAdmin, PermUserManage, GrantStatic, true},
		{RoleAdmin, PermSubmissionRequestReview, GrantStatic, false},
		{RoleSubmitter, PermSubmissionRequestCreate, GrantStatic, true},
		{RoleSubmitter, PermDashboardView, GrantStatic, false},
		{RoleUser, PermDataSubmissionView, GrantStatic, false},
		{RoleUser, PermAccessRequest, GrantStatic, true},
		{RoleSubmitter, PermSubmissionRequestSubmit, GrantDynamic, false},
		{RoleDataCommonsPersonnel, PermDataSubmissionReview, GrantDynamic, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+" "+tt.perm.String(), func(t *testing.T) {
			g, ok := table.Grant(tt.role, tt.perm)
			require.True(t, ok)
			assert.Equal(t, tt.kind, g.Kind())
			if tt.kind == GrantStatic {
				assert.Equal(t, tt.want, g.allow)
			}
		})
	}
}

func TestRoleTable_Grant_UnknownRole(t *testing.T) {
	_, ok := DefaultRoleTable().Grant(Role("nobody"), PermDashboardView)
	assert.False(t, ok)
}
