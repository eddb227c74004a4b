package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermission_String(t *testing.T) {
	assert.Equal(t, "data_submission:admin_submit", PermDataSubmissionAdminSubmit.String())
	assert.Equal(t, "access:request", PermAccessRequest.String())
}

func TestParsePermission(t *testing.T) {
	tests := []struct {
		key     string
		want    Permission
		wantErr bool
	}{
		{key: "dashboard:view", want: PermDashboardView},
		{key: "submission_request:review", want: PermSubmissionRequestReview},
		{key: "dashboard", wantErr: true},
		{key: ":view", wantErr: true},
		{key: "dashboard:", wantErr: true},
		{key: "dashboard:manage", wantErr: true},
		{key: "billing:view", wantErr: true},
		{key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParsePermission(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllPermissions(t *testing.T) {
	perms := AllPermissions()
	assert.Len(t, perms, 16)

	seen := make(map[string]bool)
	for _, p := range perms {
		assert.True(t, p.Known())
		assert.False(t, seen[p.String()], "duplicate permission %s", p)
		seen[p.String()] = true
	}

	assert.Equal(t, PermAccessRequest, perms[0])
}

func TestResource_Actions(t *testing.T) {
	assert.Equal(t, []Action{ActionView}, ResourceDashboard.Actions())
	assert.Nil(t, Resource("billing").Actions())

	actions := ResourceUser.Actions()
	actions[0] = ActionView
	assert.Equal(t, []Action{ActionManage}, ResourceUser.Actions(), "returned slice must be a copy")
}

func TestGrantKind_String(t *testing.T) {
	assert.Equal(t, "static", Static(true).Kind().String())
	assert.Equal(t, "dynamic", Dynamic(IsApplicant).Kind().String())
	assert.Equal(t, "unknown", GrantKind(9).String())
}
