package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/submissions"
)

// allKeys returns the allowlist key of every permission in the closed set
func allKeys() []string {
	var keys []string
	for _, p := range AllPermissions() {
		keys = append(keys, p.String())
	}
	return keys
}

func newUser(id string, role Role, permissions ...string) *auth.User {
	return &auth.User{ID: id, Role: string(role), Permissions: permissions}
}

func TestHasPermission_AdminDashboardScenario(t *testing.T) {
	user := newUser("admin-1", RoleAdmin, "dashboard:view")
	assert.True(t, HasPermission(user, ResourceDashboard, ActionView, nil))

	user.Permissions = []string{}
	assert.False(t, HasPermission(user, ResourceDashboard, ActionView, nil))
}

func TestHasPermission_FailsClosedOnMissingUser(t *testing.T) {
	for _, perm := range AllPermissions() {
		assert.False(t, HasPermission(nil, perm.Resource, perm.Action, nil), "nil user for %s", perm)
		assert.False(t, HasPermission(&auth.User{Permissions: allKeys()}, perm.Resource, perm.Action, nil), "empty role for %s", perm)
	}

	decision := DefaultEvaluator().Explain(nil, ResourceDashboard, ActionView, nil)
	assert.Equal(t, ReasonNoUser, decision.Reason)
	assert.Equal(t, "dashboard:view", decision.Permission)
}

func TestHasPermission_UnknownInputs(t *testing.T) {
	e := DefaultEvaluator()

	t.Run("unknown role", func(t *testing.T) {
		user := newUser("u", Role("Superuser"), allKeys()...)
		d := e.Explain(user, ResourceDashboard, ActionView, nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonUnknownRole, d.Reason)
	})

	t.Run("unknown resource", func(t *testing.T) {
		user := newUser("u", RoleAdmin, "billing:view")
		d := e.Explain(user, Resource("billing"), ActionView, nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNotModeled, d.Reason)
	})

	t.Run("unknown action", func(t *testing.T) {
		user := newUser("u", RoleAdmin, "dashboard:delete")
		d := e.Explain(user, ResourceDashboard, Action("delete"), nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNotModeled, d.Reason)
	})
}

func TestHasPermission_NoTableGrantMeansDenied(t *testing.T) {
	table := DefaultRoleTable()

	for _, role := range AllRoles() {
		user := newUser("u", role, allKeys()...)
		for _, perm := range AllPermissions() {
			grant, ok := table.Grant(role, perm)
			require.True(t, ok)
			if grant.Kind() == GrantStatic && !grant.allow {
				assert.False(t, HasPermission(user, perm.Resource, perm.Action, nil), "%s should not have %s", role, perm)
				d := DefaultEvaluator().Explain(user, perm.Resource, perm.Action, nil)
				assert.Equal(t, ReasonDeniedByRole, d.Reason)
			}
		}
	}
}

func TestHasPermission_AllowlistIsHardGate(t *testing.T) {
	table := DefaultRoleTable()
	app := &applications.Application{Applicant: &applications.Applicant{ApplicantID: "u"}}
	sub := &submissions.Submission{SubmitterID: "u", DataCommons: "CDS"}

	for _, role := range AllRoles() {
		for _, perm := range AllPermissions() {
			grant, _ := table.Grant(role, perm)

			withKey := newUser("u", role, perm.String())
			withKey.DataCommons = []string{"CDS"}
			withoutKey := newUser("u", role)
			withoutKey.DataCommons = []string{"CDS"}

			var data any
			if perm.Resource == ResourceSubmissionRequest {
				data = app
			} else {
				data = sub
			}

			assert.False(t, HasPermission(withoutKey, perm.Resource, perm.Action, data), "%s without allowlist key %s", role, perm)

			if grant.Kind() == GrantStatic && grant.allow {
				assert.True(t, HasPermission(withKey, perm.Resource, perm.Action, data), "%s with allowlist key %s", role, perm)
			}
		}
	}
}

func TestHasPermission_DynamicGrants(t *testing.T) {
	owner := newUser("owner", RoleSubmitter, "submission_request:submit", "submission_request:cancel", "data_submission:cancel")
	stranger := newUser("stranger", RoleSubmitter, "submission_request:submit", "submission_request:cancel", "data_submission:cancel")
	app := &applications.Application{
		Status:    applications.StatusInProgress,
		Applicant: &applications.Applicant{ApplicantID: "owner"},
	}

	t.Run("requires context", func(t *testing.T) {
		d := DefaultEvaluator().Explain(owner, ResourceSubmissionRequest, ActionSubmit, nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonMissingContext, d.Reason)
	})

	t.Run("owner may submit", func(t *testing.T) {
		assert.True(t, HasPermission(owner, ResourceSubmissionRequest, ActionSubmit, app))
		assert.True(t, HasPermission(owner, ResourceSubmissionRequest, ActionCancel, app))
	})

	t.Run("non owner may not submit", func(t *testing.T) {
		d := DefaultEvaluator().Explain(stranger, ResourceSubmissionRequest, ActionSubmit, app)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonPredicateDenied, d.Reason)
	})

	t.Run("wrong context type denies", func(t *testing.T) {
		assert.False(t, HasPermission(owner, ResourceSubmissionRequest, ActionSubmit, &submissions.Submission{SubmitterID: "owner"}))
		assert.False(t, HasPermission(owner, ResourceSubmissionRequest, ActionSubmit, "owner"))
	})

	t.Run("typed nil context is missing context", func(t *testing.T) {
		var nilApp *applications.Application
		d := DefaultEvaluator().Explain(owner, ResourceSubmissionRequest, ActionSubmit, nilApp)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonMissingContext, d.Reason)

		var nilSub *submissions.Submission
		d = DefaultEvaluator().Explain(owner, ResourceDataSubmission, ActionCancel, nilSub)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonMissingContext, d.Reason)
	})

	t.Run("collaborator with edit rights may cancel submission", func(t *testing.T) {
		sub := &submissions.Submission{
			SubmitterID: "owner",
			Collaborators: []submissions.Collaborator{
				{CollaboratorID: "stranger", Permission: submissions.CollaboratorCanEdit},
			},
		}
		assert.True(t, HasPermission(owner, ResourceDataSubmission, ActionCancel, sub))
		assert.True(t, HasPermission(stranger, ResourceDataSubmission, ActionCancel, sub))

		sub.Collaborators[0].Permission = submissions.CollaboratorCanView
		assert.False(t, HasPermission(stranger, ResourceDataSubmission, ActionCancel, sub))
	})

	t.Run("data commons personnel limited to their data commons", func(t *testing.T) {
		dcp := newUser("dcp", RoleDataCommonsPersonnel, "data_submission:review", "data_submission:confirm")
		dcp.DataCommons = []string{"ICDC"}

		assert.True(t, HasPermission(dcp, ResourceDataSubmission, ActionReview, &submissions.Submission{DataCommons: "ICDC"}))
		assert.True(t, HasPermission(dcp, ResourceDataSubmission, ActionConfirm, &submissions.Submission{DataCommons: "ICDC"}))
		assert.False(t, HasPermission(dcp, ResourceDataSubmission, ActionReview, &submissions.Submission{DataCommons: "CDS"}))
	})
}

func TestNewEvaluator_RejectsSparseTable(t *testing.T) {
	table := DefaultRoleTable()
	delete(table[RoleUser], PermDashboardView)

	e, err := NewEvaluator(table)
	assert.Nil(t, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `role "User" is missing dashboard:view`)
}

func TestNewEvaluator_CustomTable(t *testing.T) {
	table := DefaultRoleTable()
	table[RoleUser][PermDashboardView] = Static(true)

	e, err := NewEvaluator(table)
	require.NoError(t, err)

	user := newUser("u", RoleUser, "dashboard:view")
	assert.True(t, e.HasPermission(user, ResourceDashboard, ActionView, nil))
	assert.False(t, HasPermission(user, ResourceDashboard, ActionView, nil), "default table is unchanged")
}

func TestNewEvaluator_CopiesTable(t *testing.T) {
	table := DefaultRoleTable()
	e, err := NewEvaluator(table)
	require.NoError(t, err)

	user := newUser("u", RoleUser, "user:manage")
	require.False(t, e.HasPermission(user, ResourceUser, ActionManage, nil))

	table[RoleUser][PermUserManage] = Static(true)
	delete(table, RoleAdmin)

	assert.False(t, e.HasPermission(user, ResourceUser, ActionManage, nil))
	admin := newUser("a", RoleAdmin, "user:manage")
	assert.True(t, e.HasPermission(admin, ResourceUser, ActionManage, nil))
}

func TestEvaluator_EffectivePermissions(t *testing.T) {
	e := DefaultEvaluator()
	user := newUser("u", RoleSubmitter, allKeys()...)

	effective := e.EffectivePermissions(user)
	assert.Equal(t, []string{
		"access:request",
		"data_submission:create",
		"data_submission:view",
		"submission_request:create",
		"submission_request:view",
	}, effective)

	conditional := e.ConditionalPermissions(user)
	assert.Equal(t, []string{
		"data_submission:cancel",
		"submission_request:cancel",
		"submission_request:submit",
	}, conditional)

	t.Run("allowlist filters", func(t *testing.T) {
		limited := newUser("u", RoleSubmitter, "submission_request:view", "dashboard:view")
		assert.Equal(t, []string{"submission_request:view"}, e.EffectivePermissions(limited))
	})

	t.Run("nil and unknown users", func(t *testing.T) {
		assert.Empty(t, e.EffectivePermissions(nil))
		assert.Empty(t, e.EffectivePermissions(newUser("u", Role("Ghost"), allKeys()...)))
	})
}
