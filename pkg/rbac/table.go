package rbac

import (
	"errors"
	"fmt"
	"maps"
)

// RoleTable maps every role to a grant for every permission in the closed set.
// A table is only usable once Validate has passed; sparse tables are rejected
// rather than silently denying the missing cells.
type RoleTable map[Role]map[Permission]Grant

// Grant looks up a single cell
func (t RoleTable) Grant(role Role, perm Permission) (Grant, bool) {
	row, ok := t[role]
	if !ok {
		return Grant{}, false
	}
	g, ok := row[perm]
	return g, ok
}

// Clone returns a copy of the table that shares no rows with t
func (t RoleTable) Clone() RoleTable {
	out := make(RoleTable, len(t))
	for role, row := range t {
		out[role] = maps.Clone(row)
	}
	return out
}

// HasRole reports whether the table defines the role
func (t RoleTable) HasRole(role Role) bool {
	_, ok := t[role]
	return ok
}

// Validate checks that the table is a full matrix: every built-in role must
// define every permission, and no role may define a permission outside the
// closed set. All problems are reported together.
func (t RoleTable) Validate() error {
	var errs []error

	for _, role := range AllRoles() {
		row, ok := t[role]
		if !ok {
			errs = append(errs, fmt.Errorf("role %q is not defined", role))
			continue
		}
		for _, perm := range AllPermissions() {
			if _, ok := row[perm]; !ok {
				errs = append(errs, fmt.Errorf("role %q is missing %s", role, perm))
			}
		}
	}

	for role, row := range t {
		for perm, g := range row {
			if !perm.Known() {
				errs = append(errs, fmt.Errorf("role %q defines unknown permission %s", role, perm))
			}
			if g.kind == GrantDynamic && g.predicate == nil {
				errs = append(errs, fmt.Errorf("role %q has a dynamic grant without predicate for %s", role, perm))
			}
		}
	}

	return errors.Join(errs...)
}

// DefaultRoleTable returns the portal's role table
func DefaultRoleTable() RoleTable {
	deny := Static(false)
	allow := Static(true)

	return RoleTable{
		RoleFederalLead: {
			PermAccessRequest: deny,
			PermDashboardView: allow,

			PermSubmissionRequestView:   allow,
			PermSubmissionRequestCreate: deny,
			PermSubmissionRequestSubmit: deny,
			PermSubmissionRequestReview: allow,
			PermSubmissionRequestCancel: deny,

			PermDataSubmissionView:        allow,
			PermDataSubmissionCreate:      deny,
			PermDataSubmissionReview:      allow,
			PermDataSubmissionAdminSubmit: deny,
			PermDataSubmissionConfirm:     deny,
			PermDataSubmissionCancel:      deny,

			PermUserManage:    deny,
			PermProgramManage: deny,
			PermStudyManage:   deny,
		},
		RoleDataCommonsPersonnel: {
			PermAccessRequest: deny,
			PermDashboardView: allow,

			PermSubmissionRequestView:   allow,
			PermSubmissionRequestCreate: deny,
			PermSubmissionRequestSubmit: deny,
			PermSubmissionRequestReview: deny,
			PermSubmissionRequestCancel: deny,

			PermDataSubmissionView:        allow,
			PermDataSubmissionCreate:      deny,
			PermDataSubmissionReview:      Dynamic(InSubmissionDataCommons),
			PermDataSubmissionAdminSubmit: Dynamic(InSubmissionDataCommons),
			PermDataSubmissionConfirm:     Dynamic(InSubmissionDataCommons),
			PermDataSubmissionCancel:      deny,

			PermUserManage:    deny,
			PermProgramManage: deny,
			PermStudyManage:   deny,
		},
		RoleAdmin: {
			PermAccessRequest: deny,
			PermDashboardView: allow,

			PermSubmissionRequestView:   allow,
			PermSubmissionRequestCreate: deny,
			PermSubmissionRequestSubmit: deny,
			PermSubmissionRequestReview: deny,
			PermSubmissionRequestCancel: allow,

			PermDataSubmissionView:        allow,
			PermDataSubmissionCreate:      deny,
			PermDataSubmissionReview:      allow,
			PermDataSubmissionAdminSubmit: allow,
			PermDataSubmissionConfirm:     allow,
			PermDataSubmissionCancel:      allow,

			PermUserManage:    allow,
			PermProgramManage: allow,
			PermStudyManage:   allow,
		},
		RoleSubmitter: {
			PermAccessRequest: allow,
			PermDashboardView: deny,

			PermSubmissionRequestView:   allow,
			PermSubmissionRequestCreate: allow,
			PermSubmissionRequestSubmit: Dynamic(IsApplicant),
			PermSubmissionRequestReview: deny,
			PermSubmissionRequestCancel: Dynamic(IsApplicant),

			PermDataSubmissionView:        allow,
			PermDataSubmissionCreate:      allow,
			PermDataSubmissionReview:      deny,
			PermDataSubmissionAdminSubmit: deny,
			PermDataSubmissionConfirm:     deny,
			PermDataSubmissionCancel:      Dynamic(IsSubmitterOrEditor),

			PermUserManage:    deny,
			PermProgramManage: deny,
			PermStudyManage:   deny,
		},
		RoleUser: {
			PermAccessRequest: allow,
			PermDashboardView: deny,

			PermSubmissionRequestView:   allow,
			PermSubmissionRequestCreate: allow,
			PermSubmissionRequestSubmit: Dynamic(IsApplicant),
			PermSubmissionRequestReview: deny,
			PermSubmissionRequestCancel: Dynamic(IsApplicant),

			PermDataSubmissionView:        deny,
			PermDataSubmissionCreate:      deny,
			PermDataSubmissionReview:      deny,
			PermDataSubmissionAdminSubmit: deny,
			PermDataSubmissionConfirm:     deny,
			PermDataSubmissionCancel:      deny,

			PermUserManage:    deny,
			PermProgramManage: deny,
			PermStudyManage:   deny,
		},
	}
}

// MustDefaultRoleTable returns the default table and panics if it is not a
// full matrix. It runs once at package init.
func MustDefaultRoleTable() RoleTable {
	t := DefaultRoleTable()
	if err := t.Validate(); err != nil {
		panic(fmt.Sprintf("rbac: invalid default role table: %v", err))
	}
	return t
}

var defaultTable = MustDefaultRoleTable()
