// Package rbac decides what a portal user may do.
//
// # Overview
//
// Authorization is two gates joined with AND:
//
//  1. The role table says what a role is capable of. It is a full matrix:
//     every role defines a grant for every permission in the closed set.
//  2. The user's allowlist (auth.User.Permissions) says what this user has
//     currently been granted, as "resource:action" keys.
//
// A permission the table grants but the allowlist omits is denied, and so is
// a key in the allowlist the role table does not grant.
//
// # Resources and Actions
//
//	access              request
//	dashboard           view
//	submission_request  view, create, submit, review, cancel
//	data_submission     view, create, review, admin_submit, confirm, cancel
//	user                manage
//	program             manage
//	study               manage
//
// # Grants
//
// A table cell holds a Grant, which is one of two variants:
//
//	rbac.Static(true)               // always allowed
//	rbac.Dynamic(rbac.IsApplicant)  // decided against the record being acted on
//
// Dynamic grants need a context record. Without one they deny:
//
//	rbac.HasPermission(user, rbac.ResourceSubmissionRequest, rbac.ActionSubmit, nil)  // false
//	rbac.HasPermission(user, rbac.ResourceSubmissionRequest, rbac.ActionSubmit, app)  // owner check
//
// # Fail Closed
//
// A nil user, an empty or unknown role, an unknown resource or action, and a
// missing allowlist key all evaluate to false. Explain reports which of these
// applied.
//
// # Startup Validation
//
// The default table is validated when the package is initialized; a table
// missing a cell panics at startup instead of denying silently at runtime.
// Custom tables go through NewEvaluator, which returns the validation error.
//
// # HTTP Middleware
//
//	pm := rbac.NewPermissionMiddleware(rbac.DefaultEvaluator(), nil)
//	router.Handle("/dashboard", pm.RequirePermission(rbac.ResourceDashboard, rbac.ActionView)(handler))
package rbac
