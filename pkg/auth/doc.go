// Package auth holds the identity types shared by the portal's decision code.
//
// A User arrives from the session layer fully populated: its Role names one of
// the portal roles and its Permissions field is the allowlist of
// "resource:action" keys the identity provider granted at sign-in. Nothing in
// this package decides what a user may do; see package rbac for that.
//
//	user := &auth.User{
//		ID:          "c1f0...",
//		Role:        "Submitter",
//		Permissions: []string{"submission_request:view", "submission_request:create"},
//	}
//	user.HasPermissionKey("submission_request:view") // true
//
// AuthContext is what the HTTP middleware stores on the request context once a
// bearer token has been resolved to a user.
package auth
