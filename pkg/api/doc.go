// Package api serves the datahub authorization API.
//
// # Endpoints
//
//	GET  /api/v1/me/permissions                        caller's effective permissions
//	GET  /api/v1/users/{id}/permissions                another user's (user:manage)
//	POST /api/v1/authz/check                           one decision, optionally against a record
//	GET  /api/v1/applications                          page of submission requests
//	GET  /api/v1/applications/{id}/form-mode           how the caller may open the form
//	GET  /api/v1/submissions                           page of data submissions
//	GET  /api/v1/submissions/{id}/validation-defaults  preselected validation options
//
// Every /api/v1 route requires a bearer session token.
//
// # Lists
//
// List endpoints read first, offset, sortDirection and orderBy from the query
// string, plus an optional status filter:
//
//	GET /api/v1/applications?first=10&offset=20&sortDirection=asc&orderBy=studyName&status=In+Review
//
// Pages are cached briefly. ?force=true or Cache-Control: no-cache skips the
// cache and replaces the cached page.
//
// # Check
//
//	POST /api/v1/authz/check
//	{"resource": "submission_request", "action": "submit", "applicationId": "app-1"}
//
//	{"permission": "submission_request:submit", "allowed": true, "reason": "granted"}
package api
