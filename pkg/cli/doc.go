// Package cli implements the datahub command-line client.
//
// Every command talks to a running datahub API with a session token taken
// from -token or DATAHUB_TOKEN; -server (or DATAHUB_URL) picks the API.
//
// # Permissions
//
//	datahub-cli permissions
//	datahub-cli permissions -user 1b2c...       # needs user:manage
//	datahub-cli check -permission submission_request:submit -application app-1
//
// # Records
//
//	datahub-cli form-mode -application app-1
//	datahub-cli validation-defaults -submission sub-1
//
// # Lists
//
//	datahub-cli applications -first 20 -order-by studyName -direction asc
//	datahub-cli submissions -status Submitted -force
//
// With -browse the list is interactive: n and p page, s sorts, f filters by
// status once typing pauses, r refreshes, and q quits.
package cli
