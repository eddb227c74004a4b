// Package validation picks the validation run a user is offered for a data
// submission.
//
// # Type
//
// A run validates metadata, data files, or both:
//
//	validation.GetDefaultValidationType(sub, user)  // "metadata", "file" or "All"
//
// Reviewers looking at a submitted submission with both tracks uploaded get
// "All". Everyone else gets the first track that has been uploaded, metadata
// first, and "metadata" when nothing has been uploaded yet.
//
// # Target
//
//	validation.GetDefaultValidationTarget(sub, user)  // "New" or "All"
//
// Reviewers re-validate everything once a submission is submitted. Otherwise
// only newly uploaded data is validated.
//
// # Expansion
//
// GetValidationTypes turns a selection into the tracks to run. Anything other
// than "metadata" or "file", including the empty string, runs both.
package validation
