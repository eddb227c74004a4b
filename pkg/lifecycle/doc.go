// Package lifecycle classifies what a user may do with a submission request
// form given the request's status.
//
// GetFormMode evaluates its rules in order and the first match wins:
//
//  1. no request                                          Unauthorized
//  2. caller lacks view and is not the applicant          Unauthorized
//  3. caller lacks view, create and review and is not
//     the applicant                                       Unauthorized
//  4. caller has review and status is In Review           Review
//  5. caller is the applicant, has create and status is
//     New, In Progress or Inquired                        Edit
//  6. anything else                                       View Only
//
// Rule 3 excludes nothing rule 2 has not already excluded. Both are kept so
// that a later change to either gate stays visible in review.
//
// The classifier only reads status; it never changes it.
package lifecycle
