package validation

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/rbac"
	"github.com/platinummonkey/datahub/pkg/submissions"
)

// Type selects which validation tracks run
type Type string

const (
	TypeMetadata Type = "metadata"
	TypeFile     Type = "file"
	TypeAll      Type = "All"
)

// Target selects which uploaded data a run covers
type Target string

const (
	TargetNew Target = "New"
	TargetAll Target = "All"
)

// ParseValidationType parses request input. Matching is case-insensitive.
func ParseValidationType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "metadata":
		return TypeMetadata, nil
	case "file":
		return TypeFile, nil
	case "all":
		return TypeAll, nil
	default:
		return "", fmt.Errorf("invalid validation type %q", s)
	}
}

// ParseValidationTarget parses request input. Matching is case-insensitive.
func ParseValidationTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return TargetNew, nil
	case "all":
		return TargetAll, nil
	default:
		return "", fmt.Errorf("invalid validation target %q", s)
	}
}

// Defaults bundles the values offered when a user opens the validation dialog
type Defaults struct {
	Type   Type     `json:"type"`
	Target Target   `json:"target"`
	Types  []string `json:"types"`
}

// Resolver computes validation defaults with a permission checker
type Resolver struct {
	checker rbac.Checker
}

// NewResolver creates a resolver. A nil checker uses the default evaluator.
func NewResolver(checker rbac.Checker) *Resolver {
	if checker == nil {
		checker = rbac.DefaultEvaluator()
	}
	return &Resolver{checker: checker}
}

var defaultResolver = NewResolver(nil)

// GetDefaultValidationType returns the default type using the default evaluator
func GetDefaultValidationType(sub *submissions.Submission, user *auth.User) Type {
	return defaultResolver.GetDefaultValidationType(sub, user)
}

// GetDefaultValidationTarget returns the default target using the default evaluator
func GetDefaultValidationTarget(sub *submissions.Submission, user *auth.User) Target {
	return defaultResolver.GetDefaultValidationTarget(sub, user)
}

// GetDefaults returns all defaults using the default evaluator
func GetDefaults(sub *submissions.Submission, user *auth.User) Defaults {
	return defaultResolver.Defaults(sub, user)
}

// isReviewer reports whether user may review this submitted submission
func (r *Resolver) isReviewer(sub *submissions.Submission, user *auth.User) bool {
	return sub.Status == submissions.StatusSubmitted &&
		r.checker.HasPermission(user, rbac.ResourceDataSubmission, rbac.ActionReview, sub)
}

// GetDefaultValidationType returns the type preselected for sub
func (r *Resolver) GetDefaultValidationType(sub *submissions.Submission, user *auth.User) Type {
	if sub == nil {
		return TypeMetadata
	}

	hasMetadata := sub.MetadataValidationStatus != nil
	hasFiles := sub.FileValidationStatus != nil

	if hasMetadata && hasFiles && r.isReviewer(sub, user) {
		return TypeAll
	}
	if hasMetadata {
		return TypeMetadata
	}
	if hasFiles {
		return TypeFile
	}
	return TypeMetadata
}

// GetDefaultValidationTarget returns the target preselected for sub
func (r *Resolver) GetDefaultValidationTarget(sub *submissions.Submission, user *auth.User) Target {
	if sub == nil {
		return TargetNew
	}
	if r.isReviewer(sub, user) {
		return TargetAll
	}
	return TargetNew
}

// Defaults returns the type and target for sub and the tracks the type expands to
func (r *Resolver) Defaults(sub *submissions.Submission, user *auth.User) Defaults {
	t := r.GetDefaultValidationType(sub, user)
	return Defaults{
		Type:   t,
		Target: r.GetDefaultValidationTarget(sub, user),
		Types:  GetValidationTypes(string(t)),
	}
}

// GetValidationTypes expands a selection into the tracks to run
func GetValidationTypes(selection string) []string {
	switch Type(selection) {
	case TypeMetadata:
		return []string{string(TypeMetadata)}
	case TypeFile:
		return []string{string(TypeFile)}
	default:
		return []string{string(TypeMetadata), string(TypeFile)}
	}
}
