package lifecycle

import (
	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/rbac"
)

// FormMode is what the caller may do with a submission request form
type FormMode string

const (
	FormModeUnauthorized FormMode = "Unauthorized"
	FormModeEdit         FormMode = "Edit"
	FormModeViewOnly     FormMode = "View Only"
	FormModeReview       FormMode = "Review"
)

// AllFormModes returns every form mode
func AllFormModes() []FormMode {
	return []FormMode{FormModeUnauthorized, FormModeEdit, FormModeViewOnly, FormModeReview}
}

// CanEdit reports whether the form accepts changes from the caller
func (m FormMode) CanEdit() bool {
	return m == FormModeEdit
}

// CanReview reports whether the caller may approve, reject or inquire
func (m FormMode) CanReview() bool {
	return m == FormModeReview
}

// CanView reports whether the caller may see the form at all
func (m FormMode) CanView() bool {
	return m == FormModeEdit || m == FormModeViewOnly || m == FormModeReview
}

// editStatuses are the statuses an applicant can still change
var editStatuses = map[applications.Status]bool{
	applications.StatusNew:        true,
	applications.StatusInProgress: true,
	applications.StatusInquired:   true,
}

// reviewStatuses are the statuses a reviewer can act on
var reviewStatuses = map[applications.Status]bool{
	applications.StatusInReview: true,
}

// IsEditStatus reports whether an applicant may still change a request in status s
func IsEditStatus(s applications.Status) bool {
	return editStatuses[s]
}

// IsReviewStatus reports whether a reviewer may act on a request in status s
func IsReviewStatus(s applications.Status) bool {
	return reviewStatuses[s]
}

// Classifier derives form modes using a permission checker
type Classifier struct {
	checker rbac.Checker
}

// NewClassifier creates a classifier. A nil checker uses the default evaluator.
func NewClassifier(checker rbac.Checker) *Classifier {
	if checker == nil {
		checker = rbac.DefaultEvaluator()
	}
	return &Classifier{checker: checker}
}

var defaultClassifier = NewClassifier(nil)

// GetFormMode classifies app for user with the default evaluator
func GetFormMode(user *auth.User, app *applications.Application) FormMode {
	return defaultClassifier.GetFormMode(user, app)
}

// GetFormMode returns the form mode of app for user
func (c *Classifier) GetFormMode(user *auth.User, app *applications.Application) FormMode {
	if app == nil {
		return FormModeUnauthorized
	}

	var userID string
	if user != nil {
		userID = user.ID
	}
	isOwner := app.IsOwnedBy(userID)

	// Capability checks are context-free: the static table cells decide
	// view, create and review for submission requests.
	canView := c.can(user, rbac.ActionView)
	canCreate := c.can(user, rbac.ActionCreate)
	canReview := c.can(user, rbac.ActionReview)

	if !canView && !isOwner {
		return FormModeUnauthorized
	}
	if !canView && !canCreate && !canReview && !isOwner {
		return FormModeUnauthorized
	}

	if canReview && IsReviewStatus(app.Status) {
		return FormModeReview
	}
	if isOwner && canCreate && IsEditStatus(app.Status) {
		return FormModeEdit
	}

	return FormModeViewOnly
}

func (c *Classifier) can(user *auth.User, action rbac.Action) bool {
	return c.checker.HasPermission(user, rbac.ResourceSubmissionRequest, action, nil)
}
