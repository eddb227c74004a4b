package rbac

import (
	"fmt"
	"strings"
)

// Role represents a portal role assigned to a user
type Role string

const (
	RoleFederalLead          Role = "Federal Lead"
	RoleDataCommonsPersonnel Role = "Data Commons Personnel"
	RoleAdmin                Role = "Admin"
	RoleSubmitter            Role = "Submitter"
	RoleUser                 Role = "User"
)

// AllRoles returns every built-in role in a stable order
func AllRoles() []Role {
	return []Role{
		RoleFederalLead,
		RoleDataCommonsPersonnel,
		RoleAdmin,
		RoleSubmitter,
		RoleUser,
	}
}

// Resource represents a resource type permissions are scoped to
type Resource string

const (
	ResourceAccess            Resource = "access"
	ResourceDashboard         Resource = "dashboard"
	ResourceSubmissionRequest Resource = "submission_request"
	ResourceDataSubmission    Resource = "data_submission"
	ResourceUser              Resource = "user"
	ResourceProgram           Resource = "program"
	ResourceStudy             Resource = "study"
)

// Action represents an action that can be performed on a resource
type Action string

const (
	ActionRequest     Action = "request"
	ActionView        Action = "view"
	ActionCreate      Action = "create"
	ActionSubmit      Action = "submit"
	ActionReview      Action = "review"
	ActionCancel      Action = "cancel"
	ActionAdminSubmit Action = "admin_submit"
	ActionConfirm     Action = "confirm"
	ActionManage      Action = "manage"
)

// resourceActions is the closed set of actions defined for each resource.
var resourceActions = map[Resource][]Action{
	ResourceAccess:            {ActionRequest},
	ResourceDashboard:         {ActionView},
	ResourceSubmissionRequest: {ActionView, ActionCreate, ActionSubmit, ActionReview, ActionCancel},
	ResourceDataSubmission:    {ActionView, ActionCreate, ActionReview, ActionAdminSubmit, ActionConfirm, ActionCancel},
	ResourceUser:              {ActionManage},
	ResourceProgram:           {ActionManage},
	ResourceStudy:             {ActionManage},
}

// resourceOrder fixes the iteration order used by AllPermissions
var resourceOrder = []Resource{
	ResourceAccess,
	ResourceDashboard,
	ResourceSubmissionRequest,
	ResourceDataSubmission,
	ResourceUser,
	ResourceProgram,
	ResourceStudy,
}

// Actions returns the actions defined for a resource, or nil if it is unknown
func (r Resource) Actions() []Action {
	actions := resourceActions[r]
	if actions == nil {
		return nil
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Permission represents a specific permission (resource + action)
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// String returns the allowlist key of the permission, "resource:action"
func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// Known reports whether the permission belongs to the closed permission set
func (p Permission) Known() bool {
	for _, a := range resourceActions[p.Resource] {
		if a == p.Action {
			return true
		}
	}
	return false
}

// ParsePermission parses a "resource:action" key. Keys outside the closed
// permission set are rejected.
func ParsePermission(key string) (Permission, error) {
	resource, action, ok := strings.Cut(key, ":")
	if !ok || resource == "" || action == "" {
		return Permission{}, fmt.Errorf("invalid permission key %q: expected resource:action", key)
	}
	p := Permission{Resource: Resource(resource), Action: Action(action)}
	if !p.Known() {
		return Permission{}, fmt.Errorf("unknown permission %q", key)
	}
	return p, nil
}

// AllPermissions enumerates the closed permission set in a stable order
func AllPermissions() []Permission {
	var perms []Permission
	for _, r := range resourceOrder {
		for _, a := range resourceActions[r] {
			perms = append(perms, Permission{Resource: r, Action: a})
		}
	}
	return perms
}

// Permissions used by the default role table
var (
	PermAccessRequest = Permission{ResourceAccess, ActionRequest}
	PermDashboardView = Permission{ResourceDashboard, ActionView}

	PermSubmissionRequestView   = Permission{ResourceSubmissionRequest, ActionView}
	PermSubmissionRequestCreate = Permission{ResourceSubmissionRequest, ActionCreate}
	PermSubmissionRequestSubmit = Permission{ResourceSubmissionRequest, ActionSubmit}
	PermSubmissionRequestReview = Permission{ResourceSubmissionRequest, ActionReview}
	PermSubmissionRequestCancel = Permission{ResourceSubmissionRequest, ActionCancel}

	PermDataSubmissionView        = Permission{ResourceDataSubmission, ActionView}
	PermDataSubmissionCreate      = Permission{ResourceDataSubmission, ActionCreate}
	PermDataSubmissionReview      = Permission{ResourceDataSubmission, ActionReview}
	PermDataSubmissionAdminSubmit = Permission{ResourceDataSubmission, ActionAdminSubmit}
	PermDataSubmissionConfirm     = Permission{ResourceDataSubmission, ActionConfirm}
	PermDataSubmissionCancel      = Permission{ResourceDataSubmission, ActionCancel}

	PermUserManage    = Permission{ResourceUser, ActionManage}
	PermProgramManage = Permission{ResourceProgram, ActionManage}
	PermStudyManage   = Permission{ResourceStudy, ActionManage}
)

// DecisionReason explains the outcome of a permission evaluation
type DecisionReason string

const (
	ReasonNoUser          DecisionReason = "no user"
	ReasonUnknownRole     DecisionReason = "unknown role"
	ReasonNotModeled      DecisionReason = "not modeled"
	ReasonNotInAllowlist  DecisionReason = "not in allowlist"
	ReasonDeniedByRole    DecisionReason = "denied by role"
	ReasonMissingContext  DecisionReason = "missing context"
	ReasonPredicateDenied DecisionReason = "predicate denied"
	ReasonGranted         DecisionReason = "granted"
)

// Decision is the result of a permission evaluation
type Decision struct {
	Permission string         `json:"permission"`
	Allowed    bool           `json:"allowed"`
	Reason     DecisionReason `json:"reason"`
}
