package rbac

import (
	"fmt"
	"sort"

	"github.com/platinummonkey/datahub/pkg/auth"
)

// Checker answers whether a user may perform an action on a resource
type Checker interface {
	// HasPermission reports whether the user may perform the action.
	// data is the record being acted on, or nil when there is none.
	HasPermission(user *auth.User, resource Resource, action Action, data any) bool

	// Explain is HasPermission with the reason for the outcome
	Explain(user *auth.User, resource Resource, action Action, data any) Decision
}

// Evaluator implements Checker over a validated RoleTable.
//
// A permission is usable only when the role table grants it to the user's
// role AND its key is present in the user's allowlist. Every missing input
// resolves to a denial; evaluation never panics and has no side effects.
type Evaluator struct {
	table RoleTable
}

// NewEvaluator creates an evaluator over a copy of table after validating it.
// Later changes to table do not affect the evaluator.
func NewEvaluator(table RoleTable) (*Evaluator, error) {
	own := table.Clone()
	if err := own.Validate(); err != nil {
		return nil, fmt.Errorf("invalid role table: %w", err)
	}
	return &Evaluator{table: own}, nil
}

var defaultEvaluator = &Evaluator{table: defaultTable}

// DefaultEvaluator returns the evaluator over the default role table
func DefaultEvaluator() *Evaluator {
	return defaultEvaluator
}

// HasPermission evaluates a permission with the default evaluator
func HasPermission(user *auth.User, resource Resource, action Action, data any) bool {
	return defaultEvaluator.HasPermission(user, resource, action, data)
}

// HasPermission reports whether user may perform action on resource
func (e *Evaluator) HasPermission(user *auth.User, resource Resource, action Action, data any) bool {
	return e.Explain(user, resource, action, data).Allowed
}

// Explain evaluates a permission and reports why it was allowed or denied
func (e *Evaluator) Explain(user *auth.User, resource Resource, action Action, data any) Decision {
	perm := Permission{Resource: resource, Action: action}
	decision := Decision{Permission: perm.String()}

	if user == nil || user.Role == "" {
		decision.Reason = ReasonNoUser
		return decision
	}

	role := Role(user.Role)
	if !e.table.HasRole(role) {
		decision.Reason = ReasonUnknownRole
		return decision
	}

	grant, ok := e.table.Grant(role, perm)
	if !ok {
		decision.Reason = ReasonNotModeled
		return decision
	}

	// The allowlist gates every grant, static or dynamic
	if !user.HasPermissionKey(perm.String()) {
		decision.Reason = ReasonNotInAllowlist
		return decision
	}

	decision.Allowed, decision.Reason = grant.evaluate(user, data, hasContext(data))
	return decision
}

// EffectivePermissions returns the sorted permission keys the user can use
// without a context record: statically granted and present in the allowlist.
func (e *Evaluator) EffectivePermissions(user *auth.User) []string {
	return e.collect(user, func(g Grant) bool {
		return g.kind == GrantStatic && g.allow
	})
}

// ConditionalPermissions returns the sorted permission keys the user holds
// subject to a predicate over a specific record.
func (e *Evaluator) ConditionalPermissions(user *auth.User) []string {
	return e.collect(user, func(g Grant) bool {
		return g.kind == GrantDynamic
	})
}

func (e *Evaluator) collect(user *auth.User, match func(Grant) bool) []string {
	keys := []string{}
	if user == nil {
		return keys
	}

	row, ok := e.table[Role(user.Role)]
	if !ok {
		return keys
	}

	for perm, grant := range row {
		if match(grant) && user.HasPermissionKey(perm.String()) {
			keys = append(keys, perm.String())
		}
	}

	sort.Strings(keys)
	return keys
}
