package audit

import (
	"net/http"

	"github.com/platinummonkey/datahub/pkg/observability"
	"github.com/platinummonkey/datahub/pkg/rbac"
)

// DecisionHook returns an rbac.DecisionHook that records every middleware
// decision. Allowed checks are counted only; denials are also written to
// logger. metrics may be nil.
func DecisionHook(logger Logger, metrics *observability.Metrics) rbac.DecisionHook {
	return func(r *http.Request, decision rbac.Decision) {
		RecordDecision(r, logger, metrics, decision, "")
	}
}

// RecordDecision counts decision and, when it is a denial, writes an
// access-denied event for resourceID.
func RecordDecision(r *http.Request, logger Logger, metrics *observability.Metrics, decision rbac.Decision, resourceID string) {
	resource, action := splitPermission(decision.Permission)
	if metrics != nil {
		metrics.RecordPermissionCheck(resource, action, decision.Allowed)
	}
	if decision.Allowed || logger == nil {
		return
	}

	event := NewEvent(r, EventTypeAccessDenied, EventStatusDenied)
	event.Permission = decision.Permission
	event.Reason = string(decision.Reason)
	event.ResourceType = resource
	event.ResourceID = resourceID

	if err := logger.Log(r.Context(), event); err != nil {
		observability.FromContext(r.Context()).WithError(err).Warn("Failed to write audit event")
	}
}

func splitPermission(key string) (string, string) {
	perm, err := rbac.ParsePermission(key)
	if err != nil {
		return "unknown", "unknown"
	}
	return string(perm.Resource), string(perm.Action)
}
