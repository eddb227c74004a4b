package api

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/datahub/pkg/audit"
	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/httputil"
	"github.com/platinummonkey/datahub/pkg/middleware"
	"github.com/platinummonkey/datahub/pkg/observability"
	"github.com/platinummonkey/datahub/pkg/rbac"
)

// PermissionsResponse lists what a user may do. Conditional permissions are
// granted only against records that satisfy the role's predicate.
type PermissionsResponse struct {
	UserID      string   `json:"userId"`
	Role        string   `json:"role"`
	Effective   []string `json:"effective"`
	Conditional []string `json:"conditional"`
}

// CheckRequest is the body of POST /authz/check. At most one record id may be set.
type CheckRequest struct {
	Resource      string `json:"resource"`
	Action        string `json:"action"`
	ApplicationID string `json:"applicationId,omitempty"`
	SubmissionID  string `json:"submissionId,omitempty"`
}

func (s *Server) permissionsFor(user *auth.User) PermissionsResponse {
	resp := PermissionsResponse{
		UserID:      user.ID,
		Role:        user.Role,
		Effective:   s.evaluator.EffectivePermissions(user),
		Conditional: s.evaluator.ConditionalPermissions(user),
	}
	if resp.Effective == nil {
		resp.Effective = []string{}
	}
	if resp.Conditional == nil {
		resp.Conditional = []string{}
	}
	return resp
}

// getMyPermissions handles GET /me/permissions
func (s *Server) getMyPermissions(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	httputil.WriteSuccess(w, s.permissionsFor(authCtx.User))
}

// getUserPermissions handles GET /users/{id}/permissions
func (s *Server) getUserPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathStringOrError(w, r, "id")
	if !ok {
		return
	}

	user, err := s.users.GetUser(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "user", err)
		return
	}
	httputil.WriteSuccess(w, s.permissionsFor(user))
}

// checkPermission handles POST /authz/check
func (s *Server) checkPermission(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	missing := make(map[string]string)
	if req.Resource == "" {
		missing["resource"] = "required"
	}
	if req.Action == "" {
		missing["action"] = "required"
	}
	if len(missing) > 0 {
		httputil.WriteDetailedError(w, http.StatusBadRequest, "resource and action are required", missing)
		return
	}
	if req.ApplicationID != "" && req.SubmissionID != "" {
		httputil.WriteBadRequest(w, "only one of applicationId and submissionId may be set")
		return
	}

	ctx, span := observability.StartSpan(r.Context(), "authz.check",
		attribute.String("authz.resource", req.Resource),
		attribute.String("authz.action", req.Action),
	)
	defer span.End()

	var (
		data       any
		resourceID string
	)
	switch {
	case req.ApplicationID != "":
		app, err := s.applications.GetApplication(ctx, req.ApplicationID)
		if err != nil {
			observability.FailSpan(span, err)
			s.writeStoreError(w, r, "application", err)
			return
		}
		data, resourceID = app, app.ID
	case req.SubmissionID != "":
		sub, err := s.submissions.GetSubmission(ctx, req.SubmissionID)
		if err != nil {
			observability.FailSpan(span, err)
			s.writeStoreError(w, r, "submission", err)
			return
		}
		data, resourceID = sub, sub.ID
	}

	user := middleware.GetAuthContext(r).User
	decision := s.evaluator.Explain(user, rbac.Resource(req.Resource), rbac.Action(req.Action), data)
	span.SetAttributes(
		attribute.Bool("authz.allowed", decision.Allowed),
		attribute.String("authz.reason", string(decision.Reason)),
	)

	audit.RecordDecision(r, s.audit, s.metrics, decision, resourceID)
	if decision.Allowed {
		event := audit.NewEvent(r, audit.EventTypePermissionCheck, audit.EventStatusSuccess)
		event.Permission = decision.Permission
		event.Reason = string(decision.Reason)
		event.ResourceType = req.Resource
		event.ResourceID = resourceID
		s.writeAudit(r, event)
	}

	httputil.WriteSuccess(w, decision)
}
