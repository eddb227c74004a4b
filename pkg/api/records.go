package api

import (
	"net/http"

	"github.com/platinummonkey/datahub/pkg/audit"
	"github.com/platinummonkey/datahub/pkg/httputil"
	"github.com/platinummonkey/datahub/pkg/lifecycle"
	"github.com/platinummonkey/datahub/pkg/middleware"
)

// FormModeResponse is the body of GET /applications/{id}/form-mode
type FormModeResponse struct {
	ApplicationID string             `json:"applicationId"`
	FormMode      lifecycle.FormMode `json:"formMode"`
}

// getFormMode handles GET /applications/{id}/form-mode. Any authenticated
// user may ask; users who may not see the form get Unauthorized.
func (s *Server) getFormMode(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathStringOrError(w, r, "id")
	if !ok {
		return
	}

	app, err := s.applications.GetApplication(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "application", err)
		return
	}

	user := middleware.GetAuthContext(r).User
	mode := s.classifier.GetFormMode(user, app)
	if s.metrics != nil {
		s.metrics.RecordFormMode(string(mode))
	}

	status := audit.EventStatusSuccess
	if mode == lifecycle.FormModeUnauthorized {
		status = audit.EventStatusDenied
	}
	event := audit.NewEvent(r, audit.EventTypeFormMode, status)
	event.ResourceType = "submission_request"
	event.ResourceID = app.ID
	event.Metadata = map[string]interface{}{
		"form_mode":          string(mode),
		"application_status": string(app.Status),
	}
	s.writeAudit(r, event)

	httputil.WriteSuccess(w, FormModeResponse{ApplicationID: app.ID, FormMode: mode})
}

// getValidationDefaults handles GET /submissions/{id}/validation-defaults
func (s *Server) getValidationDefaults(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathStringOrError(w, r, "id")
	if !ok {
		return
	}

	sub, err := s.submissions.GetSubmission(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "submission", err)
		return
	}

	user := middleware.GetAuthContext(r).User
	defaults := s.resolver.Defaults(sub, user)

	event := audit.NewEvent(r, audit.EventTypeValidationDefaults, audit.EventStatusSuccess)
	event.ResourceType = "data_submission"
	event.ResourceID = sub.ID
	event.Metadata = map[string]interface{}{
		"type":   string(defaults.Type),
		"target": string(defaults.Target),
	}
	s.writeAudit(r, event)

	httputil.WriteSuccess(w, defaults)
}
