package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/platinummonkey/datahub/pkg/contextkeys"
	"github.com/platinummonkey/datahub/pkg/middleware"
)

// EventType is the category of an audit event
type EventType string

const (
	EventTypePermissionCheck    EventType = "authz.permission_check"
	EventTypeAccessDenied       EventType = "authz.access_denied"
	EventTypeFormMode           EventType = "lifecycle.form_mode"
	EventTypeValidationDefaults EventType = "validation.defaults"
	EventTypeRateLimited        EventType = "http.rate_limited"
)

// EventStatus is the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusDenied  EventStatus = "denied"
	EventStatusFailure EventStatus = "failure"
)

// Event is one audit log entry
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`

	// What was decided
	Permission   string `json:"permission,omitempty"`
	Reason       string `json:"reason,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`

	// Request
	RequestID string `json:"request_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`

	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent builds an event carrying the actor and request details of r.
// r may be nil for events raised outside a request.
func NewEvent(r *http.Request, eventType EventType, status EventStatus) *Event {
	event := &Event{
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Status:    status,
	}
	if r == nil {
		return event
	}

	event.Method = r.Method
	event.Path = r.URL.Path
	event.IPAddress = middleware.ClientIP(r)
	event.fillFromContext(r.Context())
	return event
}

func (e *Event) fillFromContext(ctx context.Context) {
	e.RequestID = contextkeys.GetRequestID(ctx)
	if authCtx := middleware.AuthContextFrom(ctx); authCtx.IsAuthenticated() {
		e.UserID = authCtx.User.ID
		e.Role = authCtx.User.Role
	}
}
