package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/audit"
	"github.com/platinummonkey/datahub/pkg/httputil"
	"github.com/platinummonkey/datahub/pkg/lifecycle"
	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/middleware"
	"github.com/platinummonkey/datahub/pkg/observability"
	"github.com/platinummonkey/datahub/pkg/rbac"
	"github.com/platinummonkey/datahub/pkg/store"
	"github.com/platinummonkey/datahub/pkg/submissions"
	"github.com/platinummonkey/datahub/pkg/validation"
)

// ApplicationReader is the application store as the API uses it
type ApplicationReader interface {
	GetApplication(ctx context.Context, id string) (*applications.Application, error)
	ListApplications(ctx context.Context, filter store.Filter, d listing.FetchDescriptor) (listing.Page[*applications.Application], error)
}

// SubmissionReader is the submission store as the API uses it
type SubmissionReader interface {
	GetSubmission(ctx context.Context, id string) (*submissions.Submission, error)
	ListSubmissions(ctx context.Context, filter store.Filter, d listing.FetchDescriptor) (listing.Page[*submissions.Submission], error)
}

// Options wires a Server. Sessions, Users, Applications and Submissions are
// required; the rest may be left zero.
type Options struct {
	Sessions     middleware.SessionResolver
	Users        store.UserGetter
	Applications ApplicationReader
	Submissions  SubmissionReader

	// Evaluator defaults to rbac.DefaultEvaluator()
	Evaluator *rbac.Evaluator
	// RateLimit is skipped when nil
	RateLimit *middleware.RateLimitMiddleware
	Audit     audit.Logger
	Metrics   *observability.Metrics
	Logger    *observability.Logger

	ListCacheSize int
	ListCacheTTL  time.Duration
}

// Server is the API http.Handler
type Server struct {
	router  *mux.Router
	handler http.Handler

	users        store.UserGetter
	applications ApplicationReader
	submissions  SubmissionReader

	evaluator  *rbac.Evaluator
	classifier *lifecycle.Classifier
	resolver   *validation.Resolver
	perms      *rbac.PermissionMiddleware

	audit   audit.Logger
	metrics *observability.Metrics
	logger  *observability.Logger

	applicationPages *pageCache[*applications.Application]
	submissionPages  *pageCache[*submissions.Submission]
}

// NewServer creates the API server and its routes
func NewServer(opts Options) *Server {
	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = rbac.DefaultEvaluator()
	}
	auditLogger := opts.Audit
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		router:           mux.NewRouter(),
		users:            opts.Users,
		applications:     opts.Applications,
		submissions:      opts.Submissions,
		evaluator:        evaluator,
		classifier:       lifecycle.NewClassifier(evaluator),
		resolver:         validation.NewResolver(evaluator),
		perms:            rbac.NewPermissionMiddleware(evaluator, audit.DecisionHook(auditLogger, opts.Metrics)),
		audit:            auditLogger,
		metrics:          opts.Metrics,
		logger:           logger,
		applicationPages: newPageCache[*applications.Application](opts.ListCacheSize, opts.ListCacheTTL),
		submissionPages:  newPageCache[*submissions.Submission](opts.ListCacheSize, opts.ListCacheTTL),
	}

	if opts.RateLimit != nil {
		opts.RateLimit.SetOnLimited(s.onRateLimited)
	}

	s.setupRoutes(middleware.NewAuthMiddleware(opts.Sessions, false), opts.RateLimit)

	s.handler = httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.MaxBytesMiddleware(httputil.MaxBodyBytes),
	)(otelhttp.NewHandler(s.router, "datahub-api"))

	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(authn *middleware.AuthMiddleware, limiter *middleware.RateLimitMiddleware) {
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	if limiter != nil {
		v1.Use(limiter.ClientHandler)
	}
	v1.Use(authn.Handler)
	if limiter != nil {
		v1.Use(limiter.Handler)
	}

	// Permissions
	v1.HandleFunc("/me/permissions", s.getMyPermissions).Methods(http.MethodGet)
	v1.Handle("/users/{id}/permissions",
		s.perms.RequirePermission(rbac.ResourceUser, rbac.ActionManage)(http.HandlerFunc(s.getUserPermissions)),
	).Methods(http.MethodGet)
	v1.HandleFunc("/authz/check", s.checkPermission).Methods(http.MethodPost)

	// Submission requests
	v1.Handle("/applications",
		s.perms.RequirePermission(rbac.ResourceSubmissionRequest, rbac.ActionView)(http.HandlerFunc(s.listApplications)),
	).Methods(http.MethodGet)
	v1.HandleFunc("/applications/{id}/form-mode", s.getFormMode).Methods(http.MethodGet)

	// Data submissions
	v1.Handle("/submissions",
		s.perms.RequirePermission(rbac.ResourceDataSubmission, rbac.ActionView)(http.HandlerFunc(s.listSubmissions)),
	).Methods(http.MethodGet)
	v1.Handle("/submissions/{id}/validation-defaults",
		s.perms.RequireAnyPermission(
			rbac.PermDataSubmissionView,
			rbac.PermDataSubmissionReview,
		)(http.HandlerFunc(s.getValidationDefaults)),
	).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "route not found")
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) onRateLimited(r *http.Request, kind string) {
	if s.metrics != nil {
		s.metrics.RateLimitedTotal.WithLabelValues(kind).Inc()
	}
	event := audit.NewEvent(r, audit.EventTypeRateLimited, audit.EventStatusDenied)
	event.Metadata = map[string]interface{}{"kind": kind}
	s.writeAudit(r, event)
}

func (s *Server) writeAudit(r *http.Request, event *audit.Event) {
	if err := s.audit.Log(r.Context(), event); err != nil {
		observability.FromContext(r.Context()).WithError(err).Warn("Failed to write audit event")
	}
}

// writeStoreError maps a store error to a response, logging unexpected ones
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, what string, err error) {
	if store.IsNotFound(err) {
		httputil.WriteNotFound(w, what+" not found")
		return
	}
	observability.FromContext(r.Context()).WithError(err).Errorf("Failed to load %s", what)
	httputil.WriteInternalError(w)
}
