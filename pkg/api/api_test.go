package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/audit"
	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/httputil"
	"github.com/platinummonkey/datahub/pkg/lifecycle"
	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/middleware"
	"github.com/platinummonkey/datahub/pkg/observability"
	"github.com/platinummonkey/datahub/pkg/rbac"
	"github.com/platinummonkey/datahub/pkg/session"
	"github.com/platinummonkey/datahub/pkg/store"
	"github.com/platinummonkey/datahub/pkg/submissions"
	"github.com/platinummonkey/datahub/pkg/validation"
)

var (
	submitter = &auth.User{
		ID:   "owner",
		Role: string(rbac.RoleSubmitter),
		Permissions: []string{
			"submission_request:view", "submission_request:create", "submission_request:submit",
			"data_submission:view",
		},
	}
	federalLead = &auth.User{
		ID:          "lead",
		Role:        string(rbac.RoleFederalLead),
		Permissions: []string{"submission_request:view", "submission_request:review", "data_submission:view", "data_submission:review"},
	}
	admin = &auth.User{
		ID:          "admin",
		Role:        string(rbac.RoleAdmin),
		Permissions: []string{"user:manage", "dashboard:view"},
	}
	outsider = &auth.User{ID: "outsider", Role: string(rbac.RoleUser), Permissions: []string{"access:request"}}
)

type fakeSessions map[string]*auth.User

func (f fakeSessions) Get(_ context.Context, token string) (*auth.User, error) {
	user, ok := f[token]
	if !ok {
		return nil, session.ErrNoSession
	}
	return user, nil
}

type fakeUsers map[string]*auth.User

func (f fakeUsers) GetUser(_ context.Context, id string) (*auth.User, error) {
	user, ok := f[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

type fakeApplications struct {
	mu      sync.Mutex
	apps    map[string]*applications.Application
	calls   []listing.FetchDescriptor
	filters []store.Filter
}

func (f *fakeApplications) GetApplication(_ context.Context, id string) (*applications.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return app, nil
}

func (f *fakeApplications) ListApplications(_ context.Context, filter store.Filter, d listing.FetchDescriptor) (listing.Page[*applications.Application], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, d)
	f.filters = append(f.filters, filter)

	var items []*applications.Application
	for _, app := range f.apps {
		if filter.Status == "" || string(app.Status) == filter.Status {
			items = append(items, app)
		}
	}
	return listing.Page[*applications.Application]{Items: items, Total: len(items)}, nil
}

func (f *fakeApplications) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSubmissions struct {
	subs  map[string]*submissions.Submission
	err   error
	calls int
}

func (f *fakeSubmissions) GetSubmission(_ context.Context, id string) (*submissions.Submission, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return sub, nil
}

func (f *fakeSubmissions) ListSubmissions(_ context.Context, filter store.Filter, d listing.FetchDescriptor) (listing.Page[*submissions.Submission], error) {
	f.calls++
	if f.err != nil {
		return listing.Page[*submissions.Submission]{}, f.err
	}
	return listing.Page[*submissions.Submission]{}, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (a *recordingAudit) Log(_ context.Context, event *audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *recordingAudit) Close() error { return nil }

func (a *recordingAudit) ofType(t audit.EventType) []*audit.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*audit.Event
	for _, e := range a.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	server  *Server
	apps    *fakeApplications
	subs    *fakeSubmissions
	audit   *recordingAudit
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T, configure ...func(*Options)) *testEnv {
	t.Helper()

	env := &testEnv{
		apps: &fakeApplications{apps: map[string]*applications.Application{
			"app-1": {
				ID:        "app-1",
				Status:    applications.StatusInProgress,
				Applicant: &applications.Applicant{ApplicantID: "owner"},
				StudyName: "Alpha",
			},
			"app-2": {
				ID:        "app-2",
				Status:    applications.StatusInReview,
				Applicant: &applications.Applicant{ApplicantID: "owner"},
				StudyName: "Beta",
			},
		}},
		subs: &fakeSubmissions{subs: map[string]*submissions.Submission{
			"sub-1": {
				ID:                       "sub-1",
				Status:                   submissions.StatusSubmitted,
				SubmitterID:              "owner",
				DataCommons:              "CDS",
				MetadataValidationStatus: submissions.StatusPtr(submissions.ValidationPassed),
				FileValidationStatus:     submissions.StatusPtr(submissions.ValidationError),
			},
		}},
		audit:   &recordingAudit{},
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
	}

	opts := Options{
		Sessions: fakeSessions{
			"owner-token":    submitter,
			"lead-token":     federalLead,
			"admin-token":    admin,
			"outsider-token": outsider,
		},
		Users:         fakeUsers{"owner": submitter, "lead": federalLead},
		Applications:  env.apps,
		Submissions:   env.subs,
		Audit:         env.audit,
		Metrics:       env.metrics,
		Logger:        observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{}),
		ListCacheSize: 16,
		ListCacheTTL:  time.Minute,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	env.server = NewServer(opts)
	return env
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestServer_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/me/permissions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/v1/me/permissions", "stale-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get(httputil.RequestIDHeader))
}

func TestServer_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMyPermissions(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/me/permissions", "owner-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[PermissionsResponse](t, w)
	assert.Equal(t, "owner", resp.UserID)
	assert.Equal(t, []string{"data_submission:view", "submission_request:create", "submission_request:view"}, resp.Effective)
	assert.Equal(t, []string{"submission_request:submit"}, resp.Conditional)

	w = env.do(http.MethodGet, "/api/v1/me/permissions", "outsider-token", nil)
	resp = decode[PermissionsResponse](t, w)
	assert.Equal(t, []string{"access:request"}, resp.Effective)
	assert.NotNil(t, resp.Conditional)
}

func TestGetUserPermissions(t *testing.T) {
	env := newTestEnv(t)

	t.Run("requires user manage", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/users/lead/permissions", "owner-token", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		denied := env.audit.ofType(audit.EventTypeAccessDenied)
		require.NotEmpty(t, denied)
		assert.Equal(t, "user:manage", denied[len(denied)-1].Permission)
	})

	t.Run("admin reads another user", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/users/lead/permissions", "admin-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[PermissionsResponse](t, w)
		assert.Equal(t, "lead", resp.UserID)
		assert.Contains(t, resp.Effective, "submission_request:review")
	})

	t.Run("unknown user", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/users/ghost/permissions", "admin-token", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCheckPermission(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		token      string
		body       CheckRequest
		wantStatus int
		wantAllow  bool
		wantReason rbac.DecisionReason
	}{
		{
			name:       "static grant",
			token:      "owner-token",
			body:       CheckRequest{Resource: "submission_request", Action: "create"},
			wantStatus: http.StatusOK,
			wantAllow:  true,
			wantReason: rbac.ReasonGranted,
		},
		{
			name:       "dynamic grant without record",
			token:      "owner-token",
			body:       CheckRequest{Resource: "submission_request", Action: "submit"},
			wantStatus: http.StatusOK,
			wantReason: rbac.ReasonMissingContext,
		},
		{
			name:       "dynamic grant for owner",
			token:      "owner-token",
			body:       CheckRequest{Resource: "submission_request", Action: "submit", ApplicationID: "app-1"},
			wantStatus: http.StatusOK,
			wantAllow:  true,
			wantReason: rbac.ReasonGranted,
		},
		{
			name:       "not in allowlist",
			token:      "lead-token",
			body:       CheckRequest{Resource: "dashboard", Action: "view"},
			wantStatus: http.StatusOK,
			wantReason: rbac.ReasonNotInAllowlist,
		},
		{
			name:       "unmodeled permission",
			token:      "admin-token",
			body:       CheckRequest{Resource: "billing", Action: "view"},
			wantStatus: http.StatusOK,
			wantReason: rbac.ReasonNotModeled,
		},
		{
			name:       "missing record",
			token:      "owner-token",
			body:       CheckRequest{Resource: "data_submission", Action: "cancel", SubmissionID: "sub-9"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "two records",
			token:      "owner-token",
			body:       CheckRequest{Resource: "data_submission", Action: "cancel", ApplicationID: "app-1", SubmissionID: "sub-1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing action",
			token:      "owner-token",
			body:       CheckRequest{Resource: "dashboard"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/authz/check", tt.token, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			decision := decode[rbac.Decision](t, w)
			assert.Equal(t, tt.wantAllow, decision.Allowed)
			assert.Equal(t, tt.wantReason, decision.Reason)
			assert.Equal(t, tt.body.Resource+":"+tt.body.Action, decision.Permission)
		})
	}

	assert.NotEmpty(t, env.audit.ofType(audit.EventTypePermissionCheck))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.PermissionChecksTotal.WithLabelValues("submission_request", "submit", "denied")))
}

func TestCheckPermission_InvalidBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/authz/check", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer owner-token")
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckPermission_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/api/v1/authz/check", "owner-token", CheckRequest{Resource: "dashboard"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[httputil.ErrorResponse](t, w)
	assert.Equal(t, map[string]string{"action": "required"}, resp.Details)
	assert.NotEmpty(t, resp.RequestID)
}

func TestListApplications(t *testing.T) {
	env := newTestEnv(t)

	t.Run("requires view", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/applications", "outsider-token", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("default descriptor", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/applications", "owner-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[httputil.ListResponse[applications.Application]](t, w)
		assert.Equal(t, 2, resp.Total)

		assert.Equal(t, defaultDescriptor, env.apps.calls[0])
	})

	t.Run("served from cache", func(t *testing.T) {
		before := env.apps.callCount()
		w := env.do(http.MethodGet, "/api/v1/applications", "owner-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, before, env.apps.callCount())
		assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.CacheHitsTotal.WithLabelValues("list")))
	})

	t.Run("force bypasses cache", func(t *testing.T) {
		before := env.apps.callCount()
		w := env.do(http.MethodGet, "/api/v1/applications?force=true", "owner-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, before+1, env.apps.callCount())
		assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ListingFetchesTotal.WithLabelValues("applications", "true")))
	})

	t.Run("descriptor and filter", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/applications?first=5&offset=5&sortDirection=asc&orderBy=studyName&status=In+Review", "owner-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[httputil.ListResponse[applications.Application]](t, w)
		assert.Equal(t, 1, resp.Total)

		last := env.apps.calls[len(env.apps.calls)-1]
		assert.Equal(t, listing.FetchDescriptor{First: 5, Offset: 5, SortDirection: listing.SortAsc, OrderBy: "studyName"}, last)
		assert.Equal(t, "In Review", env.apps.filters[len(env.apps.filters)-1].Status)
	})

	t.Run("bad input", func(t *testing.T) {
		for _, q := range []string{"?first=0", "?first=101", "?sortDirection=sideways", "?status=Archived"} {
			w := env.do(http.MethodGet, "/api/v1/applications"+q, "owner-token", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

func TestListSubmissions(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.ListCacheTTL = 0 })

	w := env.do(http.MethodGet, "/api/v1/submissions", "owner-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())

	env.do(http.MethodGet, "/api/v1/submissions", "owner-token", nil)
	assert.Equal(t, 2, env.subs.calls, "cache disabled with zero ttl")

	env.subs.err = assert.AnError
	w = env.do(http.MethodGet, "/api/v1/submissions?status=Released", "owner-token", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetFormMode(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		token string
		app   string
		want  lifecycle.FormMode
	}{
		{"owner-token", "app-1", lifecycle.FormModeEdit},
		{"owner-token", "app-2", lifecycle.FormModeViewOnly},
		{"lead-token", "app-2", lifecycle.FormModeReview},
		{"lead-token", "app-1", lifecycle.FormModeViewOnly},
		{"outsider-token", "app-1", lifecycle.FormModeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.token+" "+tt.app, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/v1/applications/"+tt.app+"/form-mode", tt.token, nil)
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[FormModeResponse](t, w)
			assert.Equal(t, tt.want, resp.FormMode)
			assert.Equal(t, tt.app, resp.ApplicationID)
		})
	}

	events := env.audit.ofType(audit.EventTypeFormMode)
	require.Len(t, events, len(tests))
	assert.Equal(t, audit.EventStatusDenied, events[len(events)-1].Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.FormModeTotal.WithLabelValues("Review")))

	w := env.do(http.MethodGet, "/api/v1/applications/app-404/form-mode", "owner-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetValidationDefaults(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/submissions/sub-1/validation-defaults", "lead-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	defaults := decode[validation.Defaults](t, w)
	assert.Equal(t, validation.TypeAll, defaults.Type)
	assert.Equal(t, validation.TargetAll, defaults.Target)

	w = env.do(http.MethodGet, "/api/v1/submissions/sub-1/validation-defaults", "owner-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	defaults = decode[validation.Defaults](t, w)
	assert.Equal(t, validation.TypeMetadata, defaults.Type)
	assert.Equal(t, validation.TargetNew, defaults.Target)
	assert.Equal(t, []string{"metadata"}, defaults.Types)

	assert.Len(t, env.audit.ofType(audit.EventTypeValidationDefaults), 2)

	w = env.do(http.MethodGet, "/api/v1/submissions/sub-1/validation-defaults", "outsider-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServer_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t, func(o *Options) {
		o.RateLimit = middleware.NewRateLimitMiddleware(client)
	})

	w := env.do(http.MethodGet, "/api/v1/me/permissions", "owner-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1000", w.Header().Get("X-RateLimit-Limit"))

	require.NoError(t, mr.Set("ratelimit:user:user:owner", "1000"))
	w = env.do(http.MethodGet, "/api/v1/me/permissions", "owner-token", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.RateLimitedTotal.WithLabelValues("user")))
	events := env.audit.ofType(audit.EventTypeRateLimited)
	require.Len(t, events, 1)
	assert.Equal(t, "owner", events[0].UserID)
}

func TestServer_AnonymousRateLimitedBeforeAuth(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t, func(o *Options) {
		o.RateLimit = middleware.NewRateLimitMiddleware(client)
	})

	codes := map[int]int{}
	for i := 0; i < 110; i++ {
		w := env.do(http.MethodGet, "/api/v1/me/permissions", "", nil)
		codes[w.Code]++
	}
	assert.Equal(t, map[int]int{http.StatusUnauthorized: 100, http.StatusTooManyRequests: 10}, codes)
	assert.True(t, mr.Exists("ratelimit:anon:ip:192.0.2.1"))
	assert.Equal(t, float64(10), testutil.ToFloat64(env.metrics.RateLimitedTotal.WithLabelValues("anonymous")))

	w := env.do(http.MethodGet, "/api/v1/me/permissions", "owner-token", nil)
	assert.Equal(t, http.StatusOK, w.Code, "authenticated callers use their own limit")
}

func TestServer_HTTPMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodGet, "/api/v1/me/permissions", "owner-token", nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		env.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/me/permissions", "200"),
	))
}
