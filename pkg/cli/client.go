package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/datahub/pkg/api"
	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/httputil"
	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/rbac"
	"github.com/platinummonkey/datahub/pkg/submissions"
	"github.com/platinummonkey/datahub/pkg/validation"
)

// APIError is a non-2xx reply from the datahub API
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client calls the datahub API with a session token
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	u := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get(httputil.RequestIDHeader)}
		var errResp httputil.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// MyPermissions returns the caller's permissions
func (c *Client) MyPermissions(ctx context.Context) (*api.PermissionsResponse, error) {
	var resp api.PermissionsResponse
	if err := c.do(ctx, http.MethodGet, "/me/permissions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserPermissions returns another user's permissions
func (c *Client) UserPermissions(ctx context.Context, userID string) (*api.PermissionsResponse, error) {
	var resp api.PermissionsResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/permissions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Check asks for one permission decision
func (c *Client) Check(ctx context.Context, req api.CheckRequest) (rbac.Decision, error) {
	var decision rbac.Decision
	err := c.do(ctx, http.MethodPost, "/authz/check", nil, req, &decision)
	return decision, err
}

// FormMode returns how the caller may open an application's form
func (c *Client) FormMode(ctx context.Context, applicationID string) (*api.FormModeResponse, error) {
	var resp api.FormModeResponse
	if err := c.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(applicationID)+"/form-mode", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidationDefaults returns the preselected validation options for a submission
func (c *Client) ValidationDefaults(ctx context.Context, submissionID string) (*validation.Defaults, error) {
	var resp validation.Defaults
	if err := c.do(ctx, http.MethodGet, "/submissions/"+url.PathEscape(submissionID)+"/validation-defaults", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func listQuery(status string, d listing.FetchDescriptor, force bool) url.Values {
	q := d.Values()
	if status != "" {
		q.Set("status", status)
	}
	if force {
		q.Set("force", strconv.FormatBool(force))
	}
	return q
}

// ListApplications fetches one page of applications
func (c *Client) ListApplications(ctx context.Context, status string, d listing.FetchDescriptor, force bool) (listing.Page[*applications.Application], error) {
	var page listing.Page[*applications.Application]
	err := c.do(ctx, http.MethodGet, "/applications", listQuery(status, d, force), nil, &page)
	return page, err
}

// ListSubmissions fetches one page of submissions
func (c *Client) ListSubmissions(ctx context.Context, status string, d listing.FetchDescriptor, force bool) (listing.Page[*submissions.Submission], error) {
	var page listing.Page[*submissions.Submission]
	err := c.do(ctx, http.MethodGet, "/submissions", listQuery(status, d, force), nil, &page)
	return page, err
}
