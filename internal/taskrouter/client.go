package taskrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the contract this engine needs from the telephony TaskRouter
// API. Implementations must be safe for concurrent use.
type Client interface {
	ListActivities(ctx context.Context) (ActivityMap, error)
	ListWorkers(ctx context.Context) ([]Worker, error)
	CreateWorker(ctx context.Context, friendlyName, attributes string) (Worker, error)
	UpdateWorkerActivity(ctx context.Context, workerSID, activitySID string) error
	UpdateWorkerAttributes(ctx context.Context, workerSID, attributes string) error
	DeleteWorker(ctx context.Context, workerSID string) error
	CompleteTask(ctx context.Context, taskSID string) error
}

var ErrNotFound = errors.New("taskrouter: not found")

// HTTPClient talks to the TaskRouter REST API. Writes are form-encoded
// POSTs with account-credential basic auth, matching the provider's wire
// contract.
type HTTPClient struct {
	baseURL      string
	accountSID   string
	authToken    string
	workspaceSID string
	http         *http.Client
}

func NewHTTPClient(baseURL, accountSID, authToken, workspaceSID string) *HTTPClient {
	return &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		accountSID:   accountSID,
		authToken:    authToken,
		workspaceSID: workspaceSID,
		http:         &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) ListActivities(ctx context.Context) (ActivityMap, error) {
	var out struct {
		Activities []Activity `json:"activities"`
	}
	if err := c.get(ctx, c.workspacePath("/Activities"), &out); err != nil {
		return nil, err
	}
	m := make(ActivityMap, len(out.Activities))
	for _, a := range out.Activities {
		m[a.FriendlyName] = a.SID
	}
	return m, nil
}

func (c *HTTPClient) ListWorkers(ctx context.Context) ([]Worker, error) {
	var out struct {
		Workers []Worker `json:"workers"`
	}
	if err := c.get(ctx, c.workspacePath("/Workers"), &out); err != nil {
		return nil, err
	}
	return out.Workers, nil
}

func (c *HTTPClient) CreateWorker(ctx context.Context, friendlyName, attributes string) (Worker, error) {
	form := url.Values{
		"FriendlyName": {friendlyName},
		"Attributes":   {attributes},
	}
	var w Worker
	if err := c.post(ctx, c.workspacePath("/Workers"), form, &w); err != nil {
		return Worker{}, err
	}
	return w, nil
}

func (c *HTTPClient) UpdateWorkerActivity(ctx context.Context, workerSID, activitySID string) error {
	form := url.Values{"ActivitySid": {activitySID}}
	return c.post(ctx, c.workspacePath("/Workers/"+workerSID), form, nil)
}

func (c *HTTPClient) UpdateWorkerAttributes(ctx context.Context, workerSID, attributes string) error {
	form := url.Values{"Attributes": {attributes}}
	return c.post(ctx, c.workspacePath("/Workers/"+workerSID), form, nil)
}

func (c *HTTPClient) DeleteWorker(ctx context.Context, workerSID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+c.workspacePath("/Workers/"+workerSID), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *HTTPClient) CompleteTask(ctx context.Context, taskSID string) error {
	form := url.Values{"AssignmentStatus": {"completed"}}
	return c.post(ctx, c.workspacePath("/Tasks/"+taskSID), form, nil)
}

func (c *HTTPClient) workspacePath(suffix string) string {
	return "/Workspaces/" + c.workspaceSID + suffix
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("taskrouter: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("taskrouter: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(snippet))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
