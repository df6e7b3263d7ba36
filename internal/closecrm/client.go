package closecrm

import (
	"bytes"
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

// Client is the read/write contract this engine needs from the CRM API.
// Implementations must be safe for concurrent use.
type Client interface {
	Memberships(ctx context.Context, orgID string) ([]Membership, error)
	User(ctx context.Context, userID string) (User, error)

	// UserAvailability is one API call per organization. Users absent from
	// the response are unknown, not offline; that default is applied by the
	// caller.
	UserAvailability(ctx context.Context, orgID string) (map[string]Availability, error)

	// GroupMembers is one API call per configured group.
	GroupMembers(ctx context.Context, groupID string) ([]string, error)

	PhoneNumberByNumber(ctx context.Context, number string) (PhoneNumber, error)
	UpdatePhoneNumberParticipants(ctx context.Context, phoneNumberID string, participants []string) error
}

var ErrNotFound = errors.New("closecrm: not found")

// HTTPClient talks to the CRM REST API with API-key basic auth.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ResolveOrganization looks up the organization the API key belongs to.
// Called once at startup when CLOSE_ORGANIZATION_ID is not configured.
func (c *HTTPClient) ResolveOrganization(ctx context.Context) (string, error) {
	var out struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := c.get(ctx, "/api_key/"+url.PathEscape(c.apiKey)+"/", nil, &out); err != nil {
		return "", err
	}
	if out.OrganizationID == "" {
		return "", errors.New("closecrm: api key has no organization")
	}
	return out.OrganizationID, nil
}

func (c *HTTPClient) Memberships(ctx context.Context, orgID string) ([]Membership, error) {
	var out struct {
		Memberships []Membership `json:"memberships"`
	}
	q := url.Values{"_fields": {"memberships"}}
	if err := c.get(ctx, "/organization/"+url.PathEscape(orgID)+"/", q, &out); err != nil {
		return nil, err
	}
	return out.Memberships, nil
}

func (c *HTTPClient) User(ctx context.Context, userID string) (User, error) {
	var out User
	q := url.Values{"_fields": {"id,first_name,last_name"}}
	if err := c.get(ctx, "/user/"+url.PathEscape(userID)+"/", q, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

func (c *HTTPClient) UserAvailability(ctx context.Context, orgID string) (map[string]Availability, error) {
	var out struct {
		Data []struct {
			UserID       string `json:"user_id"`
			Availability []struct {
				Type   string `json:"type"`
				Status string `json:"status"`
			} `json:"availability"`
		} `json:"data"`
	}
	q := url.Values{"organization_id": {orgID}}
	if err := c.get(ctx, "/user/availability/", q, &out); err != nil {
		return nil, err
	}

	m := make(map[string]Availability, len(out.Data))
	for _, u := range out.Data {
		var av Availability
		for _, entry := range u.Availability {
			switch entry.Type {
			case "native":
				av.NativeOnline = entry.Status == "online"
			case "phone":
				// Each non-idle phone entry is a live call leg.
				if entry.Status != "offline" && entry.Status != "idle" {
					av.ActiveCalls++
				}
			}
		}
		m[u.UserID] = av
	}
	return m, nil
}

func (c *HTTPClient) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	var out struct {
		Members []struct {
			UserID string `json:"user_id"`
		} `json:"members"`
	}
	if err := c.get(ctx, "/group/"+url.PathEscape(groupID)+"/", nil, &out); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out.Members))
	for _, m := range out.Members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (c *HTTPClient) PhoneNumberByNumber(ctx context.Context, number string) (PhoneNumber, error) {
	var out struct {
		Data []PhoneNumber `json:"data"`
	}
	q := url.Values{"number": {number}}
	if err := c.get(ctx, "/phone_number/", q, &out); err != nil {
		return PhoneNumber{}, err
	}
	if len(out.Data) == 0 {
		return PhoneNumber{}, fmt.Errorf("%w: phone number %s", ErrNotFound, number)
	}
	return out.Data[0], nil
}

func (c *HTTPClient) UpdatePhoneNumberParticipants(ctx context.Context, phoneNumberID string, participants []string) error {
	if participants == nil {
		participants = []string{}
	}
	body := map[string]any{"participants": participants}
	return c.put(ctx, "/phone_number/"+url.PathEscape(phoneNumberID)+"/", body)
}

func (c *HTTPClient) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) put(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("closecrm: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("closecrm: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(snippet))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
