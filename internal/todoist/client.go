// Package todoist talks to the Todoist REST and Sync APIs. It maps the
// remote task records into the strict internal task shape at this
// boundary; nothing downstream sees the wire format.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUnavailable reports a failed health check. The caller must abort
// the run before touching the note: reconciling against an empty view
// would drop every managed line.
var ErrUnavailable = errors.New("task store unavailable")

const requestTimeout = 20 * time.Second

// Client is a Todoist API client bound to one account token.
type Client struct {
	token   string
	baseURL string
	syncURL string
	http    *http.Client
}

// New creates a client. baseURL is the REST v2 root and syncURL the
// Sync v9 root; both come from configuration.
func New(token, baseURL, syncURL string) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		syncURL: syncURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Projects maps project ids to display names. The Inbox project maps to
// the empty string so inbox tasks render unlabeled.
type Projects map[string]string

// Label returns the display label for a project id.
func (p Projects) Label(id string) string {
	return p[id]
}

// Ping verifies the API is reachable and the token valid, and returns
// the project id to name mapping used to label tasks. Any failure wraps
// ErrUnavailable.
func (c *Client) Ping(ctx context.Context) (Projects, error) {
	body, err := c.get(ctx, c.baseURL+"/projects", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var projects []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		IsInboxProj bool   `json:"is_inbox_project"`
	}
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("%w: decode projects: %w", ErrUnavailable, err)
	}

	out := make(Projects, len(projects))
	for _, p := range projects {
		if p.IsInboxProj {
			out[p.ID] = ""
			continue
		}
		out[p.ID] = p.Name
	}
	return out, nil
}

// CompleteTask marks the task done. Completing an already completed
// task is a no-op success on the API side.
func (c *Client) CompleteTask(ctx context.Context, id string) error {
	if _, err := c.post(ctx, c.baseURL+"/tasks/"+url.PathEscape(id)+"/close", nil); err != nil {
		return fmt.Errorf("completing task %s: %w", id, err)
	}
	return nil
}

// get issues an authorized GET and returns the response body.
func (c *Client) get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u.Path, err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 { //nolint:mnd // non-2xx
		return nil, fmt.Errorf("get %s status=%d body=%s", u.Path, res.StatusCode, string(body))
	}
	return body, nil
}

// post issues an authorized POST with an optional JSON payload.
func (c *Client) post(ctx context.Context, rawURL string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 { //nolint:mnd // non-2xx
		return nil, fmt.Errorf("post status=%d body=%s", res.StatusCode, string(body))
	}
	return body, nil
}
