// Package rest talks to a hosted table through its PostgREST endpoint, the
// HTTP surface Supabase exposes under /rest/v1.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Makepad-fr/tabletodo/internal/model"
	"github.com/Makepad-fr/tabletodo/internal/store"
)

const (
	// RestPath is where PostgREST is mounted on a Supabase project URL.
	RestPath = "/rest/v1/"

	mimeJSON   = "application/json"
	mimeObject = "application/vnd.pgrst.object+json"
)

// Options configures a Client.
type Options struct {
	BaseURL string // project URL, e.g. https://xyz.supabase.co
	Table   string
	APIKey  string
	Timeout time.Duration // 0 means no client-side timeout
	// HTTPClient overrides the default client; Timeout is ignored then.
	HTTPClient *http.Client
}

// Client implements store.Table over HTTP.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ store.Table = (*Client)(nil)

// APIError is the PostgREST error body plus the HTTP status.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("rest: %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("rest: %d: %s", e.StatusCode, msg)
}

// New validates opts and returns a client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("rest: base url is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("rest: invalid base url %q", opts.BaseURL)
	}
	if opts.Table == "" {
		return nil, fmt.Errorf("rest: table is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		endpoint:   base + RestPath + url.PathEscape(opts.Table),
		apiKey:     opts.APIKey,
		httpClient: hc,
	}, nil
}

// Endpoint returns the table URL requests go to.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	q := url.Values{"select": {"*"}}
	body, err := c.do(ctx, http.MethodGet, q, nil, mimeJSON, "")
	if err != nil {
		return nil, err
	}
	var items []model.Item
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("rest: decode rows: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Insert asks for a single-row representation. Servers that ignore the
// object Accept header and answer with an array are normalized to its first
// row.
func (c *Client) Insert(ctx context.Context, rec model.NewItem) (model.Item, error) {
	payload, err := json.Marshal([]model.NewItem{rec})
	if err != nil {
		return model.Item{}, fmt.Errorf("rest: encode row: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, url.Values{"select": {"*"}}, payload, mimeObject, "return=representation")
	if err != nil {
		return model.Item{}, err
	}
	return DecodeOne(body)
}

func (c *Client) UpdateByID(ctx context.Context, id model.ID, p model.Patch) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("rest: encode patch: %w", err)
	}
	_, err = c.do(ctx, http.MethodPatch, idFilter(id), payload, mimeJSON, "return=minimal")
	return err
}

func (c *Client) DeleteByID(ctx context.Context, id model.ID) error {
	_, err := c.do(ctx, http.MethodDelete, idFilter(id), nil, mimeJSON, "return=minimal")
	return err
}

func idFilter(id model.ID) url.Values {
	return url.Values{"id": {"eq." + id.String()}}
}

// DecodeOne reads either a single row object or an array of rows and returns
// one row.
func DecodeOne(body []byte) (model.Item, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return model.Item{}, store.ErrEmptyResult
	}
	if body[0] == '[' {
		var rows []model.Item
		if err := json.Unmarshal(body, &rows); err != nil {
			return model.Item{}, fmt.Errorf("rest: decode rows: %w", err)
		}
		if len(rows) == 0 {
			return model.Item{}, store.ErrEmptyResult
		}
		return rows[0], nil
	}
	var it model.Item
	if err := json.Unmarshal(body, &it); err != nil {
		return model.Item{}, fmt.Errorf("rest: decode row: %w", err)
	}
	return it, nil
}

func (c *Client) do(ctx context.Context, method string, q url.Values, payload []byte, accept, prefer string) ([]byte, error) {
	u := c.endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("rest: build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if payload != nil {
		req.Header.Set("Content-Type", mimeJSON)
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest: %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rest: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if len(body) > 0 && json.Unmarshal(body, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}
	return body, nil
}
