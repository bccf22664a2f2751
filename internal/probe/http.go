package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/devstats/internal/domain/types"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// HTTPClient wraps http.Client with a base URL and timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Get performs a GET request against path and decodes a JSON body into out.
// A nil out discards the body.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// Post performs a POST request with a JSON body and decodes the response into out.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Method: req.Method, Path: req.URL.Path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// StatusError reports a non-200 response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// fetchOptions retrieves the dashboard control metadata.
func (c *HTTPClient) fetchOptions(ctx context.Context) (types.Options, error) {
	var opts types.Options
	err := c.Get(ctx, "/api/options", &opts)
	return opts, err
}

// viewsByBody posts sel as a JSON body.
func (c *HTTPClient) viewsByBody(ctx context.Context, sel Selection) (types.Views, error) {
	var v types.Views
	err := c.Post(ctx, "/api/views", sel, &v)
	return v, err
}

// viewsBySingleContinent posts sel with the continents field as a bare
// string. sel must hold exactly one continent.
func (c *HTTPClient) viewsBySingleContinent(ctx context.Context, sel Selection) (types.Views, error) {
	body := map[string]any{
		"continents": sel.Continents[0],
		"from":       sel.From,
		"to":         sel.To,
		"indicator":  sel.Indicator,
	}
	var v types.Views
	err := c.Post(ctx, "/api/views", body, &v)
	return v, err
}

// viewsByQuery issues GET /api/views with sel encoded as query parameters.
func (c *HTTPClient) viewsByQuery(ctx context.Context, sel Selection) (types.Views, error) {
	var v types.Views
	err := c.Get(ctx, "/api/views?"+queryString(sel), &v)
	return v, err
}

func queryString(sel Selection) string {
	q := url.Values{}
	if len(sel.Continents) == 0 {
		q.Set("continent", "")
	}
	for _, c := range sel.Continents {
		q.Add("continent", c)
	}
	q.Set("from", strconv.Itoa(sel.From))
	q.Set("to", strconv.Itoa(sel.To))
	q.Set("indicator", sel.Indicator)
	return q.Encode()
}
