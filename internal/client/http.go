package client

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

	"github.com/alfredjeanlab/sitenav/internal/model"
)

// DefaultTimeout bounds every request so that a hung backend can never leave
// a caller waiting forever.
const DefaultTimeout = 15 * time.Second

// maxRenderBytes caps how much of a rendered page is read into memory.
const maxRenderBytes = 8 << 20

// HTTPClient implements Backend using the crawl backend's HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout. Zero or negative values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://localhost:8000").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// Compile-time check that HTTPClient implements Backend.
var _ Backend = (*HTTPClient)(nil)

func (c *HTTPClient) Scan(ctx context.Context, req *model.ScanRequest) (*model.ScanResponse, error) {
	var resp model.ScanResponse
	if err := c.doJSON(ctx, http.MethodPost, "/scan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Tree(ctx context.Context, target string) (*model.TreeResponse, error) {
	path := "/api/v1/tree"
	if target != "" {
		path += "?url=" + url.QueryEscape(target)
	}
	var resp model.TreeResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		var apiErr *APIError
		if target != "" && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
		}
		return nil, err
	}
	if resp.HasError() {
		if target == "" {
			return nil, fmt.Errorf("listing nodes: %s", errorText(resp.Error))
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	return &resp, nil
}

func (c *HTTPClient) ListNodes(ctx context.Context) (*model.Snapshot, error) {
	resp, err := c.Tree(ctx, "")
	if err != nil {
		return nil, err
	}
	nodes := resp.Nodes
	if nodes == nil {
		nodes = []model.NodeItem{}
	}
	return &model.Snapshot{Nodes: nodes}, nil
}

func (c *HTTPClient) Focus(ctx context.Context, target string) (*model.FocusedView, error) {
	if target == "" {
		return nil, fmt.Errorf("focus: url is required")
	}
	resp, err := c.Tree(ctx, target)
	if err != nil {
		return nil, err
	}
	view := resp.Focused()
	if view == nil {
		// A listing in reply to a focused query means the node is unknown.
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	return view, nil
}

func (c *HTTPClient) Reset(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/reset", nil, nil)
}

func (c *HTTPClient) Render(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/render?url="+url.QueryEscape(target), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRenderBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// --- internal helpers ---

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
