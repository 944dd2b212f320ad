package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"
)

// HTTPClient queries the server's operational HTTP endpoint.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for addr (host:port or URL).
func NewHTTPClient(addr string, timeout time.Duration) *HTTPClient {
	baseURL := addr
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "memkv-cli")
	return c.client.Do(req)
}

// Status is the merged /health and /ready answer.
type Status struct {
	Status  string `json:"status" yaml:"status"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Ready   bool   `json:"ready" yaml:"ready"`
	Listen  string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// Status reports liveness and readiness.
func (c *HTTPClient) Status(ctx context.Context) (*Status, error) {
	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := c.getJSON(ctx, "/health", &health); err != nil {
		return nil, err
	}

	var ready struct {
		Status string `json:"status"`
		Listen string `json:"listen"`
	}
	resp, err := c.Get(ctx, "/ready")
	if err != nil {
		return nil, err
	}
	if err := decode(resp, &ready, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}

	return &Status{
		Status:  health.Status,
		Version: health.Version,
		Ready:   ready.Status == "ready",
		Listen:  ready.Listen,
	}, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, target any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	return decode(resp, target)
}

// decode reads a JSON body, failing on any status >= 400 not listed in
// accept.
func decode(resp *http.Response, target any, accept ...int) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && !slices.Contains(accept, resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

