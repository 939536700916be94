package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 20 * time.Second
	maxErrorBody   = 512
	maxResponse    = 1 << 20
)

// Client performs one bounded POST against an agent endpoint. It never
// retries; a failed call is reported once.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// ClientOption configures Client behaviour.
type ClientOption func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client, keeping its own timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Client for url. apiKey, when set, is sent as a Bearer token.
func NewClient(url, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON marshals req, posts it and unmarshals the response into dest.
func (c *Client) PostJSON(ctx context.Context, req, dest any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.post(ctx, "application/json", body, dest)
}

// PostBytes posts raw bytes as application/octet-stream and unmarshals the
// JSON response into dest.
func (c *Client) PostBytes(ctx context.Context, payload []byte, dest any) error {
	return c.post(ctx, "application/octet-stream", payload, dest)
}

func (c *Client) post(ctx context.Context, contentType string, body []byte, dest any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b := string(respBody)
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return &APIError{StatusCode: resp.StatusCode, Body: b}
	}

	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}
