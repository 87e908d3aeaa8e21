// internal/httpclient/client.go
package httpclient

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

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyInError = 512
)

// StatusError is returned when a service answers with an unexpected status.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// RejectedError is returned when a write succeeds at the HTTP level but the
// response lists an item carrying an error message.
type RejectedError struct {
	URL     string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("POST %s: rejected: %s", e.URL, e.Message)
}

// IsStatus reports whether err is a StatusError with the given status.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}

// Client performs JSON requests against a single base URL with a fixed set of
// headers. Requests are never retried.
type Client struct {
	baseURL    string
	header     http.Header
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			copied := *client.httpClient
			copied.Timeout = timeout
			client.httpClient = &copied
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(client *Client) {
		client.header.Set(key, value)
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	client := &Client{
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		header:     make(http.Header),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// URL joins path and query onto the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get fetches path and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.URL(path, query), nil, http.StatusOK)
}

// Post sends body as JSON and returns the body of a 200, 201 or 202 response.
// A JSON list response with a non-empty errorMessage on any item is reported as
// a RejectedError.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	target := c.URL(path, nil)
	data, err := c.do(ctx, http.MethodPost, target, payload, http.StatusOK, http.StatusCreated, http.StatusAccepted)
	if err != nil {
		return nil, err
	}
	if msg := rejection(data); msg != "" {
		c.logger.Error("request rejected", zap.String("url", target), zap.String("error_message", msg))
		return nil, &RejectedError{URL: target, Message: msg}
	}
	return data, nil
}

// Delete removes path and succeeds on 200 or 204.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, c.URL(path, nil), nil, http.StatusOK, http.StatusNoContent)
	return err
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, accepted ...int) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if payload != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", zap.String("method", method), zap.String("url", target), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response body: %w", method, target, err)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	for _, status := range accepted {
		if resp.StatusCode == status {
			return data, nil
		}
	}

	statusErr := &StatusError{
		Method: method,
		URL:    target,
		Status: resp.StatusCode,
		Body:   truncate(string(data), maxBodyInError),
	}
	c.logger.Error("unexpected response status",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.String("body", statusErr.Body),
	)
	return nil, statusErr
}

func rejection(data []byte) string {
	result := gjson.ParseBytes(data)
	if !result.IsArray() {
		return ""
	}
	var msg string
	result.ForEach(func(_, item gjson.Result) bool {
		if m := strings.TrimSpace(item.Get("errorMessage").String()); m != "" {
			msg = m
			return false
		}
		return true
	})
	return msg
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
