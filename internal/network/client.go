// Package network is the HTTP client shared by the endpoint resolver and
// the acquisition pipeline.
package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/logger"
)

// DefaultMaxBodyBytes caps response bodies read by Client.
const DefaultMaxBodyBytes = 64 << 20

// ErrBodyTooLarge is returned when a response exceeds the body cap.
var ErrBodyTooLarge = errors.New("network: response body too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string // first bytes of the body, for logs
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("network: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("network: unexpected status %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each request when the caller's context has no deadline.
	Timeout time.Duration
	// MaxBodyBytes caps the response size; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	UserAgent    string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client performs small request/response exchanges and reads whole bodies.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	maxBody   int64
	userAgent string
	log       *zap.Logger
}

// New creates a client.
func New(opts Options) *Client {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "orbitforge/1"
	}
	return &Client{
		http:      &http.Client{Transport: opts.Transport},
		timeout:   opts.Timeout,
		maxBody:   opts.MaxBodyBytes,
		userAgent: opts.UserAgent,
		log:       logger.Named("network"),
	}
}

// Get fetches url and returns the body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return c.do(req)
}

// PostJSON encodes payload as JSON, posts it to url and returns the body.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if _, ok := req.Context().Deadline(); !ok && c.timeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.URL.Redacted(), err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBody)
	}

	c.log.Debug("http exchange",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(data)}
	}
	return data, nil
}

func snippet(data []byte) string {
	const limit = 200
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
