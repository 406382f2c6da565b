// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout bounds a request when none is configured.
	DefaultTimeout = 120 * time.Second

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 8 * time.Second

	// MaxResponseSize caps how much of a body is read.
	MaxResponseSize = 10 * 1024 * 1024
)

// SessionSource supplies the bearer token and tears the session down when
// the backend rejects it.
type SessionSource interface {
	// Token returns the current token, or "" when unauthenticated.
	Token() string

	// Expire clears the session if token is still the current one and
	// reports whether this call performed the teardown.
	Expire(token string) bool
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Body   any
	// Public requests carry no token and never trigger a teardown.
	Public bool
}

// Client talks to the backend REST surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	maxRetries int
	logger     *slog.Logger

	session SessionSource

	hookMu    sync.RWMutex
	onExpired []func()
}

// NewClient creates a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			Timeout: timeout,
		},
		userAgent: "statchat",
		logger:    slog.Default(),
	}
}

// WithSession attaches the session whose token authenticates requests.
func (c *Client) WithSession(s SessionSource) *Client {
	c.session = s
	return c
}

// WithRateLimit limits outgoing requests to rps per second (0 = unlimited).
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithMaxRetries sets how often idempotent GETs are retried on transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	if n < 0 {
		n = 0
	}
	c.maxRetries = n
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithLogger sets the logger. Only method, path, status and duration are logged.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// OnSessionExpired registers fn to run after the session is torn down
// because of a 401. It runs once per teardown, on the failing request's
// goroutine.
func (c *Client) OnSessionExpired(fn func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onExpired = append(c.onExpired, fn)
}

// Do performs req and decodes a JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	token := ""
	if !req.Public && c.session != nil {
		token = c.session.Token()
	}

	retries := 0
	if req.Method == http.MethodGet {
		retries = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		respBody, err := c.doOnce(ctx, req, body, token)
		if err == nil {
			return decode(respBody, out)
		}
		if StatusOf(err) == http.StatusUnauthorized && !req.Public {
			return c.expire(token, err)
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// doOnce performs a single round trip and returns the body of a 2xx response.
func (c *Client) doOnce(ctx context.Context, req Request, body []byte, token string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq, token, body != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("api request failed", "method", req.Method, "path", req.Path, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api response",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	respBody, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Status: resp.StatusCode,
			Detail: extractDetail(respBody),
			Method: req.Method,
			Path:   req.Path,
		}
	}
	return respBody, nil
}

// expire tears down the session that sent the rejected token and fires the
// hooks if this request was the one to do it.
func (c *Client) expire(token string, cause error) error {
	if token != "" && c.session != nil && c.session.Expire(token) {
		c.logger.Info("session expired, cleared local credentials")
		c.hookMu.RLock()
		hooks := append([]func(){}, c.onExpired...)
		c.hookMu.RUnlock()
		for _, fn := range hooks {
			fn()
		}
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}

// setHeaders sets content negotiation and, when a token is present, the
// bearer credential.
func (c *Client) setHeaders(req *http.Request, token string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// readResponse reads the body up to MaxResponseSize.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return body, nil
}

// extractDetail pulls the "detail" field out of an error body. Validation
// errors carry a list, which is rendered as its messages joined.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(payload.Detail)
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], body...)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// calculateBackoff returns the delay before retry attempt n (n >= 1).
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
