package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matchpoint-app/matchpoint-go/models"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token attached to authenticated requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource, mostly useful in tests
type StaticToken string

// Token returns the token
func (s StaticToken) Token() string { return string(s) }

// Client is the REST client for the MatchPoint API. All responses are
// expected in the {success, data, pagination?} envelope.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource

	// onAuthFailure fires at most once per epoch when the API rejects our
	// credentials with a 401/403, no matter how many requests were in
	// flight at the time. Signing in again resets the epoch.
	onAuthFailure func()
	mu            sync.Mutex
	authFired     bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the underlying http client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithAuthFailureHook sets the forced sign-out hook for 401/403 responses
func WithAuthFailureHook(fn func()) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// New creates a new API client
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResetAuthEpoch re-arms the forced sign-out hook after a fresh sign-in
func (c *Client) ResetAuthEpoch() {
	c.mu.Lock()
	c.authFired = false
	c.mu.Unlock()
}

func (c *Client) fireAuthFailure() {
	c.mu.Lock()
	fired := c.authFired
	c.authFired = true
	c.mu.Unlock()
	if fired || c.onAuthFailure == nil {
		return
	}
	zap.S().Infow("credentials rejected, forcing sign-out")
	c.onAuthFailure()
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.fireAuthFailure()
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response envelope: %w", err)
	}
	if err := env.DecodeInto(out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// decodeResponse reads a response outside the authenticated path, so a 401
// here (a failed sign-in) does not trigger the forced sign-out hook
func decodeResponse(resp *http.Response, out interface{}) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response envelope: %w", err)
	}
	if err := env.DecodeInto(out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// errorMessage digs the server-provided message out of an error body,
// falling back to the http status text
func errorMessage(raw []byte, statusCode int) string {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if msg := env.ErrorMessage(); msg != "" {
			return msg
		}
	}
	return http.StatusText(statusCode)
}
