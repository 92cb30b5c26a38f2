// Package controller is a thin client for the REST API of a live Omada
// controller: it resolves the controller ID, logs in and unwraps the
// response envelope every endpoint shares.
package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"
)

const maxResponseBytes = 10 << 20

var tokenInURL = regexp.MustCompile(`([?&]token=)[^&]+`)

// Info is the result of GET /api/info.
type Info struct {
	ControllerVersion string `json:"controllerVer"`
	APIVersion        string `json:"apiVer"`
	Configured        bool   `json:"configured"`
	Type              int    `json:"type"`
	SupportApp        bool   `json:"supportApp"`
	OmadacID          string `json:"omadacId"`
}

// APIError is returned when the controller answers with a non-2xx status or
// a non-zero error code.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	msg := ": " + e.Message
	if e.Message == "" {
		msg = ", no error message was returned"
	}
	return fmt.Sprintf("%s %s: status %d, error code %d%s", e.Method, e.URL, e.StatusCode, e.ErrorCode, msg)
}

type envelope struct {
	ErrorCode int             `json:"errorCode"`
	Msg       string          `json:"msg"`
	Result    json.RawMessage `json:"result"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	Token string `json:"token"`
}

// Client calls one controller. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	attempts   int
	backoff    func(attempt int) time.Duration

	mu       sync.Mutex
	username string
	password string
	token    string
	info     *Info
}

type Option func(*Client)

// WithCredentials makes the client log in with username and password
// before authenticated calls.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
		c.token = ""
	}
}

// WithToken uses a token obtained elsewhere instead of logging in.
func WithToken(token string) Option {
	return func(c *Client) {
		c.username = ""
		c.password = ""
		c.token = token
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetries sets how many times an idempotent call is tried when the
// controller answers 429 or 5xx. 1 disables retries.
func WithRetries(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:      slog.New(slog.DiscardHandler),
		attempts: MaxAttempts,
		backoff:  Backoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Info returns the controller information. A successful result is cached.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	c.mu.Lock()
	cached := c.info
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var info Info
	if err := c.request(ctx, http.MethodGet, NewURL("/api/info"), nil, &info, false); err != nil {
		return nil, fmt.Errorf("get controller info: %w", err)
	}

	c.mu.Lock()
	c.info = &info
	c.mu.Unlock()
	return &info, nil
}

// Login returns the session token, logging in with the configured
// credentials on first use. Without credentials or token it returns "".
func (c *Client) Login(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, username, password := c.token, c.username, c.password
	c.mu.Unlock()
	if token != "" || username == "" || password == "" {
		return token, nil
	}

	var result loginResult
	req := loginRequest{Username: username, Password: password}
	if err := c.request(ctx, http.MethodPost, NewURL("/{omadacId}/api/v2/login"), req, &result, false); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	c.mu.Lock()
	c.token = result.Token
	c.mu.Unlock()
	c.log.Debug("logged in to controller", "base_url", c.baseURL)
	return result.Token, nil
}

// Do performs an authenticated call and decodes the envelope's result into
// out, which may be nil. Idempotent calls are retried on transient failures.
func (c *Client) Do(ctx context.Context, method string, u URL, body, out any) error {
	attempts := 1
	if idempotent(method) {
		attempts = c.attempts
	}

	var err error
	for attempt := range attempts {
		err = c.request(ctx, method, u, body, out, true)
		if err == nil || !IsRetryable(err) || attempt == attempts-1 {
			break
		}
		c.log.Warn("retryable controller error", "method", method, "path", u.Path(), "attempt", attempt, "error", err)
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (c *Client) request(ctx context.Context, method string, u URL, body, out any, authenticate bool) error {
	if u.RequiresControllerID() {
		info, err := c.Info(ctx)
		if err != nil {
			return err
		}
		if u, err = u.WithPathParameter(ControllerIDParameter, info.OmadacID); err != nil {
			return err
		}
	}

	var token string
	if authenticate {
		var err error
		if token, err = c.Login(ctx); err != nil {
			return err
		}
	}
	if token != "" {
		u = u.WithQueryParameter("token", token)
	}

	target, err := u.Build(c.baseURL)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Csrf-Token", token)
	}

	masked := tokenInURL.ReplaceAllString(target, "${1}***MASKED***")
	c.log.Debug("controller request", "method", method, "url", masked)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, masked, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, URL: masked, StatusCode: resp.StatusCode, ErrorCode: env.ErrorCode, Message: env.Msg}
		if decodeErr != nil {
			apiErr.Message = string(truncate(data, 1024))
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response from %s %s: %w", method, masked, decodeErr)
	}
	if env.ErrorCode != 0 {
		return &APIError{Method: method, URL: masked, StatusCode: resp.StatusCode, ErrorCode: env.ErrorCode, Message: env.Msg}
	}

	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result from %s %s: %w", method, masked, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
