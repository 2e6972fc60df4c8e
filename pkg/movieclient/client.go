// Package movieclient talks to movie-service.
//
// Every request goes through an inflight.Group, so identical concurrent
// calls (same method, URL and body) share one round trip. Unsafe methods
// carry the CSRF token from the csrftoken cookie in the X-CSRFToken header.
package movieclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/weiawesome/cinema-chronicles/pkg/inflight"
	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
)

const (
	csrfCookieName = "csrftoken"
	csrfHeaderName = "X-CSRFToken"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8095/api/v1.
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("movieclient: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A cookie jar is added
// when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}

// WithGroup shares an inflight.Group between clients.
func WithGroup(g *inflight.Group) Option {
	return func(c *Client) {
		if g != nil {
			c.group = g
		}
	}
}

// Client is a movie-service API client. It is safe for concurrent use.
type Client struct {
	base  *url.URL
	http  *http.Client
	group *inflight.Group

	mu           sync.RWMutex
	token        string
	refreshToken string
}

// New creates a Client for cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		base:  base,
		http:  &http.Client{Timeout: timeout},
		token: cfg.Token,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.group == nil {
		c.group = inflight.New(inflight.WithObserver(func(key string, shared bool) {
			if shared {
				l := pkglog.L()
				l.Debug().Str(pkglog.FieldCacheKey, key).Bool(pkglog.FieldShared, true).Msg("request already in progress, shared result")
			}
		}))
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Group returns the dedup group used by the client.
func (c *Client) Group() *inflight.Group {
	return c.group
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setSession(res *AuthResult) {
	c.mu.Lock()
	c.token = res.AccessToken
	c.refreshToken = res.RefreshToken
	c.mu.Unlock()
}

// CSRFToken returns the csrftoken cookie stored for the API host, if any.
func (c *Client) CSRFToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == csrfCookieName {
			return ck.Value
		}
	}
	return ""
}

// EnsureCSRF returns the CSRF token, fetching one from the server when no
// cookie is stored yet.
func (c *Client) EnsureCSRF(ctx context.Context) (string, error) {
	if token := c.CSRFToken(); token != "" {
		return token, nil
	}
	res, err := call[struct {
		Token string `json:"csrf_token"`
	}](ctx, c, http.MethodGet, "/auth/csrf", nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	if token := c.CSRFToken(); token != "" {
		return token, nil
	}
	return res.Token, nil
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call sends one request through the dedup group and decodes the data field
// of the response envelope into T.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	if !safeMethod(method) {
		if _, err := c.EnsureCSRF(ctx); err != nil {
			return zero, err
		}
	}

	target := c.base.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	key := inflight.Key(method, target.RequestURI(), payload)

	v, _, err := inflight.Do(ctx, c.group, key, func(ctx context.Context) (T, error) {
		return roundTrip[T](ctx, c, method, target.String(), payload)
	})
	return v, err
}

func roundTrip[T any](ctx context.Context, c *Client, method, target string, payload []byte) (T, error) {
	var zero T

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return zero, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if !safeMethod(method) {
		if csrf := c.CSRFToken(); csrf != "" {
			req.Header.Set(csrfHeaderName, csrf)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, decodeError(resp)
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success && env.Error != nil {
		return zero, &APIError{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
	}
	return env.Data, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env envelope[json.RawMessage]
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		if env.Error.Message != "" {
			apiErr.Message = env.Error.Message
		}
	}
	return apiErr
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
