package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every call to the identity provider.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// Config configures a GoTrueClient.
type Config struct {
	// URL is the project URL, e.g. https://abc.supabase.co. The client
	// appends /auth/v1 itself.
	URL string

	// APIKey is sent as the apikey header on every request. Clients use the
	// anon key, the server uses the service role key.
	APIKey string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// GoTrueClient is a Backend backed by the Supabase GoTrue REST API.
type GoTrueClient struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a GoTrueClient.
type Option func(*GoTrueClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *GoTrueClient) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *GoTrueClient) {
		c.logger = logger
	}
}

// WithClock overrides the clock used to derive expires_at from expires_in.
func WithClock(now func() time.Time) Option {
	return func(c *GoTrueClient) {
		c.now = now
	}
}

// NewGoTrueClient creates a client for the given project.
func NewGoTrueClient(cfg Config, opts ...Option) (*GoTrueClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("identity provider URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("identity provider API key is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid identity provider URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &GoTrueClient{
		baseURL:    strings.TrimSuffix(cfg.URL, "/") + "/auth/v1",
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	Tokens
	User *User `json:"user"`
}

// errorResponse covers both the OAuth style and the newer GoTrue error bodies.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// SignInWithPassword implements Backend.
func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	body, err := c.do(ctx, "sign in", http.MethodPost, "/token", url.Values{"grant_type": {"password"}},
		credentialsRequest{Email: email, Password: password}, "", ErrInvalidCredentials)
	if err != nil {
		return nil, err
	}
	return c.decodeSession("sign in", body)
}

// SignUp implements Backend.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*User, error) {
	body, err := c.do(ctx, "sign up", http.MethodPost, "/signup", nil,
		credentialsRequest{Email: email, Password: password}, "", nil)
	if err != nil {
		return nil, err
	}

	// With autoconfirm enabled the provider answers with a full session,
	// otherwise with the bare user.
	var wrapped sessionResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, &TransportError{Op: "sign up", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if wrapped.User != nil && wrapped.User.ID != "" {
		return wrapped.User, nil
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil || user.ID == "" {
		return nil, &TransportError{Op: "sign up", Err: fmt.Errorf("%w: response has no user", ErrMalformedResponse)}
	}
	return &user, nil
}

// Refresh implements Backend.
func (c *GoTrueClient) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh: %w", ErrInvalidToken)
	}
	body, err := c.do(ctx, "refresh", http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}},
		refreshRequest{RefreshToken: refreshToken}, "", ErrInvalidToken)
	if err != nil {
		return nil, err
	}
	return c.decodeSession("refresh", body)
}

// SignOut implements Backend.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, "sign out", http.MethodPost, "/logout", nil, nil, accessToken, ErrInvalidToken)
	return err
}

// Introspect implements Backend.
func (c *GoTrueClient) Introspect(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("introspect: %w", ErrInvalidToken)
	}
	body, err := c.do(ctx, "introspect", http.MethodGet, "/user", nil, nil, accessToken, ErrInvalidToken)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &TransportError{Op: "introspect", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if user.ID == "" {
		return nil, &TransportError{Op: "introspect", Err: fmt.Errorf("%w: response has no user id", ErrMalformedResponse)}
	}
	return &user, nil
}

func (c *GoTrueClient) decodeSession(op string, body []byte) (*AuthResponse, error) {
	var resp sessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if resp.AccessToken == "" {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("%w: response has no session", ErrMalformedResponse)}
	}

	tokens := resp.Tokens
	tokens.NormalizeExpiry(c.now())
	if tokens.ExpiresAt == 0 {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("%w: session has no expiry", ErrMalformedResponse)}
	}

	return &AuthResponse{Session: &tokens, User: resp.User}, nil
}

// do sends one request and returns the body of a 2xx answer. 4xx answers
// become *APIError classified as failKind unless the body names a more
// specific cause.
func (c *GoTrueClient) do(ctx context.Context, op, method, path string, query url.Values, payload any, bearer string, failKind error) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	apiErr := parseAPIError(resp.StatusCode, body)
	c.logger.Debug("Identity provider request failed",
		"op", op,
		"status", resp.StatusCode,
		"code", apiErr.Code)

	if resp.StatusCode >= 500 {
		return nil, &TransportError{Op: op, Err: apiErr}
	}

	switch {
	case isEmailNotConfirmed(apiErr):
		apiErr.kind = ErrEmailNotConfirmed
	case failKind == ErrInvalidToken && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
		resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound):
		apiErr.kind = ErrInvalidToken
	case failKind == ErrInvalidCredentials && (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized):
		apiErr.kind = ErrInvalidCredentials
	}

	return nil, apiErr
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return apiErr
	}

	apiErr.Code = e.ErrorCode
	if apiErr.Code == "" {
		apiErr.Code = e.Error
	}
	for _, m := range []string{e.Msg, e.ErrorDescription, e.Message} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	return apiErr
}

func isEmailNotConfirmed(e *APIError) bool {
	return e.Code == "email_not_confirmed" || strings.Contains(strings.ToLower(e.Message), "email not confirmed")
}
