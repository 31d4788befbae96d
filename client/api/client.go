// Package api is a thin JSON client for the storefront HTTP API.
//
// Every endpoint answers with the pkg.APIResponse envelope; Do unwraps it and
// decodes Data into the caller's value. A 401 surfaces as ErrUnauthorized so
// callers holding a session can drop it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

const (
	DefaultBaseURL = "http://localhost:5003/api"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

// ErrUnauthorized is matched by any *Error carrying status 401.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.Status)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets where the bearer token is read from on each request.
// An empty token sends no Authorization header.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// New creates a client rooted at baseURL (e.g. "http://host/api").
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		token:   func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends body as JSON to path and decodes the envelope's data into out.
// out may be nil when the caller does not need the payload.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &Error{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			apiErr.Message = env.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return &Error{Status: resp.StatusCode, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.Do(ctx, http.MethodPost, "/users/login", models.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	req := models.RegisterRequest{Name: name, Email: email, Password: password}
	if err := c.Do(ctx, http.MethodPost, "/users/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Do(ctx, http.MethodGet, "/users/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile returns the updated user with a freshly issued token.
func (c *Client) UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Do(ctx, http.MethodPut, "/users/profile", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword returns the server's reply, which is the same whether or
// not the email is registered.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.Do(ctx, http.MethodPost, "/users/forgot-password", models.ForgotPasswordRequest{Email: email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req *models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	var out models.PaymentIntentResponse
	if err := c.Do(ctx, http.MethodPost, "/stripe/create-payment-intent", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentConfig(ctx context.Context) (*models.PaymentConfigResponse, error) {
	var out models.PaymentConfigResponse
	if err := c.Do(ctx, http.MethodGet, "/stripe/config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
