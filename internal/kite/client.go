// Package kite implements the small slice of the Kite Connect v3 REST API
// the auth bridge needs: login URL construction, request-token exchange,
// profile lookup, and session invalidation.
package kite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the Kite Connect API root.
const DefaultBaseURL = "https://api.kite.trade"

// DefaultLoginBaseURL is the interactive login endpoint users are redirected to.
const DefaultLoginBaseURL = "https://kite.zerodha.com/connect/login"

// Client is a minimal Kite Connect API client.
type Client struct {
	apiKey      string
	apiSecret   string
	accessToken string
	loginBase   string
	http        *resty.Client
}

// Session is the result of exchanging a request token.
type Session struct {
	AccessToken string `json:"access_token"`
	PublicToken string `json:"public_token"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Email       string `json:"email"`
}

// Profile is the subset of the user profile the bridge reports.
type Profile struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// apiEnvelope is the standard Kite response wrapper.
type apiEnvelope[T any] struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
	Data      T      `json:"data"`
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (used by tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(base)
	}
}

// WithLoginBaseURL overrides the interactive login endpoint (used by tests).
func WithLoginBaseURL(base string) Option {
	return func(c *Client) {
		c.loginBase = base
	}
}

// New creates a Client for the given API credentials.
func New(apiKey, apiSecret string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		loginBase: DefaultLoginBaseURL,
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetHeader("X-Kite-Version", "3"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAccessToken attaches a previously stored access token to the client.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// AccessToken returns the current access token ("" if unauthenticated).
func (c *Client) AccessToken() string {
	return c.accessToken
}

// LoginURL returns the URL the user must visit to authorize the app.
func (c *Client) LoginURL() string {
	q := url.Values{}
	q.Set("v", "3")
	q.Set("api_key", c.apiKey)
	return c.loginBase + "?" + q.Encode()
}

// GenerateSession exchanges a request token for an access token.
// The checksum is SHA-256 over api_key + request_token + api_secret,
// hex-encoded, per the Kite Connect v3 contract.
func (c *Client) GenerateSession(ctx context.Context, requestToken string) (*Session, error) {
	if requestToken == "" {
		return nil, fmt.Errorf("request token is required")
	}

	sum := sha256.Sum256([]byte(c.apiKey + requestToken + c.apiSecret))

	var out apiEnvelope[Session]
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"api_key":       c.apiKey,
			"request_token": requestToken,
			"checksum":      hex.EncodeToString(sum[:]),
		}).
		SetResult(&out).
		SetError(&out).
		Post("/session/token")
	if err != nil {
		return nil, fmt.Errorf("session token request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp.StatusCode(), out.Message, out.ErrorType)
	}

	c.accessToken = out.Data.AccessToken
	return &out.Data, nil
}

// Profile fetches the authenticated user's profile. It doubles as the
// cheapest way to validate a stored access token.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	if c.accessToken == "" {
		return nil, fmt.Errorf("not authenticated")
	}

	var out apiEnvelope[Profile]
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.authHeader()).
		SetResult(&out).
		SetError(&out).
		Get("/user/profile")
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp.StatusCode(), out.Message, out.ErrorType)
	}

	return &out.Data, nil
}

// InvalidateSession deletes the current session on the API side.
func (c *Client) InvalidateSession(ctx context.Context) error {
	if c.accessToken == "" {
		return nil
	}

	var out apiEnvelope[struct{}]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":      c.apiKey,
			"access_token": c.accessToken,
		}).
		SetResult(&out).
		SetError(&out).
		Delete("/session/token")
	if err != nil {
		return fmt.Errorf("session invalidation request failed: %w", err)
	}
	if resp.IsError() {
		return apiError(resp.StatusCode(), out.Message, out.ErrorType)
	}

	c.accessToken = ""
	return nil
}

func (c *Client) authHeader() string {
	return "token " + c.apiKey + ":" + c.accessToken
}

func apiError(status int, message, errorType string) error {
	if message == "" {
		message = "unexpected response"
	}
	if errorType != "" {
		return fmt.Errorf("kite api error (%d %s): %s", status, errorType, message)
	}
	return fmt.Errorf("kite api error (%d): %s", status, message)
}
