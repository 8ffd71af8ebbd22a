// Package authapi talks to the backend's unauthenticated auth endpoints.
// It deliberately bypasses the authenticated pipeline: a 401 from login means
// bad credentials, not an expired session.
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-client/internal/apiclient"
	userdomain "portfolio-client/internal/user/domain"
)

const defaultTimeout = 15 * time.Second

var (
	// ErrInvalidCredentials is returned by Login when the backend answers 401.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrInvalidResponse is returned when a 2xx body is empty or not the expected JSON.
	ErrInvalidResponse = errors.New("unexpected empty or invalid response from server")
)

// StatusError is a login failure with a non-2xx status other than 401.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("login failed (status %d)", e.StatusCode)
}

// RegisterError is a registration rejected by the backend.
type RegisterError struct {
	StatusCode int
	Detail     string
}

func (e *RegisterError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("registration failed (%d)", e.StatusCode)
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	User        *userdomain.User `json:"user"`
}

// Client calls {BaseURL}/auth/*, where BaseURL includes the API prefix (e.g. http://localhost:8000/api/v1).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for baseURL. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Login exchanges email and password for an access token. The email is sent as
// the form field "username".
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.postForm(ctx, "/auth/login", url.Values{
		"username": {email},
		"password": {password},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	var out LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", ErrInvalidResponse)
	}
	if err := out.User.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &out, nil
}

// Register creates an account. It does not sign the user in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*userdomain.User, error) {
	resp, err := c.postForm(ctx, "/auth/register", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read register response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &RegisterError{StatusCode: resp.StatusCode}
		if msg, ok := apiclient.DetailMessage(body); ok {
			rerr.Detail = msg
		}
		return nil, rerr
	}
	var u userdomain.User
	if len(body) == 0 {
		return nil, ErrInvalidResponse
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &u, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request %s: %w", path, err)
	}
	return resp, nil
}
