// Package supabase is a small typed client for the hosted auth (GoTrue) service.
package supabase

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

	"github.com/yonetim/adminpanel/internal/shared"
)

const maxErrorBody = 64 << 10

// Client talks to the GoTrue REST API of a Supabase project.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

// Config collects client settings.
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// NewClient constructs a new client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceRoleKey,
		httpClient: httpClient,
	}
}

// HasServiceKey reports whether admin endpoints can be used.
func (c *Client) HasServiceKey() bool {
	return c.serviceKey != ""
}

// GetUser resolves the user owning accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, c.anonKey, accessToken, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Code: "user_not_found", Message: "empty user"}
	}
	return &user, nil
}

// RefreshSession exchanges a refresh token for a new token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*AuthSession, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var sess AuthSession
	query := url.Values{"grant_type": {"refresh_token"}}
	if err := c.do(ctx, http.MethodPost, "/token", query, c.anonKey, "", body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignInWithPassword performs the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	body := map[string]string{"email": email, "password": password}
	var sess AuthSession
	query := url.Values{"grant_type": {"password"}}
	if err := c.do(ctx, http.MethodPost, "/token", query, c.anonKey, "", body, &sess); err != nil {
		if IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
		}
		return nil, err
	}
	return &sess, nil
}

// UpdatePassword changes the password of the user owning accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	body := map[string]string{"password": password}
	return c.do(ctx, http.MethodPut, "/user", nil, c.anonKey, accessToken, body, nil)
}

// SignOut terminates sessions of the user owning accessToken within scope.
func (c *Client) SignOut(ctx context.Context, accessToken string, scope LogoutScope) error {
	if scope == "" {
		scope = ScopeLocal
	}
	query := url.Values{"scope": {string(scope)}}
	return c.do(ctx, http.MethodPost, "/logout", query, c.anonKey, accessToken, nil, nil)
}

// AdminUpdatePassword sets a user's password with the service role credential.
func (c *Client) AdminUpdatePassword(ctx context.Context, userID, password string) error {
	if !c.HasServiceKey() {
		return shared.ErrServiceKeyMissing
	}
	body := map[string]string{"password": password}
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(userID), nil, c.serviceKey, c.serviceKey, body, nil)
}

// SendPasswordRecovery emails a recovery link to the address.
func (c *Client) SendPasswordRecovery(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/recover", nil, c.anonKey, "", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, apiKey, bearer string, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("supabase: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &eb)
		}
		return eb.apiError(resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("supabase: decode %s: %w", path, err)
	}
	return nil
}
