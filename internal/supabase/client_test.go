package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonetim/adminpanel/internal/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, serviceKey string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{URL: srv.URL + "/", AnonKey: "anon", ServiceRoleKey: serviceKey})
}

func TestGetUserSendsKeyAndBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "u-1", "email": "a@example.org"})
	}, "")

	user, err := client.GetUser(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, &shared.Identity{ID: "u-1", Email: "a@example.org"}, user.Identity())
}

func TestGetUserRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":401,"error_code":"bad_jwt","msg":"invalid JWT"}`))
	}, "")

	_, err := client.GetUser(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad_jwt", apiErr.Code)
	assert.Equal(t, "invalid JWT", apiErr.Message)
}

func TestServerErrorIsNotUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, "")

	_, err := client.GetUser(context.Background(), "token")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
}

func TestRefreshSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["refresh_token"] != "refresh-1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-2",
			"refresh_token": "refresh-2",
			"expires_in":    3600,
			"user":          map[string]any{"id": "u-1", "email": "a@example.org"},
		})
	}, "")

	sess, err := client.RefreshSession(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", sess.AccessToken)
	assert.Equal(t, "refresh-2", sess.Tokens().RefreshToken)
	assert.Equal(t, "u-1", sess.User.ID)

	_, err = client.RefreshSession(context.Background(), "stale")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestSignInWithPasswordInvalidCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}, "")

	_, err := client.SignInWithPassword(context.Background(), "a@example.org", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignOutScope(t *testing.T) {
	var scope string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		scope = r.URL.Query().Get("scope")
		w.WriteHeader(http.StatusNoContent)
	}, "")

	require.NoError(t, client.SignOut(context.Background(), "access", ScopeOthers))
	assert.Equal(t, "others", scope)
	require.NoError(t, client.SignOut(context.Background(), "access", ""))
	assert.Equal(t, "local", scope)
}

func TestAdminUpdatePasswordRequiresServiceKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, "")
	err := client.AdminUpdatePassword(context.Background(), "u-2", "secret123")
	assert.ErrorIs(t, err, shared.ErrServiceKeyMissing)
}

func TestAdminUpdatePasswordUsesServiceKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/v1/admin/users/u-2", r.URL.Path)
		assert.Equal(t, "service", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"u-2"}`))
	}, "service")
	require.NoError(t, client.AdminUpdatePassword(context.Background(), "u-2", "secret123"))
}
