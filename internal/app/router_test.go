package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonetim/adminpanel/internal/auth"
	"github.com/yonetim/adminpanel/internal/deploy"
	"github.com/yonetim/adminpanel/internal/gate"
	"github.com/yonetim/adminpanel/internal/observability"
	"github.com/yonetim/adminpanel/internal/profiles"
	"github.com/yonetim/adminpanel/internal/shared"
	"github.com/yonetim/adminpanel/internal/supabase"
	"github.com/yonetim/adminpanel/web"
)

type fixedResolver struct{}

func (fixedResolver) Resolve(_ context.Context, _ http.ResponseWriter, r *http.Request) (*shared.Session, error) {
	access, refresh := shared.SessionCookies(r)
	return &shared.Session{AccessToken: access, RefreshToken: refresh, Identity: &shared.Identity{ID: "u-1", Email: "root@example.org"}}, nil
}

type fixedRoles shared.Role

func (f fixedRoles) RoleOf(context.Context, string) (shared.Role, error) {
	return shared.Role(f), nil
}

type noTriggers struct{}

func (noTriggers) LatestTrigger(context.Context) (time.Time, error) { return time.Time{}, nil }
func (noTriggers) RecordTrigger(context.Context, deploy.Trigger) error { return nil }

func newTestRouter(t *testing.T, role shared.Role) http.Handler {
	t.Helper()
	return newTestRouterWithLogger(t, role, nil)
}

func newTestRouterWithLogger(t *testing.T, role shared.Role, logger *slog.Logger) http.Handler {
	t.Helper()
	cfg := &Config{AppEnv: "test", AuditMode: AuditModeDirect, RateLimitPerMinute: 1000, AppRequestTimeout: 5 * time.Second}
	metrics := observability.NewMetrics()
	engine := gate.NewEngine(fixedResolver{}, fixedRoles(role), gate.Config{}, metrics, nil)

	backend := supabase.NewClient(supabase.Config{URL: "http://127.0.0.1:0", AnonKey: "anon"})
	authHandler := auth.NewHandler(nil, auth.NewService(backend), shared.NewCookieWriter(false), nil, web.AuthPages())

	throttle := deploy.NewThrottle(noTriggers{}, deploy.NewMemoryTracker(), nil, nil, deploy.Options{})
	return NewRouter(RouterParams{
		Logger:          logger,
		Config:          cfg,
		Gate:            engine,
		Metrics:         metrics,
		AuthHandler:     authHandler,
		ProfilesHandler: profiles.NewHandler(nil, profiles.NewService(nil), nil),
		DeployHandler:   deploy.NewHandler(nil, throttle),
		SystemHandler:   NewSystemHandler(cfg, throttle, nil, nil),
	})
}

func get(h http.Handler, target string, withCookies bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if withCookies {
		req.AddCookie(&http.Cookie{Name: shared.AccessTokenCookie, Value: "a"})
		req.AddCookie(&http.Cookie{Name: shared.RefreshTokenCookie, Value: "r"})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthzIsPublic(t *testing.T) {
	rr := get(newTestRouter(t, shared.RoleNone), "/healthz", false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestAccessLogWrittenOnceThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{AppEnv: "production", LogFormat: "json"}, &buf)
	rr := get(newTestRouterWithLogger(t, shared.RoleNone, logger), "/healthz", false)
	require.Equal(t, http.StatusOK, rr.Code)

	var access []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry), string(line))
		if msg, _ := entry["msg"].(string); strings.Contains(msg, "/healthz") {
			access = append(access, entry)
		}
	}
	require.Len(t, access, 1)
	assert.Equal(t, "production", access[0]["env"])
}

func TestStaticAssetsAreCached(t *testing.T) {
	rr := get(newTestRouter(t, shared.RoleNone), "/static/auth/auth.css", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
}

func TestProtectedRoutesRedirectAnonymous(t *testing.T) {
	router := newTestRouter(t, shared.RoleAdmin)
	for _, target := range []string{"/", "/api/me", "/content/news", "/metrics", "/system"} {
		rr := get(router, target, false)
		assert.Equal(t, http.StatusFound, rr.Code, target)
		assert.Equal(t, gate.SignInPath, rr.Header().Get("Location"), target)
	}
}

func TestSignInPageServedAnonymously(t *testing.T) {
	rr := get(newTestRouter(t, shared.RoleNone), "/auth/sign-in", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<form")
}

func TestSignedInCallerLeavesSignInPage(t *testing.T) {
	rr := get(newTestRouter(t, shared.RoleAdmin), "/auth/sign-in", true)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, gate.HomePath, rr.Header().Get("Location"))
}

func TestAdminReachesMeButNotSystem(t *testing.T) {
	router := newTestRouter(t, shared.RoleAdmin)

	rr := get(router, "/api/me", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"admin"`)

	rr = get(router, "/system", true)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, gate.HomePath, rr.Header().Get("Location"))
}

func TestSuperadminSeesSystemStatus(t *testing.T) {
	rr := get(newTestRouter(t, shared.RoleSuperadmin), "/system", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cooldown_seconds":180`)
	assert.Contains(t, rr.Body.String(), `"hook_configured":false`)
}

func TestUserRoleIsSentAway(t *testing.T) {
	rr := get(newTestRouter(t, shared.RoleUser), "/api/me", true)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, gate.SignInPath, rr.Header().Get("Location"))
}

func TestMetricsRecordGateDecisions(t *testing.T) {
	router := newTestRouter(t, shared.RoleAdmin)
	_ = get(router, "/api/me", false)
	rr := get(router, "/metrics", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `adminpanel_gate_decisions_total{class="protected",outcome="redirect_sign_in"} 1`)
}
