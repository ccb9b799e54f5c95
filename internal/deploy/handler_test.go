package deploy

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonetim/adminpanel/internal/shared"
)

func newDeployRouter(throttle *Throttle, identified bool) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if identified {
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Session{Identity: actor}, shared.RoleAdmin))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/deploy", NewHandler(nil, throttle).MountRoutes)
	return r
}

func post(h http.Handler) (*httptest.ResponseRecorder, map[string]any) {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/deploy", nil))
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr, body
}

func TestHandlerUnauthorized(t *testing.T) {
	clock := &fakeClock{now: t0}
	rr, body := post(newDeployRouter(newThrottle(&memStore{}, NewMemoryTracker(), &stubHook{status: 200}, nil, clock), false))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Unauthorized", body["error"])
}

func TestHandlerSuccessThenCooldown(t *testing.T) {
	clock := &fakeClock{now: t0}
	router := newDeployRouter(newThrottle(&memStore{}, NewMemoryTracker(), &stubHook{status: 201}, nil, clock), true)

	rr, body := post(router)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(201), body["status"])

	clock.Advance(179 * time.Second)
	rr, body = post(router)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Cooldown", body["error"])
	assert.Equal(t, float64(1), body["remaining"])
}

func TestHandlerHookMissing(t *testing.T) {
	clock := &fakeClock{now: t0}
	throttle := NewThrottle(&memStore{}, NewMemoryTracker(), nil, nil, Options{Clock: clock.Now})
	rr, body := post(newDeployRouter(throttle, true))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Missing DEPLOY_HOOK_URL", body["error"])
}

func TestHandlerHookFailure(t *testing.T) {
	clock := &fakeClock{now: t0}
	rr, body := post(newDeployRouter(newThrottle(&memStore{}, NewMemoryTracker(), &stubHook{status: 503}, nil, clock), true))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, float64(503), body["status"])

	clock2 := &fakeClock{now: t0}
	rr, body = post(newDeployRouter(newThrottle(&memStore{}, NewMemoryTracker(), &stubHook{err: errors.New("timeout")}, nil, clock2), true))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, float64(0), body["status"])
}

func TestHandlerStatus(t *testing.T) {
	clock := &fakeClock{now: t0.Add(30 * time.Second)}
	throttle := newThrottle(&memStore{latest: t0}, NewMemoryTracker(), &stubHook{status: 200}, nil, clock)
	rr := httptest.NewRecorder()
	newDeployRouter(throttle, true).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/deploy/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(150), body["remaining"])
	assert.Equal(t, float64(180), body["cooldown_seconds"])
	assert.Equal(t, true, body["hook_configured"])
}

