package perf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/yonetim/adminpanel/internal/gate"
	"github.com/yonetim/adminpanel/internal/shared"
)

type staticResolver struct{ sess *shared.Session }

func (s staticResolver) Resolve(context.Context, http.ResponseWriter, *http.Request) (*shared.Session, error) {
	return s.sess, nil
}

type staticRoles struct{ role shared.Role }

func (s staticRoles) RoleOf(context.Context, string) (shared.Role, error) {
	return s.role, nil
}

func newGatedHandler() http.Handler {
	sess := &shared.Session{AccessToken: "a", RefreshToken: "r", Identity: &shared.Identity{ID: "u-1"}}
	engine := gate.NewEngine(staticResolver{sess: sess}, staticRoles{role: shared.RoleAdmin}, gate.Config{}, nil, nil)
	return engine.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func gatedRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: shared.AccessTokenCookie, Value: "a"})
	req.AddCookie(&http.Cookie{Name: shared.RefreshTokenCookie, Value: "r"})
	return req
}

// Gate overhead with in-process identity and role lookups.
func TestGateOverheadTargets(t *testing.T) {
	handler := newGatedHandler()
	scenarios := []struct {
		name      string
		path      string
		threshold time.Duration
	}{
		{name: "asset", path: "/static/app.css", threshold: 5 * time.Millisecond},
		{name: "protected", path: "/content/news", threshold: 10 * time.Millisecond},
		{name: "public_auth", path: "/auth/sign-in", threshold: 10 * time.Millisecond},
	}

	for _, scenario := range scenarios {
		samples := make([]time.Duration, 0, 200)
		for range 200 {
			rr := httptest.NewRecorder()
			start := time.Now()
			handler.ServeHTTP(rr, gatedRequest(scenario.path))
			samples = append(samples, time.Since(start))
		}
		p95 := percentile95(samples)
		if p95 > scenario.threshold {
			t.Fatalf("%s gate latency regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func BenchmarkClassify(b *testing.B) {
	paths := []string{"/", "/static/app.css", "/auth/sign-in", "/content/news/42", "/system", "/logo.svg"}
	for i := 0; b.Loop(); i++ {
		gate.Classify(paths[i%len(paths)])
	}
}

func BenchmarkGateProtectedRoute(b *testing.B) {
	handler := newGatedHandler()
	for b.Loop() {
		handler.ServeHTTP(httptest.NewRecorder(), gatedRequest("/content/news"))
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
