package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/yonetim/adminpanel/internal/audit/http"
	"github.com/yonetim/adminpanel/internal/auth"
	"github.com/yonetim/adminpanel/internal/content"
	"github.com/yonetim/adminpanel/internal/deploy"
	"github.com/yonetim/adminpanel/internal/gate"
	"github.com/yonetim/adminpanel/internal/observability"
	"github.com/yonetim/adminpanel/internal/profiles"
	"github.com/yonetim/adminpanel/jobs"
	"github.com/yonetim/adminpanel/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Gate            *gate.Engine
	Metrics         *observability.Metrics
	AuthHandler     *auth.Handler
	ProfilesHandler *profiles.Handler
	ContentHandler  *content.Handler
	AuditHandler    *audithttp.Handler
	DeployHandler   *deploy.Handler
	JobHandler      *jobs.Handler
	SystemHandler   http.Handler
}

// NewRouter constructs the chi.Router with the panel defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Gate:    params.Gate,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(web.Assets())))
	r.Handle("/static/*", staticCacheHandler(fileServer))

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/api/auth", params.AuthHandler.MountAPI)
	}
	if params.ProfilesHandler != nil {
		r.Get("/api/me", params.ProfilesHandler.Me)
		r.Route("/users", params.ProfilesHandler.MountRoutes)
	}
	if params.ContentHandler != nil {
		r.Get("/", params.ContentHandler.Dashboard)
		r.Get("/api/dashboard/summary", params.ContentHandler.Dashboard)
		r.Route("/content", params.ContentHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/api/audit", params.AuditHandler.MountRoutes)
	}
	if params.DeployHandler != nil {
		r.Route("/api/deploy", params.DeployHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/api/jobs", params.JobHandler.MountRoutes)
	}
	if params.SystemHandler != nil {
		r.Method(http.MethodGet, "/system", params.SystemHandler)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for 1 hour in browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
