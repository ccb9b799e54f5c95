package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/yonetim/adminpanel/internal/platform/httpx"
	"github.com/yonetim/adminpanel/internal/shared"
)

// Per-user CSV export budget.
const (
	exportLimit  = 10
	exportWindow = time.Minute
)

// MountRoutes registers the audit API under /api/audit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleRecent)
	r.Get("/logs", h.handleTimeline)
	r.Get("/me/logins", h.handleLoginHistory)
	r.With(exportLimiter()).Get("/logs/export.csv", h.handleExport)
}

func exportLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(exportLimit, exportWindow,
		httprate.WithKeyFuncs(exportKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			httpx.Fail(w, http.StatusTooManyRequests, "Too many exports, try again in a minute")
		}),
	)
}

// exportKey buckets by signed-in user, falling back to the client IP.
func exportKey(r *http.Request) (string, error) {
	if identity := shared.IdentityFromContext(r.Context()); identity != nil && identity.ID != "" {
		return "user:" + identity.ID, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}
