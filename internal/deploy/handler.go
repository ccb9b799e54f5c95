package deploy

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yonetim/adminpanel/internal/platform/httpx"
	"github.com/yonetim/adminpanel/internal/shared"
)

// Handler exposes the deploy trigger endpoint.
type Handler struct {
	logger   *slog.Logger
	throttle *Throttle
}

// NewHandler constructs a deploy handler.
func NewHandler(logger *slog.Logger, throttle *Throttle) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, throttle: throttle}
}

// MountRoutes registers deploy routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleTrigger)
	r.Get("/status", h.handleStatus)
}

func (h *Handler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	result, err := h.throttle.TryTrigger(r.Context(), identity)
	if err != nil {
		h.logger.Warn("deploy hook unreachable", slog.Any("error", err))
	}
	switch result.Status {
	case StatusCooldown:
		httpx.JSON(w, http.StatusTooManyRequests, map[string]any{
			"ok":        false,
			"error":     "Cooldown",
			"remaining": result.Remaining,
		})
	case StatusHookMissing:
		httpx.Fail(w, http.StatusInternalServerError, "Missing DEPLOY_HOOK_URL")
	case StatusHookFailed:
		httpx.JSON(w, http.StatusBadGateway, map[string]any{"ok": false, "status": result.HookStatus})
	default:
		httpx.OK(w, map[string]any{"status": result.HookStatus})
	}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, map[string]any{
		"remaining":        h.throttle.Remaining(r.Context()),
		"cooldown_seconds": int(h.throttle.Cooldown().Seconds()),
		"hook_configured":  h.throttle.HookConfigured(),
	})
}
