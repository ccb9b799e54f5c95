package app

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/yonetim/adminpanel/internal/deploy"
	"github.com/yonetim/adminpanel/internal/platform/httpx"
	"github.com/yonetim/adminpanel/jobs"
)

// SystemHandler reports runtime status on the superadmin-only /system page.
type SystemHandler struct {
	config  *Config
	deploy  *deploy.Throttle
	queue   jobs.QueueInspector
	logger  *slog.Logger
	started time.Time
}

// NewSystemHandler builds a SystemHandler. queue may be nil when audit delivery is inline.
func NewSystemHandler(cfg *Config, throttle *deploy.Throttle, queue jobs.QueueInspector, logger *slog.Logger) *SystemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemHandler{config: cfg, deploy: throttle, queue: queue, logger: logger, started: time.Now()}
}

// ServeHTTP implements http.Handler.
func (h *SystemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"env":        h.config.AppEnv,
		"audit_mode": h.config.AuditMode,
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"go_version": runtime.Version(),
	}
	if h.deploy != nil {
		body["deploy"] = map[string]any{
			"cooldown_seconds": int(h.deploy.Cooldown().Seconds()),
			"remaining":        h.deploy.Remaining(r.Context()),
			"hook_configured":  h.deploy.HookConfigured(),
		}
	}
	if h.queue != nil {
		info, err := h.queue.GetQueueInfo(jobs.QueueDefault)
		if err != nil {
			h.logger.Warn("system queue info", slog.Any("error", err))
			body["queue"] = map[string]any{"error": err.Error()}
		} else if info != nil {
			body["queue"] = map[string]any{
				"name":      info.Queue,
				"pending":   info.Pending,
				"active":    info.Active,
				"retry":     info.Retry,
				"archived":  info.Archived,
				"processed": info.Processed,
				"failed":    info.Failed,
			}
		}
	}
	httpx.OK(w, map[string]any{"system": body})
}
