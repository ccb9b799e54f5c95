package audithttp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yonetim/adminpanel/internal/audit"
	"github.com/yonetim/adminpanel/internal/platform/httpx"
	"github.com/yonetim/adminpanel/internal/shared"
)

// TimelineService defines the business contract for audit data.
type TimelineService interface {
	Append(ctx context.Context, e audit.Entry) error
	Recent(ctx context.Context) ([]audit.Entry, error)
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.Entry, error)
	LoginHistory(ctx context.Context, actorID string) ([]audit.Entry, error)
}

// Handler serves the audit API.
type Handler struct {
	logger    *slog.Logger
	service   TimelineService
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler constructs an audit handler.
func NewHandler(logger *slog.Logger, service TimelineService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		now:       time.Now,
	}
}

type createRequest struct {
	Action     string         `json:"action" validate:"required"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Metadata   map[string]any `json:"metadata"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if shared.IdentityFromContext(r.Context()) == nil {
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Fail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Action = strings.TrimSpace(req.Action)
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Missing action")
		return
	}
	entry := audit.EntryFromContext(r.Context(), shared.AuditEvent{
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Metadata:   req.Metadata,
	}, h.now())
	if err := h.service.Append(r.Context(), entry); err != nil {
		h.handleServerError(w, "insert audit entry", err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	entries, err := h.service.Recent(r.Context())
	if err != nil {
		h.handleServerError(w, "load recent audit entries", err)
		return
	}
	httpx.OK(w, map[string]any{"logs": entries})
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "load audit timeline", err)
		return
	}
	httpx.OK(w, map[string]any{
		"logs":       audit.Labelled(result.Entries),
		"pagination": result.Pagination,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "export audit timeline", err)
		return
	}
	csvBytes, err := audit.WriteCSV(entries)
	if err != nil {
		h.handleServerError(w, "encode csv", err)
		return
	}
	filename := "audit-logs-" + h.now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	if _, err := w.Write(csvBytes); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func (h *Handler) handleLoginHistory(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	entries, err := h.service.LoginHistory(r.Context(), identity.ID)
	if err != nil {
		h.handleServerError(w, "load login history", err)
		return
	}
	httpx.OK(w, map[string]any{"logs": audit.Labelled(entries)})
}

// authorize admits admin-tier callers and writes 403 otherwise.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if !shared.RoleFromContext(r.Context()).IsAdminTier() {
		httpx.Fail(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.Fail(w, http.StatusInternalServerError, err.Error())
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return "invalid " + v.field
}

func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	page := 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, validationError{field: "page"}
		}
		page = parsed
	}
	return audit.TimelineFilters{
		Action:   strings.TrimSpace(q.Get("action")),
		Actor:    strings.TrimSpace(q.Get("actor")),
		Page:     page,
		PageSize: audit.PageSize,
	}, nil
}
