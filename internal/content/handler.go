package content

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yonetim/adminpanel/internal/platform/httpx"
	"github.com/yonetim/adminpanel/internal/shared"
)

// Handler exposes content CRUD and the dashboard summary.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auditor   shared.Auditor
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, auditor shared.Auditor) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Handler{logger: logger, service: service, auditor: auditor, validator: validator.New()}
}

// MountRoutes registers /{kind} collections on the /content router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Post("/{id}/publish", h.publish)
		r.Post("/{id}/unpublish", h.unpublish)
		r.Delete("/{id}", h.delete)
	})
}

// Dashboard serves per-kind counts and upcoming events.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("dashboard summary failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"summary": summary})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), kind, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list content failed", slog.String("kind", string(kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"items": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := itemParams(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), kind, id)
	if err != nil {
		h.respondServiceError(w, "get content failed", err)
		return
	}
	httpx.OK(w, map[string]any{"item": item})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	var actorID string
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		actorID = identity.ID
	}
	item, err := h.service.Create(r.Context(), kind, actorID, in)
	if err != nil {
		h.respondServiceError(w, "create content failed", err)
		return
	}
	suffix := "_created_draft"
	if item.Published() {
		suffix = "_created_published"
	}
	h.record(r, kind, suffix, item.ID, item.Title)
	httpx.JSON(w, http.StatusCreated, map[string]any{"ok": true, "item": item})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := itemParams(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	item, err := h.service.Update(r.Context(), kind, id, in)
	if err != nil {
		h.respondServiceError(w, "update content failed", err)
		return
	}
	h.record(r, kind, "_updated", item.ID, item.Title)
	httpx.OK(w, map[string]any{"item": item})
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := itemParams(w, r)
	if !ok {
		return
	}
	if err := h.service.Publish(r.Context(), kind, id); err != nil {
		h.respondServiceError(w, "publish content failed", err)
		return
	}
	h.record(r, kind, "_published", id, "")
	httpx.OK(w, nil)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := itemParams(w, r)
	if !ok {
		return
	}
	if err := h.service.Unpublish(r.Context(), kind, id); err != nil {
		h.respondServiceError(w, "unpublish content failed", err)
		return
	}
	h.record(r, kind, "_unpublished", id, "")
	httpx.OK(w, nil)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := itemParams(w, r)
	if !ok {
		return
	}
	if !shared.CapabilitiesFor(shared.RoleFromContext(r.Context())).CanDeleteContent {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	if err := h.service.Delete(r.Context(), kind, id); err != nil {
		h.respondServiceError(w, "delete content failed", err)
		return
	}
	h.record(r, kind, "_deleted", id, "")
	httpx.OK(w, nil)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid JSON")
		return Input{}, false
	}
	in.Normalize()
	if err := h.validator.Struct(in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Title is required")
		return Input{}, false
	}
	return in, true
}

func (h *Handler) record(r *http.Request, kind Kind, suffix, id, title string) {
	event := shared.AuditEvent{
		Action:     kind.Singular() + suffix,
		EntityType: kind.Singular(),
		EntityID:   id,
	}
	if title != "" {
		event.Metadata = map[string]any{"title": title}
	}
	h.auditor.Record(r.Context(), event)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, httpx.ErrDuplicate):
		httpx.Fail(w, http.StatusConflict, "Slug already in use")
	case errors.Is(err, httpx.ErrValidation):
		httpx.Fail(w, http.StatusBadRequest, "Title is required")
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func kindParam(w http.ResponseWriter, r *http.Request) (Kind, bool) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return "", false
	}
	return kind, true
}

func itemParams(w http.ResponseWriter, r *http.Request) (Kind, string, bool) {
	kind, ok := kindParam(w, r)
	if !ok {
		return "", "", false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid id")
		return "", "", false
	}
	return kind, id.String(), true
}
