package profiles

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

// Handler manages profile endpoints.
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

// MountRoutes registers the user administration routes. The gate restricts the prefix to superadmins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listProfiles)
	r.Patch("/{id}/role", h.changeRole)
	r.Delete("/{id}", h.deleteProfile)
}

// Me serves the caller's identity, role, capabilities and navigation.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	me := Describe(identity, shared.RoleFromContext(r.Context()))
	httpx.OK(w, map[string]any{"me": me})
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListProfiles(r.Context())
	if err != nil {
		h.logger.Error("list profiles failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if profiles == nil {
		profiles = []Profile{}
	}
	httpx.OK(w, map[string]any{"users": profiles})
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Role must be user or admin")
		return
	}
	role := shared.ParseRole(req.Role)
	if err := h.service.ChangeRole(r.Context(), id, role); err != nil {
		h.respondServiceError(w, "change role failed", err)
		return
	}
	h.auditor.Record(r.Context(), shared.AuditEvent{
		Action:     "role_changed",
		EntityType: "profile",
		EntityID:   id,
		Metadata:   map[string]any{"role": role.String()},
	})
	httpx.OK(w, nil)
}

func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteProfile(r.Context(), identity.ID, id); err != nil {
		h.respondServiceError(w, "delete profile failed", err)
		return
	}
	h.auditor.Record(r.Context(), shared.AuditEvent{
		Action:     "profile_deleted",
		EntityType: "profile",
		EntityID:   id,
	})
	httpx.OK(w, nil)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrSelfDelete), errors.Is(err, ErrRoleNotAssignable):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func profileID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid user id")
		return "", false
	}
	return id.String(), true
}
