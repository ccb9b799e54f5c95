package auth

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/yonetim/adminpanel/internal/platform/httpx"
	"github.com/yonetim/adminpanel/internal/shared"
)

const (
	signInRateLimit  = 10
	signInRateWindow = time.Minute
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	cookies   shared.CookieWriter
	auditor   shared.Auditor
	pages     fs.FS
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. pages holds sign-in.html,
// forgot-password.html and reset-password.html.
func NewHandler(logger *slog.Logger, service *Service, cookies shared.CookieWriter, auditor shared.Auditor, pages fs.FS) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Handler{
		logger:    logger,
		service:   service,
		cookies:   cookies,
		auditor:   auditor,
		pages:     pages,
		validator: validator.New(),
	}
}

// MountRoutes registers the public auth pages on the /auth router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sign-in", h.page("sign-in.html"))
	r.With(httprate.LimitByIP(signInRateLimit, signInRateWindow)).Post("/sign-in", h.handleSignIn)
	r.Get("/forgot-password", h.page("forgot-password.html"))
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Get("/reset-password", h.page("reset-password.html"))
	r.Post("/reset-password", h.handleResetPassword)
}

// MountAPI registers the session management API on the /api/auth router.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/sign-out", h.handleSignOut)
	r.Post("/change-password", h.handleChangePassword)
	r.Post("/admin-reset-password", h.handleAdminResetPassword)
	r.Post("/signout-others", h.handleSignOutOthers)
}

func (h *Handler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.pages == nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFileFS(w, r, h.pages, name)
	}
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var form signInForm
	if httpx.IsJSON(r) {
		if err := httpx.DecodeJSON(r, &form); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	} else {
		form.Email = r.FormValue("email")
		form.Password = r.FormValue("password")
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := h.validator.Struct(form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	grant, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Fail(w, http.StatusBadRequest, "Invalid login credentials")
			return
		}
		h.logger.Error("sign in failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Sign in is temporarily unavailable")
		return
	}
	h.cookies.Write(w, grant.Tokens())

	sess := &shared.Session{AccessToken: grant.AccessToken, RefreshToken: grant.RefreshToken, Identity: grant.User.Identity()}
	h.auditor.Record(shared.ContextWithSession(r.Context(), sess), shared.AuditEvent{Action: "login", EntityType: "auth"})

	if httpx.IsJSON(r) {
		httpx.OK(w, nil)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var form forgotForm
	if httpx.IsJSON(r) {
		_ = httpx.DecodeJSON(r, &form)
	} else {
		form.Email = r.FormValue("email")
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := h.validator.Struct(form); err == nil {
		if err := h.service.RequestRecovery(r.Context(), form.Email); err != nil {
			h.logger.Warn("password recovery request failed", slog.Any("error", err))
		}
	}
	httpx.OK(w, nil)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var form resetForm
	if httpx.IsJSON(r) {
		if err := httpx.DecodeJSON(r, &form); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	} else {
		form.AccessToken = r.FormValue("access_token")
		form.Password = r.FormValue("password")
		form.Confirm = r.FormValue("confirm")
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "A recovery token and a password of at least 8 characters are required")
		return
	}
	if err := h.service.ResetPassword(r.Context(), form.AccessToken, form.Password, form.Confirm); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			httpx.Fail(w, http.StatusBadRequest, "Passwords do not match")
			return
		}
		h.logger.Error("password reset failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.Identity != nil {
		if err := h.service.SignOut(r.Context(), sess.AccessToken); err != nil {
			h.logger.Warn("sign out failed", slog.Any("error", err))
		}
		h.auditor.Record(r.Context(), shared.AuditEvent{Action: "logout", EntityType: "auth"})
	}
	h.cookies.Clear(w)
	if httpx.IsJSON(r) || r.Header.Get("Accept") == "application/json" {
		httpx.OK(w, nil)
		return
	}
	http.Redirect(w, r, "/auth/sign-in", http.StatusSeeOther)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	if !shared.RoleFromContext(r.Context()).IsAdminTier() {
		httpx.Fail(w, http.StatusForbidden, "Forbidden")
		return
	}
	form := changePasswordForm{
		Current: r.FormValue("current"),
		Next:    r.FormValue("next"),
		Confirm: r.FormValue("confirm"),
	}
	err := h.service.ChangePassword(r.Context(), sess, form.Current, form.Next, form.Confirm)
	switch {
	case errors.Is(err, ErrPasswordMismatch):
		httpx.Fail(w, http.StatusBadRequest, "Passwords do not match")
		return
	case errors.Is(err, ErrCurrentPassword):
		httpx.Fail(w, http.StatusBadRequest, "Current password is incorrect")
		return
	case err != nil:
		h.logger.Error("change password failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.auditor.Record(r.Context(), shared.AuditEvent{Action: "password_changed", EntityType: "auth"})
	httpx.OK(w, nil)
}

func (h *Handler) handleAdminResetPassword(w http.ResponseWriter, r *http.Request) {
	if !shared.RoleFromContext(r.Context()).IsAdminTier() {
		httpx.Fail(w, http.StatusForbidden, "Forbidden")
		return
	}
	form := adminResetForm{
		UserID:      strings.TrimSpace(r.FormValue("userId")),
		NewPassword: r.FormValue("newPassword"),
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Missing fields")
		return
	}
	if err := h.service.AdminResetPassword(r.Context(), form.UserID, form.NewPassword); err != nil {
		if errors.Is(err, shared.ErrServiceKeyMissing) {
			httpx.Fail(w, http.StatusInternalServerError, "Service role key not configured")
			return
		}
		h.logger.Error("admin password reset failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.auditor.Record(r.Context(), shared.AuditEvent{
		Action:     "admin_password_reset",
		EntityType: "profile",
		EntityID:   form.UserID,
	})
	httpx.OK(w, nil)
}

func (h *Handler) handleSignOutOthers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	err := h.service.SignOutOthers(r.Context(), sess.AccessToken)
	h.auditor.Record(r.Context(), shared.AuditEvent{Action: "signout_others", EntityType: "auth"})
	if err != nil {
		h.logger.Error("sign out others failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (*shared.Session, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.Identity == nil {
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return sess, true
}
