package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yonetim/adminpanel/internal/shared"
	"github.com/yonetim/adminpanel/internal/supabase"
)

var (
	// ErrPasswordMismatch means the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrCurrentPassword means re-authentication with the current password failed.
	ErrCurrentPassword = errors.New("current password is incorrect")
)

// Service wraps authentication business rules.
type Service struct {
	backend Backend
}

// NewService constructs a new Service.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Authenticate performs the password grant.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*supabase.AuthSession, error) {
	return s.backend.SignInWithPassword(ctx, strings.TrimSpace(email), password)
}

// ChangePassword re-authenticates the caller with current before setting next.
func (s *Service) ChangePassword(ctx context.Context, sess *shared.Session, current, next, confirm string) error {
	if next == "" || next != confirm {
		return ErrPasswordMismatch
	}
	if _, err := s.backend.SignInWithPassword(ctx, sess.Identity.Email, current); err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			return ErrCurrentPassword
		}
		return fmt.Errorf("auth: re-authenticate: %w", err)
	}
	return s.backend.UpdatePassword(ctx, sess.AccessToken, next)
}

// ResetPassword sets a new password using a recovery access token.
func (s *Service) ResetPassword(ctx context.Context, recoveryToken, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	return s.backend.UpdatePassword(ctx, recoveryToken, password)
}

// AdminResetPassword sets another user's password with the service credential.
func (s *Service) AdminResetPassword(ctx context.Context, userID, password string) error {
	return s.backend.AdminUpdatePassword(ctx, userID, password)
}

// RequestRecovery emails a recovery link.
func (s *Service) RequestRecovery(ctx context.Context, email string) error {
	return s.backend.SendPasswordRecovery(ctx, strings.TrimSpace(email))
}

// SignOut ends the current session.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	return s.backend.SignOut(ctx, accessToken, supabase.ScopeLocal)
}

// SignOutOthers ends every other session of the caller.
func (s *Service) SignOutOthers(ctx context.Context, accessToken string) error {
	return s.backend.SignOut(ctx, accessToken, supabase.ScopeOthers)
}
