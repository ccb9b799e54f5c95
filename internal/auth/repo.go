package auth

import (
	"context"

	"github.com/yonetim/adminpanel/internal/supabase"
)

// Backend defines the auth service operations the panel uses.
type Backend interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.AuthSession, error)
	UpdatePassword(ctx context.Context, accessToken, password string) error
	SignOut(ctx context.Context, accessToken string, scope supabase.LogoutScope) error
	AdminUpdatePassword(ctx context.Context, userID, password string) error
	SendPasswordRecovery(ctx context.Context, email string) error
}

var _ Backend = (*supabase.Client)(nil)
