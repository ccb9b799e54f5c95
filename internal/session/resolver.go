// Package session resolves the request's backend session from its cookie pair.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yonetim/adminpanel/internal/shared"
	"github.com/yonetim/adminpanel/internal/supabase"
)

// DefaultRefreshSkew refreshes tokens slightly before they expire.
const DefaultRefreshSkew = 30 * time.Second

// Backend is the subset of the auth client the resolver needs.
type Backend interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.AuthSession, error)
}

// Resolver turns the cookie pair into a Session, refreshing it when needed.
type Resolver struct {
	backend Backend
	cookies shared.CookieWriter
	logger  *slog.Logger
	now     func() time.Time
	skew    time.Duration
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithClock injects the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRefreshSkew overrides DefaultRefreshSkew.
func WithRefreshSkew(skew time.Duration) Option {
	return func(r *Resolver) {
		if skew >= 0 {
			r.skew = skew
		}
	}
}

// NewResolver constructs a Resolver.
func NewResolver(backend Backend, cookies shared.CookieWriter, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		backend: backend,
		cookies: cookies,
		logger:  logger,
		now:     time.Now,
		skew:    DefaultRefreshSkew,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the session for req. A nil session with a nil error means the
// caller is anonymous (missing cookies or credentials the backend rejected).
// Refreshed tokens are written onto w; rejected ones are cleared.
// A non-nil error means the backend could not be consulted.
func (r *Resolver) Resolve(ctx context.Context, w http.ResponseWriter, req *http.Request) (*shared.Session, error) {
	access, refresh := shared.SessionCookies(req)
	if access == "" || refresh == "" {
		return nil, nil
	}

	if !r.expiresSoon(access) {
		user, err := r.backend.GetUser(ctx, access)
		switch {
		case err == nil:
			return &shared.Session{AccessToken: access, RefreshToken: refresh, Identity: user.Identity()}, nil
		case !supabase.IsUnauthorized(err):
			return nil, fmt.Errorf("session: get user: %w", err)
		}
	}

	return r.refresh(ctx, w, refresh)
}

func (r *Resolver) refresh(ctx context.Context, w http.ResponseWriter, refreshToken string) (*shared.Session, error) {
	grant, err := r.backend.RefreshSession(ctx, refreshToken)
	if err != nil {
		if supabase.IsUnauthorized(err) {
			r.logger.Debug("session refresh rejected", slog.Any("error", err))
			r.cookies.Clear(w)
			return nil, nil
		}
		return nil, fmt.Errorf("session: refresh: %w", err)
	}
	r.cookies.Write(w, grant.Tokens())

	identity := grant.User.Identity()
	if identity == nil {
		user, err := r.backend.GetUser(ctx, grant.AccessToken)
		if err != nil {
			if supabase.IsUnauthorized(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("session: get refreshed user: %w", err)
		}
		identity = user.Identity()
	}
	return &shared.Session{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Identity:     identity,
	}, nil
}

// expiresSoon reads the unverified exp claim. Tokens without a readable
// expiry are left to the backend to judge.
func (r *Resolver) expiresSoon(accessToken string) bool {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !r.now().Add(r.skew).Before(exp.Time)
}
