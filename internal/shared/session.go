package shared

import (
	"net/http"
	"time"
)

const (
	// AccessTokenCookie carries the backend access token (JWT).
	AccessTokenCookie = "sb-access-token"
	// RefreshTokenCookie carries the backend refresh token.
	RefreshTokenCookie = "sb-refresh-token"
)

// refreshCookieTTL bounds how long a refresh token cookie survives in the browser.
const refreshCookieTTL = 30 * 24 * time.Hour

// Session holds the credentials of the current request.
type Session struct {
	AccessToken  string
	RefreshToken string
	Identity     *Identity
}

// Tokens is a freshly issued access/refresh token pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// CookieWriter writes and clears the session cookie pair.
type CookieWriter struct {
	secure bool
}

// NewCookieWriter constructs a CookieWriter. Secure cookies are used in production.
func NewCookieWriter(secure bool) CookieWriter {
	return CookieWriter{secure: secure}
}

// HasSessionCookies reports whether both session cookies are present and non-empty.
func HasSessionCookies(r *http.Request) bool {
	return cookieValue(r, AccessTokenCookie) != "" && cookieValue(r, RefreshTokenCookie) != ""
}

// SessionCookies returns the raw access and refresh tokens from the request.
func SessionCookies(r *http.Request) (access, refresh string) {
	return cookieValue(r, AccessTokenCookie), cookieValue(r, RefreshTokenCookie)
}

// Write stores the token pair on the response.
func (c CookieWriter) Write(w http.ResponseWriter, tokens Tokens) {
	accessTTL := tokens.ExpiresIn
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	http.SetCookie(w, c.cookie(AccessTokenCookie, tokens.AccessToken, accessTTL))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, tokens.RefreshToken, refreshCookieTTL))
}

// Clear expires both session cookies.
func (c CookieWriter) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c CookieWriter) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
