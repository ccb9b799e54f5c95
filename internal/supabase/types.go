package supabase

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yonetim/adminpanel/internal/shared"
)

// User is the subset of the GoTrue user object the panel relies on.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Identity converts the user into the panel's identity type.
func (u *User) Identity() *shared.Identity {
	if u == nil || u.ID == "" {
		return nil
	}
	return &shared.Identity{ID: u.ID, Email: u.Email}
}

// AuthSession is a token grant response.
type AuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// Tokens converts the grant into the cookie token pair.
func (s *AuthSession) Tokens() shared.Tokens {
	return shared.Tokens{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    time.Duration(s.ExpiresIn) * time.Second,
	}
}

// LogoutScope selects which sessions a logout call terminates.
type LogoutScope string

const (
	ScopeGlobal LogoutScope = "global"
	ScopeLocal  LogoutScope = "local"
	ScopeOthers LogoutScope = "others"
)

// APIError is a non-2xx response from the auth service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err means the presented credentials were rejected,
// as opposed to the service being unavailable.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest, http.StatusNotFound:
		switch apiErr.Code {
		case "invalid_grant", "refresh_token_not_found", "refresh_token_already_used",
			"session_not_found", "user_not_found", "bad_jwt", "invalid_credentials":
			return true
		}
	}
	return false
}

// errorBody covers the error shapes GoTrue returns across versions.
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b errorBody) apiError(status int) *APIError {
	e := &APIError{Status: status}
	switch {
	case b.ErrorCode != "":
		e.Code = b.ErrorCode
	case b.Error != "":
		e.Code = b.Error
	}
	switch {
	case b.Msg != "":
		e.Message = b.Msg
	case b.ErrorDescription != "":
		e.Message = b.ErrorDescription
	case b.Message != "":
		e.Message = b.Message
	case b.Error != "":
		e.Message = b.Error
	default:
		e.Message = http.StatusText(status)
	}
	return e
}
