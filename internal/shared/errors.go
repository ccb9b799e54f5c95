package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrServiceKeyMissing is returned when an elevated credential is required but absent.
	ErrServiceKeyMissing = errors.New("service role key not configured")
)
