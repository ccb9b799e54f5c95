// Package httpx provides HTTP response utilities for the panel's JSON API.
package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Envelope is the error body returned by every API endpoint.
type Envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends {"ok":true} merged with the optional extra fields.
func OK(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range extra {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

// Fail sends {"ok":false,"error":message}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{OK: false, Error: message})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// IsJSON reports whether the request body is JSON.
func IsJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// ClientIP returns the first X-Forwarded-For value, or "" when the header is absent.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return ""
}
