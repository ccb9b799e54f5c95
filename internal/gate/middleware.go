package gate

import (
	"net/http"

	"github.com/yonetim/adminpanel/internal/shared"
)

// Middleware runs the gate before any handler. Allowed requests carry the
// resolved session and role in their context.
func (e *Engine) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := e.Decide(w, r)
		if !d.Allowed {
			http.Redirect(w, r, d.Location, http.StatusFound)
			return
		}
		if d.Session != nil {
			r = r.WithContext(shared.ContextWithPrincipal(r.Context(), d.Session, d.Role))
		}
		next.ServeHTTP(w, r)
	})
}
