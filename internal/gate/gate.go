// Package gate decides, once per request, whether a caller may reach a route.
package gate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yonetim/adminpanel/internal/shared"
)

const (
	// SignInPath is where unauthenticated callers are sent.
	SignInPath = "/auth/sign-in"
	// HomePath is where signed-in callers are sent away from auth pages.
	HomePath = "/"
	// DefaultTimeout bounds identity and role resolution.
	DefaultTimeout = 3 * time.Second
)

// IdentityResolver resolves the caller's session. A nil session with a nil
// error means anonymous. Implementations may write refreshed cookies onto w.
type IdentityResolver interface {
	Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (*shared.Session, error)
}

// RoleLookup returns a user's stored role, RoleNone when no profile exists.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (shared.Role, error)
}

// DecisionRecorder counts gate outcomes.
type DecisionRecorder interface {
	GateDecision(class, outcome string)
}

// Outcome labels used for metrics and logs.
const (
	OutcomeAllowed        = "allowed"
	OutcomeSignIn         = "redirect_sign_in"
	OutcomeHome           = "redirect_home"
	OutcomeAway           = "redirect_away"
	OutcomeBackendFault   = "backend_fault"
	outcomeSuperadminOnly = "redirect_home_superadmin"
)

// Decision is the result of evaluating one request.
type Decision struct {
	Allowed        bool
	Location       string
	Outcome        string
	Classification Classification
	Session        *shared.Session
	Role           shared.Role
}

// Config carries gate settings.
type Config struct {
	// FallbackURL receives signed-in callers without an admin-tier role.
	FallbackURL string
	Timeout     time.Duration
}

// Engine evaluates requests against the route classification.
type Engine struct {
	resolver IdentityResolver
	roles    RoleLookup
	metrics  DecisionRecorder
	logger   *slog.Logger
	fallback string
	timeout  time.Duration
}

// NewEngine constructs an Engine. metrics may be nil.
func NewEngine(resolver IdentityResolver, roles RoleLookup, cfg Config, metrics DecisionRecorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	fallback := cfg.FallbackURL
	if fallback == "" {
		fallback = SignInPath
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		resolver: resolver,
		roles:    roles,
		metrics:  metrics,
		logger:   logger,
		fallback: fallback,
		timeout:  timeout,
	}
}

// Decide evaluates r. The first matching rule is terminal.
func (e *Engine) Decide(w http.ResponseWriter, r *http.Request) Decision {
	class := Classify(r.URL.Path)
	d := e.decide(w, r, class)
	d.Classification = class
	e.record(class.Class, d.Outcome)
	return d
}

func (e *Engine) decide(w http.ResponseWriter, r *http.Request, class Classification) Decision {
	if class.Class == ClassPublicAsset {
		return allow(nil, shared.RoleNone)
	}

	hasCookies := shared.HasSessionCookies(r)
	if class.Class == ClassProtected && !hasCookies {
		return redirect(SignInPath, OutcomeSignIn)
	}
	if class.Class == ClassPublicAuth && !hasCookies {
		return allow(nil, shared.RoleNone)
	}

	ctx, cancel := context.WithTimeout(r.Context(), e.timeout)
	defer cancel()

	sess, err := e.resolver.Resolve(ctx, w, r)
	if err != nil {
		e.fault(class.Class, r, "identity resolution failed", err)
		sess = nil
	}
	identified := sess != nil && sess.Identity != nil

	if class.Class == ClassPublicAuth {
		if identified {
			return redirect(HomePath, OutcomeHome)
		}
		return allow(nil, shared.RoleNone)
	}

	if !identified {
		return redirect(SignInPath, OutcomeSignIn)
	}

	role, err := e.roles.RoleOf(ctx, sess.Identity.ID)
	if err != nil {
		e.fault(class.Class, r, "role lookup failed", err)
		role = shared.RoleNone
	}
	if !role.IsAdminTier() {
		return redirect(e.fallback, OutcomeAway)
	}
	if class.SuperadminOnly && !role.IsSuperadmin() {
		return redirect(HomePath, outcomeSuperadminOnly)
	}
	return allow(sess, role)
}

func (e *Engine) fault(class Class, r *http.Request, msg string, err error) {
	e.logger.Warn(msg,
		slog.String("path", r.URL.Path),
		slog.String("class", class.String()),
		slog.Any("error", err),
	)
	e.record(class, OutcomeBackendFault)
}

func (e *Engine) record(class Class, outcome string) {
	if e.metrics != nil {
		e.metrics.GateDecision(class.String(), outcome)
	}
}

func allow(sess *shared.Session, role shared.Role) Decision {
	return Decision{Allowed: true, Outcome: OutcomeAllowed, Session: sess, Role: role}
}

func redirect(location, outcome string) Decision {
	return Decision{Location: location, Outcome: outcome}
}
