package shared

import "context"

type sessionContextKey struct{}

type roleContextKey struct{}

// ContextWithSession stores the resolved session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// IdentityFromContext returns the authenticated identity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.Identity
	}
	return nil
}

// ContextWithRole memoizes the caller's role for the rest of the request.
func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext returns the memoized role, or RoleNone.
func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(roleContextKey{}).(Role)
	return role
}

// ContextWithPrincipal is a convenience used by the gate and tests.
func ContextWithPrincipal(ctx context.Context, sess *Session, role Role) context.Context {
	return ContextWithRole(ContextWithSession(ctx, sess), role)
}
