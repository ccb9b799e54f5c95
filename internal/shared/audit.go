package shared

import "context"

// AuditEvent describes a security-relevant action performed by the current caller.
type AuditEvent struct {
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]any
}

// Auditor records audit events on a best-effort basis. Implementations never block
// the caller on storage and never report storage failures.
type Auditor interface {
	Record(ctx context.Context, event AuditEvent)
}

// NopAuditor discards events.
type NopAuditor struct{}

// Record implements Auditor.
func (NopAuditor) Record(context.Context, AuditEvent) {}
