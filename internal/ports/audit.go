package ports

import "context"

// AuditLog records workflow events for the compliance trail.
// Implementations are best-effort: AppendEvent never returns an error
// and must never block the primary workflow on failure.
type AuditLog interface {
	AppendEvent(ctx context.Context, eventType string, payload map[string]string)
}
