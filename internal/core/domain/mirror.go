package domain

import (
	"context"
	"time"
)

// SnapshotMirror pushes computed statistics into the server-side cache.
// Mirroring is best effort; callers log and swallow its failures.
type SnapshotMirror interface {
	SetServerCache(ctx context.Context, ownerID string, scope Scope, dateKey string, stats ComputedStatistics, validUntil time.Time) error
}
