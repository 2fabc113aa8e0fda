package domain

import (
	"errors"
	"time"
)

// CurrentSchemaVersion tags locally cached data. Bump it when the
// cached layout changes incompatibly; the reconciler clears caches
// written under a different version.
const CurrentSchemaVersion = 1

// ErrOwnershipMismatch classifies cached data that belongs to another
// user. It stays internal to the reconciler, which reacts by clearing
// the cache; it never surfaces as a user-facing error.
var ErrOwnershipMismatch = errors.New("cached data belongs to another user")

// SyncMetadata describes the provenance of the locally cached dataset.
type SyncMetadata struct {
	LastHabitsSync      *time.Time `json:"last_habits_sync,omitempty"`
	LastCompletionsSync *time.Time `json:"last_completions_sync,omitempty"`
	SchemaVersion       int        `json:"schema_version"`
	// UserID is the ownership tag. A cache that has synced but carries
	// no tag predates identity tagging and must not be served.
	UserID string `json:"user_id"`
}

// HasSynced reports whether any successful sync ever completed.
func (m *SyncMetadata) HasSynced() bool {
	return m != nil && (m.LastHabitsSync != nil || m.LastCompletionsSync != nil)
}

// Tagged reports whether the cache carries an ownership tag.
func (m *SyncMetadata) Tagged() bool {
	return m != nil && m.UserID != ""
}

// SchemaCurrent reports whether the cache was written under the
// engine's current schema version.
func (m *SyncMetadata) SchemaCurrent() bool {
	return m != nil && m.SchemaVersion == CurrentSchemaVersion
}
