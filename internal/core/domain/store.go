package domain

import (
	"context"
	"errors"
)

var (
	// ErrStorageUnavailable marks Local Store I/O failures. Callers
	// treat it as "cache unavailable", never as "no data exists".
	ErrStorageUnavailable = errors.New("local store unavailable")

	// ErrMetadataNotFound is returned when no sync metadata has been
	// written yet. First runs hit this; it is not a failure.
	ErrMetadataNotFound = errors.New("sync metadata not found")
)

// LocalStore is the durable on-device cache holding raw habit records,
// completion records, and sync metadata.
type LocalStore interface {
	// Open prepares persistence. Calling it again after a success is a
	// no-op.
	Open(ctx context.Context) error

	GetHabits(ctx context.Context) ([]Habit, error)

	// SaveHabits replaces the stored habit list wholesale.
	SaveHabits(ctx context.Context, habits []Habit) error

	GetCompletions(ctx context.Context) ([]Completion, error)

	// UpsertCompletions appends or replaces completions keyed by
	// (habit, calendar day).
	UpsertCompletions(ctx context.Context, completions []Completion) error

	// GetMetadata returns ErrMetadataNotFound when nothing has been
	// stored yet.
	GetMetadata(ctx context.Context) (*SyncMetadata, error)

	SaveMetadata(ctx context.Context, meta SyncMetadata) error

	// ClearAll wipes habits, completions, and metadata atomically.
	ClearAll(ctx context.Context) error

	Close() error
}
