package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnauthenticated is a 401 from the remote API. It propagates to
	// the UI for re-login and never triggers an offline fallback.
	ErrUnauthenticated = errors.New("remote session unauthenticated")

	// ErrUnreachable is a transport-level fetch failure.
	ErrUnreachable = errors.New("remote api unreachable")

	// ErrServerError is a non-401 failure response or an undecodable
	// payload.
	ErrServerError = errors.New("remote api error")
)

// RemoteGateway is the thin client for the remote source of truth.
type RemoteGateway interface {
	// FetchHabits returns the current user's habits together with the
	// owning-user identifier embedded in the response, which is trusted
	// as ground truth for the current session.
	FetchHabits(ctx context.Context) ([]Habit, string, error)

	// FetchCompletions returns all completions dated on or after since.
	FetchCompletions(ctx context.Context, since time.Time) ([]Completion, error)

	// Ping probes reachability without transferring records.
	Ping(ctx context.Context) error
}
