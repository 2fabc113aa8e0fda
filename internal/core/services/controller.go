package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

// subscriberBuffer is how many unread state snapshots a subscriber may
// fall behind before updates are dropped for it.
const subscriberBuffer = 8

// Controller owns the authoritative EngineState and fans every change
// out to subscribers. All mutations go through publish, so consumers
// only ever observe complete snapshots.
type Controller struct {
	recon  *Reconciler
	logger *zap.Logger

	mu    sync.RWMutex
	state domain.EngineState
	subs  map[string]chan domain.EngineState
}

func NewController(recon *Reconciler, logger *zap.Logger) *Controller {
	scope, date := recon.View()

	return &Controller{
		recon:  recon,
		logger: logger,
		state: domain.EngineState{
			Scope:        scope,
			SelectedDate: domain.DayKey(date),
		},
		subs: make(map[string]chan domain.EngineState),
	}
}

// Initialize opens the local store and runs the first sync. Loading
// stays true until that sync settles, whatever its outcome.
func (c *Controller) Initialize(ctx context.Context) error {
	c.publish(func(s *domain.EngineState) {
		s.Loading = true
		s.Error = ""
	})

	if err := c.recon.Open(ctx); err != nil {
		// The engine still works from the network; only offline
		// fallback and persistence are lost.
		c.logger.Warn("local store failed to open", zap.Error(err))
	}

	out := c.runSync(ctx)
	return out.Err
}

// SetScope validates and switches the aggregation scope, recomputing
// from in-memory data only.
func (c *Controller) SetScope(ctx context.Context, scope string) error {
	parsed, err := domain.ParseScope(scope)
	if err != nil {
		return err
	}

	c.recon.SetScope(parsed)
	computed := c.recon.Compute()

	c.publish(func(s *domain.EngineState) {
		s.Scope = parsed
		s.Stats = &computed
	})
	return nil
}

// SetSelectedDate moves the anchor date, recomputing from in-memory
// data only.
func (c *Controller) SetSelectedDate(ctx context.Context, date time.Time) {
	c.recon.SetSelectedDate(date)
	computed := c.recon.Compute()

	c.publish(func(s *domain.EngineState) {
		s.SelectedDate = computed.Date
		s.Stats = &computed
	})
}

// Refresh runs a full sync cycle and returns its outcome. Concurrent
// refreshes collapse into the in-flight cycle.
func (c *Controller) Refresh(ctx context.Context) SyncOutcome {
	return c.runSync(ctx)
}

// ClearCache wipes the local store and in-memory dataset, then syncs
// from scratch.
func (c *Controller) ClearCache(ctx context.Context) error {
	if err := c.recon.Clear(ctx); err != nil {
		c.publish(func(s *domain.EngineState) {
			s.Error = errorMessage(err)
		})
		return err
	}

	c.publish(func(s *domain.EngineState) {
		s.Stats = nil
		s.Error = ""
	})

	c.runSync(ctx)
	return nil
}

// State returns the current snapshot.
func (c *Controller) State() domain.EngineState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Offline reports the sticky connectivity classification of the last
// sync.
func (c *Controller) Offline() bool {
	return c.State().Offline
}

// Subscribe registers a state listener. Every published snapshot is
// delivered in order; a subscriber that stops draining its channel
// loses updates rather than blocking the publisher. The returned cancel
// is idempotent.
func (c *Controller) Subscribe() (string, <-chan domain.EngineState, func()) {
	id := uuid.NewString()
	ch := make(chan domain.EngineState, subscriberBuffer)

	c.mu.Lock()
	c.subs[id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}

	return id, ch, cancel
}

// Close drops all subscribers and releases the reconciler's store.
func (c *Controller) Close() error {
	c.mu.Lock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	return c.recon.Close()
}

func (c *Controller) runSync(ctx context.Context) SyncOutcome {
	out := c.recon.Sync(ctx, func() {
		c.publish(func(s *domain.EngineState) {
			s.Syncing = true
		})
	})
	if out.Skipped {
		return out
	}

	c.publish(func(s *domain.EngineState) {
		s.Syncing = false
		s.Loading = false
		completedAt := out.CompletedAt
		s.LastSync = &completedAt

		if out.Err != nil {
			s.Error = errorMessage(out.Err)
			if out.Evicted {
				s.Stats = nil
			}
			return
		}

		s.Error = ""
		s.Offline = out.Offline
		s.Stats = out.Stats
	})

	return out
}

// publish applies one mutation and delivers the resulting snapshot to
// every subscriber without ever blocking on a slow one.
func (c *Controller) publish(mutate func(*domain.EngineState)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mutate(&c.state)
	snapshot := c.state

	for id, ch := range c.subs {
		select {
		case ch <- snapshot:
		default:
			c.logger.Warn("subscriber lagging, dropping state update", zap.String("subscriber", id))
		}
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "session is not authenticated"
	case errors.Is(err, domain.ErrUnreachable):
		return "server unreachable and no usable local data"
	case errors.Is(err, domain.ErrServerError):
		return "server error and no usable local data"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "local storage unavailable"
	default:
		return "sync failed"
	}
}
