package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/core/domain"
	"github.com/habitloop/stats-engine/internal/core/stats"
)

// maxHistoryDays bounds how far back completion history is fetched,
// whatever the heatmap window asks for.
const maxHistoryDays = 365

// SyncOutcome is the settled result of one sync cycle.
type SyncOutcome struct {
	// Stats is the recomputed view for the active scope and date, nil
	// when no usable data source was available.
	Stats *domain.ComputedStatistics
	// User is the owner the served dataset belongs to.
	User string
	// Offline marks a cycle that served the local cache after a
	// reachability failure.
	Offline bool
	// Evicted marks a cycle that cleared untrusted cached data.
	Evicted bool
	// Skipped marks a request dropped because a sync was already in
	// flight.
	Skipped     bool
	CompletedAt time.Time
	Err         error
}

// Reconciler owns the in-memory dataset and the sync cycle that keeps
// it aligned with the platform API. All reads served to callers are
// wholesale snapshots taken under the dataset lock.
type Reconciler struct {
	store    domain.LocalStore
	gateway  domain.RemoteGateway
	identity domain.SessionIdentity
	mirrors  []domain.SnapshotMirror
	logger   *zap.Logger
	now      func() time.Time

	inFlight atomic.Bool

	mu           sync.RWMutex
	habits       []domain.Habit
	completions  []domain.Completion
	owner        string
	scope        domain.Scope
	selectedDate time.Time
}

func NewReconciler(store domain.LocalStore, gateway domain.RemoteGateway, identity domain.SessionIdentity, mirrors []domain.SnapshotMirror, logger *zap.Logger) *Reconciler {
	now := time.Now

	return &Reconciler{
		store:        store,
		gateway:      gateway,
		identity:     identity,
		mirrors:      mirrors,
		logger:       logger,
		now:          now,
		scope:        domain.ScopeDaily,
		selectedDate: domain.NormalizeDay(now()),
	}
}

// Open prepares the local store.
func (r *Reconciler) Open(ctx context.Context) error {
	return r.store.Open(ctx)
}

// Close releases the local store.
func (r *Reconciler) Close() error {
	return r.store.Close()
}

// View returns the active scope and selected date.
func (r *Reconciler) View() (domain.Scope, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scope, r.selectedDate
}

// SetScope switches the active scope. The caller validates it.
func (r *Reconciler) SetScope(scope domain.Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scope = scope
}

// SetSelectedDate moves the anchor date, normalized to a UTC day.
func (r *Reconciler) SetSelectedDate(date time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectedDate = domain.NormalizeDay(date)
}

// Owner is the user the in-memory dataset belongs to, empty before the
// first successful sync.
func (r *Reconciler) Owner() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

// Compute reduces the in-memory dataset for the active view. It is
// pure: no storage or network I/O.
func (r *Reconciler) Compute() domain.ComputedStatistics {
	r.mu.RLock()
	habits, completions := r.habits, r.completions
	scope, date := r.scope, r.selectedDate
	r.mu.RUnlock()

	return stats.Compute(habits, completions, scope, date)
}

// Clear wipes the local store and the in-memory dataset.
func (r *Reconciler) Clear(ctx context.Context) error {
	if err := r.store.ClearAll(ctx); err != nil {
		return err
	}
	r.setDataset(nil, nil, "")
	return nil
}

// Sync runs one full reconciliation cycle. At most one cycle runs at a
// time: a request arriving while another is in flight is dropped, since
// the in-flight cycle produces an equally fresh result. onBegin, when
// non-nil, runs once the request has won the in-flight guard and before
// any I/O.
func (r *Reconciler) Sync(ctx context.Context, onBegin func()) SyncOutcome {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("sync already in flight, dropping request")
		return SyncOutcome{Skipped: true}
	}
	defer r.inFlight.Store(false)

	if onBegin != nil {
		onBegin()
	}

	log := r.logger.With(zap.String("sync_id", uuid.NewString()[:8]))
	started := r.now()

	scope, date := r.View()
	since := r.sinceFor(scope, date)
	log.Info("sync started",
		zap.String("scope", string(scope)),
		zap.String("date", domain.DayKey(date)),
		zap.Time("since", since))

	meta, metaErr := r.store.GetMetadata(ctx)
	storageOK := metaErr == nil || errors.Is(metaErr, domain.ErrMetadataNotFound)
	if !storageOK {
		log.Warn("metadata read failed, treating local cache as unusable", zap.Error(metaErr))
		meta = nil
	}

	habits, fetchedOwner, err := r.gateway.FetchHabits(ctx)
	if err != nil {
		return r.fallback(ctx, log, meta, storageOK, started, err)
	}

	if r.identity != nil {
		if sessionUser, idErr := r.identity.CurrentUserID(); idErr == nil && sessionUser != fetchedOwner {
			log.Warn("session subject disagrees with server-reported owner",
				zap.String("session_user", sessionUser),
				zap.String("server_user", fetchedOwner))
		}
	}

	evicted := false
	if reason := cacheTrustViolation(meta, fetchedOwner, len(habits)); reason != "" {
		log.Warn("clearing untrusted local cache", zap.String("reason", reason))
		evicted = true
		r.setDataset(nil, nil, "")
		if clearErr := r.store.ClearAll(ctx); clearErr != nil {
			log.Error("cache clear failed, refusing to persist into it", zap.Error(clearErr))
			storageOK = false
		}
		meta = nil
	}

	completions, err := r.gateway.FetchCompletions(ctx, since)
	if err != nil {
		out := r.fallback(ctx, log, meta, storageOK, started, err)
		out.Evicted = out.Evicted || evicted
		return out
	}
	completions = filterToOwner(completions, fetchedOwner)

	r.setDataset(habits, completions, fetchedOwner)

	if storageOK {
		r.persist(ctx, log, habits, completions, fetchedOwner, started)
	} else {
		log.Warn("skipping persistence, local store unusable this cycle")
	}

	return r.finish(ctx, log, SyncOutcome{User: fetchedOwner, Evicted: evicted, CompletedAt: r.now()})
}

// fallback handles a failed remote fetch: authentication failures
// propagate untouched, reachability and server failures serve the local
// cache when it is trusted, and everything else surfaces as an error
// with the prior dataset left in place.
func (r *Reconciler) fallback(ctx context.Context, log *zap.Logger, meta *domain.SyncMetadata, storageOK bool, started time.Time, fetchErr error) SyncOutcome {
	completedAt := r.now()

	if errors.Is(fetchErr, domain.ErrUnauthenticated) {
		log.Warn("sync rejected, session unauthenticated")
		return SyncOutcome{Err: fetchErr, CompletedAt: completedAt}
	}

	if !storageOK || !meta.Tagged() || !meta.SchemaCurrent() {
		log.Warn("offline with no trusted local cache", zap.Error(fetchErr))
		return SyncOutcome{Err: fetchErr, CompletedAt: completedAt}
	}

	if r.identity != nil {
		if sessionUser, idErr := r.identity.CurrentUserID(); idErr == nil && sessionUser != meta.UserID {
			log.Warn("cached data belongs to another user, clearing instead of serving it",
				zap.String("session_user", sessionUser),
				zap.String("cache_user", meta.UserID))
			if clearErr := r.store.ClearAll(ctx); clearErr != nil {
				log.Error("cache clear failed", zap.Error(clearErr))
			}
			r.setDataset(nil, nil, "")
			return SyncOutcome{Err: fetchErr, Evicted: true, CompletedAt: completedAt}
		}
	}

	habits, hErr := r.store.GetHabits(ctx)
	if hErr != nil {
		log.Warn("offline fallback failed reading habits", zap.Error(hErr))
		return SyncOutcome{Err: fetchErr, CompletedAt: completedAt}
	}
	completions, cErr := r.store.GetCompletions(ctx)
	if cErr != nil {
		log.Warn("offline fallback failed reading completions", zap.Error(cErr))
		return SyncOutcome{Err: fetchErr, CompletedAt: completedAt}
	}

	r.setDataset(habits, completions, meta.UserID)
	log.Info("serving local cache while offline",
		zap.Int("habits", len(habits)),
		zap.Int("completions", len(completions)))

	return r.finish(ctx, log, SyncOutcome{User: meta.UserID, Offline: true, CompletedAt: r.now()})
}

// finish recomputes for the view active at completion time and, on an
// online success, mirrors the snapshot.
func (r *Reconciler) finish(ctx context.Context, log *zap.Logger, out SyncOutcome) SyncOutcome {
	computed := r.Compute()
	out.Stats = &computed

	if !out.Offline && out.Err == nil {
		r.mirror(ctx, log, out.User, computed)
	}

	log.Info("sync settled",
		zap.Bool("offline", out.Offline),
		zap.String("user", out.User))
	return out
}

func (r *Reconciler) persist(ctx context.Context, log *zap.Logger, habits []domain.Habit, completions []domain.Completion, owner string, syncedAt time.Time) {
	ok := true
	if err := r.store.SaveHabits(ctx, habits); err != nil {
		log.Warn("persisting habits failed, serving in-memory data", zap.Error(err))
		ok = false
	}
	if err := r.store.UpsertCompletions(ctx, completions); err != nil {
		log.Warn("persisting completions failed, serving in-memory data", zap.Error(err))
		ok = false
	}
	if !ok {
		// Without the data writes a fresh ownership tag would vouch for
		// stale rows, so the metadata write is skipped too.
		return
	}

	meta := domain.SyncMetadata{
		LastHabitsSync:      &syncedAt,
		LastCompletionsSync: &syncedAt,
		SchemaVersion:       domain.CurrentSchemaVersion,
		UserID:              owner,
	}
	if err := r.store.SaveMetadata(ctx, meta); err != nil {
		log.Warn("persisting metadata failed", zap.Error(err))
	}
}

func (r *Reconciler) mirror(ctx context.Context, log *zap.Logger, owner string, computed domain.ComputedStatistics) {
	validUntil := r.now().Add(time.Hour)
	for _, m := range r.mirrors {
		if err := m.SetServerCache(ctx, owner, computed.Scope, computed.Date, computed, validUntil); err != nil {
			log.Warn("snapshot mirror failed", zap.Error(err))
		}
	}
}

// sinceFor bounds the completion fetch window: the heatmap lookback
// start, capped at maxHistoryDays back from now.
func (r *Reconciler) sinceFor(scope domain.Scope, date time.Time) time.Time {
	heatmapStart := stats.HeatmapRange(scope, date).From
	oldest := domain.NormalizeDay(r.now().AddDate(0, 0, -maxHistoryDays))

	if oldest.Before(heatmapStart) {
		return oldest
	}
	return heatmapStart
}

func (r *Reconciler) setDataset(habits []domain.Habit, completions []domain.Completion, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.habits = habits
	r.completions = completions
	r.owner = owner
}

// cacheTrustViolation names the first reason the cached dataset cannot
// be trusted against the freshly fetched owner, or returns "".
func cacheTrustViolation(meta *domain.SyncMetadata, fetchedOwner string, habitCount int) string {
	if meta == nil {
		return ""
	}
	if meta.HasSynced() && !meta.Tagged() {
		return "synced cache carries no ownership tag"
	}
	if meta.Tagged() && meta.UserID != fetchedOwner {
		return "cache owned by another user"
	}
	if habitCount == 0 && meta.HasSynced() {
		return "server reports zero habits over previously synced data"
	}
	if !meta.SchemaCurrent() {
		return "cache written under a different schema version"
	}
	return ""
}

func filterToOwner(completions []domain.Completion, owner string) []domain.Completion {
	kept := completions[:0]
	for _, c := range completions {
		if c.UserID == "" || c.UserID == owner {
			kept = append(kept, c)
		}
	}
	return kept
}
