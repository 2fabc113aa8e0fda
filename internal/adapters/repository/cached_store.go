package repository

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

var _ domain.LocalStore = (*CachedStore)(nil)

const (
	cacheKeyHabits      = "habits"
	cacheKeyCompletions = "completions"
	cacheKeyMetadata    = "metadata"

	cacheTTL = 30 * time.Minute
)

// CachedStore keeps hot reads of the local store in an in-process
// ristretto cache. Reads serve from cache when present; every write
// goes to the inner store first and then drops the stale key.
type CachedStore struct {
	next   domain.LocalStore
	cache  *ristretto.Cache
	logger *zap.Logger
}

func NewCachedStore(next domain.LocalStore, logger *zap.Logger) (*CachedStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &CachedStore{
		next:   next,
		cache:  cache,
		logger: logger,
	}, nil
}

func (s *CachedStore) Open(ctx context.Context) error {
	return s.next.Open(ctx)
}

func (s *CachedStore) GetHabits(ctx context.Context) ([]domain.Habit, error) {
	if v, ok := s.cache.Get(cacheKeyHabits); ok {
		if habits, ok := v.([]domain.Habit); ok {
			return habits, nil
		}
		s.logger.Warn("[CACHE] unexpected value type, dropping key", zap.String("key", cacheKeyHabits))
		s.cache.Del(cacheKeyHabits)
	}

	habits, err := s.next.GetHabits(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetWithTTL(cacheKeyHabits, habits, 1, cacheTTL)
	return habits, nil
}

func (s *CachedStore) SaveHabits(ctx context.Context, habits []domain.Habit) error {
	if err := s.next.SaveHabits(ctx, habits); err != nil {
		return err
	}
	s.cache.Del(cacheKeyHabits)
	return nil
}

func (s *CachedStore) GetCompletions(ctx context.Context) ([]domain.Completion, error) {
	if v, ok := s.cache.Get(cacheKeyCompletions); ok {
		if completions, ok := v.([]domain.Completion); ok {
			return completions, nil
		}
		s.logger.Warn("[CACHE] unexpected value type, dropping key", zap.String("key", cacheKeyCompletions))
		s.cache.Del(cacheKeyCompletions)
	}

	completions, err := s.next.GetCompletions(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetWithTTL(cacheKeyCompletions, completions, 1, cacheTTL)
	return completions, nil
}

func (s *CachedStore) UpsertCompletions(ctx context.Context, completions []domain.Completion) error {
	if err := s.next.UpsertCompletions(ctx, completions); err != nil {
		return err
	}
	s.cache.Del(cacheKeyCompletions)
	return nil
}

func (s *CachedStore) GetMetadata(ctx context.Context) (*domain.SyncMetadata, error) {
	if v, ok := s.cache.Get(cacheKeyMetadata); ok {
		if meta, ok := v.(*domain.SyncMetadata); ok {
			return meta, nil
		}
		s.logger.Warn("[CACHE] unexpected value type, dropping key", zap.String("key", cacheKeyMetadata))
		s.cache.Del(cacheKeyMetadata)
	}

	meta, err := s.next.GetMetadata(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetWithTTL(cacheKeyMetadata, meta, 1, cacheTTL)
	return meta, nil
}

func (s *CachedStore) SaveMetadata(ctx context.Context, meta domain.SyncMetadata) error {
	if err := s.next.SaveMetadata(ctx, meta); err != nil {
		return err
	}
	s.cache.Del(cacheKeyMetadata)
	return nil
}

func (s *CachedStore) ClearAll(ctx context.Context) error {
	if err := s.next.ClearAll(ctx); err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}

func (s *CachedStore) Close() error {
	s.cache.Close()
	return s.next.Close()
}

// Wait blocks until pending cache writes have been applied. Reads
// issued after Wait observe every Set that preceded it.
func (s *CachedStore) Wait() {
	s.cache.Wait()
}
