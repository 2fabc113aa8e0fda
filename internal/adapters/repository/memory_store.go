package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

var _ domain.LocalStore = (*MemoryStore)(nil)

// MemoryStore is a volatile LocalStore for tests and ephemeral runs.
// It honors the same contract as BoltStore but keeps nothing across
// process restarts.
type MemoryStore struct {
	mu          sync.RWMutex
	habits      map[string]domain.Habit
	completions map[string]domain.Completion
	meta        *domain.SyncMetadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		habits:      make(map[string]domain.Habit),
		completions: make(map[string]domain.Completion),
	}
}

func (s *MemoryStore) Open(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) GetHabits(ctx context.Context) ([]domain.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	habits := make([]domain.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		habits = append(habits, h)
	}

	sort.Slice(habits, func(i, j int) bool {
		return habits[i].ID < habits[j].ID
	})

	return habits, nil
}

func (s *MemoryStore) SaveHabits(ctx context.Context, habits []domain.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.habits = make(map[string]domain.Habit, len(habits))
	for _, h := range habits {
		s.habits[h.ID] = h
	}
	return nil
}

func (s *MemoryStore) GetCompletions(ctx context.Context) ([]domain.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completions := make([]domain.Completion, 0, len(s.completions))
	for _, c := range s.completions {
		completions = append(completions, c)
	}

	sort.Slice(completions, func(i, j int) bool {
		return completions[i].Key() < completions[j].Key()
	})

	return completions, nil
}

func (s *MemoryStore) UpsertCompletions(ctx context.Context, completions []domain.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range completions {
		s.completions[c.Key()] = c
	}
	return nil
}

func (s *MemoryStore) GetMetadata(ctx context.Context) (*domain.SyncMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.meta == nil {
		return nil, domain.ErrMetadataNotFound
	}

	meta := *s.meta
	return &meta, nil
}

func (s *MemoryStore) SaveMetadata(ctx context.Context, meta domain.SyncMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta = &meta
	return nil
}

func (s *MemoryStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.habits = make(map[string]domain.Habit)
	s.completions = make(map[string]domain.Completion)
	s.meta = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
