package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

type MockLocalStore struct {
	mock.Mock
}

func (m *MockLocalStore) Open(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockLocalStore) GetHabits(ctx context.Context) ([]domain.Habit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Habit), args.Error(1)
}

func (m *MockLocalStore) SaveHabits(ctx context.Context, habits []domain.Habit) error {
	return m.Called(ctx, habits).Error(0)
}

func (m *MockLocalStore) GetCompletions(ctx context.Context) ([]domain.Completion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Completion), args.Error(1)
}

func (m *MockLocalStore) UpsertCompletions(ctx context.Context, completions []domain.Completion) error {
	return m.Called(ctx, completions).Error(0)
}

func (m *MockLocalStore) GetMetadata(ctx context.Context) (*domain.SyncMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncMetadata), args.Error(1)
}

func (m *MockLocalStore) SaveMetadata(ctx context.Context, meta domain.SyncMetadata) error {
	return m.Called(ctx, meta).Error(0)
}

func (m *MockLocalStore) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockLocalStore) Close() error {
	return m.Called().Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) FetchHabits(ctx context.Context) ([]domain.Habit, string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]domain.Habit), args.String(1), args.Error(2)
}

func (m *MockGateway) FetchCompletions(ctx context.Context, since time.Time) ([]domain.Completion, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Completion), args.Error(1)
}

func (m *MockGateway) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) SetServerCache(ctx context.Context, ownerID string, scope domain.Scope, dateKey string, stats domain.ComputedStatistics, validUntil time.Time) error {
	return m.Called(ctx, ownerID, scope, dateKey, stats, validUntil).Error(0)
}

type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) CurrentUserID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
