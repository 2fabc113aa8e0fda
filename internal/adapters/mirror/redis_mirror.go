package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

var _ domain.SnapshotMirror = (*RedisMirror)(nil)

// RedisMirror publishes computed snapshots to a shared Redis so other
// surfaces can read them without recomputing. It is strictly
// best-effort: callers swallow its errors.
type RedisMirror struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisMirror(client *redis.Client, logger *zap.Logger) *RedisMirror {
	return &RedisMirror{
		client: client,
		logger: logger,
	}
}

func snapshotKey(ownerID string, scope domain.Scope, dateKey string) string {
	return fmt.Sprintf("statscache:%s:%s:%s", ownerID, scope, dateKey)
}

func (m *RedisMirror) SetServerCache(ctx context.Context, ownerID string, scope domain.Scope, dateKey string, stats domain.ComputedStatistics, validUntil time.Time) error {
	ttl := time.Until(validUntil)
	if ttl <= 0 {
		m.logger.Debug("[CACHE] snapshot already expired, skipping mirror",
			zap.String("owner", ownerID), zap.String("date", dateKey))
		return nil
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	key := snapshotKey(ownerID, scope, dateKey)
	if err := m.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("mirror snapshot %s: %w", key, err)
	}

	return nil
}
