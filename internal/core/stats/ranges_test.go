package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/habitloop/stats-engine/internal/core/domain"
	"github.com/habitloop/stats-engine/internal/core/stats"
)

func TestPeriodRanges(t *testing.T) {
	t.Run("Success: daily scope compares single days", func(t *testing.T) {
		current, previous := stats.PeriodRanges(domain.ScopeDaily, day("2024-03-15"))

		assert.Equal(t, rng("2024-03-15", "2024-03-15"), current)
		assert.Equal(t, rng("2024-03-14", "2024-03-14"), previous)
	})

	t.Run("Success: weekly scope runs Monday through Sunday", func(t *testing.T) {
		// 2024-01-10 is a Wednesday.
		current, previous := stats.PeriodRanges(domain.ScopeWeekly, day("2024-01-10"))

		assert.Equal(t, rng("2024-01-08", "2024-01-14"), current)
		assert.Equal(t, rng("2024-01-01", "2024-01-07"), previous)
	})

	t.Run("Edge Case: Sunday still belongs to the week begun the prior Monday", func(t *testing.T) {
		current, _ := stats.PeriodRanges(domain.ScopeWeekly, day("2024-01-14"))

		assert.Equal(t, rng("2024-01-08", "2024-01-14"), current)
	})

	t.Run("Edge Case: Monday starts a fresh week", func(t *testing.T) {
		current, previous := stats.PeriodRanges(domain.ScopeWeekly, day("2024-01-08"))

		assert.Equal(t, rng("2024-01-08", "2024-01-14"), current)
		assert.Equal(t, rng("2024-01-01", "2024-01-07"), previous)
	})

	t.Run("Success: monthly scope compares calendar months", func(t *testing.T) {
		current, previous := stats.PeriodRanges(domain.ScopeMonthly, day("2024-03-15"))

		assert.Equal(t, rng("2024-03-01", "2024-03-31"), current)
		// 2024 is a leap year, so February has 29 days.
		assert.Equal(t, rng("2024-02-01", "2024-02-29"), previous)
	})

	t.Run("Edge Case: January looks back into the prior year", func(t *testing.T) {
		current, previous := stats.PeriodRanges(domain.ScopeMonthly, day("2024-01-15"))

		assert.Equal(t, rng("2024-01-01", "2024-01-31"), current)
		assert.Equal(t, rng("2023-12-01", "2023-12-31"), previous)
	})

	t.Run("Edge Case: timestamps with time-of-day normalize to UTC days", func(t *testing.T) {
		noon := day("2024-03-15").Add(12 * time.Hour)

		current, _ := stats.PeriodRanges(domain.ScopeDaily, noon)

		assert.Equal(t, rng("2024-03-15", "2024-03-15"), current)
	})
}

func TestHeatmapRange(t *testing.T) {
	t.Run("Success: daily scope looks back 30 days", func(t *testing.T) {
		got := stats.HeatmapRange(domain.ScopeDaily, day("2024-03-01"))

		assert.Equal(t, rng("2024-02-01", "2024-03-01"), got)
		assert.Equal(t, 30, got.Days())
	})

	t.Run("Success: weekly scope looks back 84 days", func(t *testing.T) {
		got := stats.HeatmapRange(domain.ScopeWeekly, day("2024-03-25"))

		assert.Equal(t, rng("2024-01-02", "2024-03-25"), got)
		assert.Equal(t, 84, got.Days())
	})

	t.Run("Success: monthly scope looks back 182 days", func(t *testing.T) {
		got := stats.HeatmapRange(domain.ScopeMonthly, day("2024-06-30"))

		assert.Equal(t, rng("2024-01-01", "2024-06-30"), got)
		assert.Equal(t, 182, got.Days())
	})

	t.Run("Edge Case: unknown scope falls back to the daily window", func(t *testing.T) {
		got := stats.HeatmapRange(domain.Scope("fortnightly"), day("2024-03-01"))

		assert.Equal(t, 30, got.Days())
	})
}
