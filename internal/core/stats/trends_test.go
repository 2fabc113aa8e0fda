package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitloop/stats-engine/internal/core/domain"
	"github.com/habitloop/stats-engine/internal/core/stats"
)

func TestTrends(t *testing.T) {
	t.Run("Success: Compares current period against the previous one", func(t *testing.T) {
		habit := domain.Habit{
			ID:        "gym",
			Title:     "Gym",
			Kind:      domain.KindBoolean,
			Frequency: domain.FreqSpecificDays,
			Weekdays:  []int{1, 3},
			CreatedAt: day("2024-01-01"),
		}
		completions := []domain.Completion{
			// Previous week: both due days done.
			completed("gym", "2024-01-01"),
			completed("gym", "2024-01-03"),
			// Current week: only Monday done.
			completed("gym", "2024-01-08"),
		}

		got := stats.Trends([]domain.Habit{habit}, completions, domain.ScopeWeekly, day("2024-01-10"))

		require.Len(t, got, 1)
		assert.InDelta(t, 0.5, got[0].CurrentRate, 1e-9)
		assert.InDelta(t, 1.0, got[0].PreviousRate, 1e-9)
		assert.InDelta(t, -0.5, got[0].Delta, 1e-9)
		assert.Equal(t, domain.TrendDown, got[0].Direction)
	})

	t.Run("Success: Ordered by habit ID regardless of input order", func(t *testing.T) {
		habits := []domain.Habit{
			dailyHabit("zeta", "2024-01-01"),
			dailyHabit("alpha", "2024-01-01"),
		}

		got := stats.Trends(habits, nil, domain.ScopeDaily, day("2024-01-10"))

		require.Len(t, got, 2)
		assert.Equal(t, "alpha", got[0].HabitID)
		assert.Equal(t, "zeta", got[1].HabitID)
	})

	t.Run("Success: Unchanged rates read as flat", func(t *testing.T) {
		habit := dailyHabit("h1", "2024-01-01")
		completions := []domain.Completion{
			completed("h1", "2024-01-09"),
			completed("h1", "2024-01-10"),
		}

		got := stats.Trends([]domain.Habit{habit}, completions, domain.ScopeDaily, day("2024-01-10"))

		require.Len(t, got, 1)
		assert.Zero(t, got[0].Delta)
		assert.Equal(t, domain.TrendFlat, got[0].Direction)
	})

	t.Run("Edge Case: Habit absent from the previous period trends up from zero", func(t *testing.T) {
		habit := dailyHabit("new", "2024-01-08")
		completions := []domain.Completion{
			completed("new", "2024-01-08"),
			completed("new", "2024-01-09"),
			completed("new", "2024-01-10"),
			completed("new", "2024-01-11"),
			completed("new", "2024-01-12"),
			completed("new", "2024-01-13"),
			completed("new", "2024-01-14"),
		}

		got := stats.Trends([]domain.Habit{habit}, completions, domain.ScopeWeekly, day("2024-01-10"))

		require.Len(t, got, 1)
		assert.Zero(t, got[0].PreviousRate)
		assert.InDelta(t, 1.0, got[0].CurrentRate, 1e-9)
		assert.Equal(t, domain.TrendUp, got[0].Direction)
	})
}

func TestFeed(t *testing.T) {
	t.Run("Success: Orders by delta magnitude and drops flat entries", func(t *testing.T) {
		trends := []domain.HabitTrend{
			{HabitID: "a", Title: "A", Delta: 0.3, Direction: domain.TrendUp},
			{HabitID: "b", Title: "B", Delta: -0.5, Direction: domain.TrendDown},
			{HabitID: "c", Title: "C", Delta: 0.005, Direction: domain.TrendFlat},
			{HabitID: "d", Title: "D", Delta: 0.5, Direction: domain.TrendUp},
		}

		got := stats.Feed(trends)

		require.Len(t, got, 3)
		assert.Equal(t, "b", got[0].HabitID)
		assert.Equal(t, "d", got[1].HabitID)
		assert.Equal(t, "a", got[2].HabitID)
	})

	t.Run("Edge Case: All-flat trends yield an empty feed", func(t *testing.T) {
		trends := []domain.HabitTrend{
			{HabitID: "a", Direction: domain.TrendFlat},
			{HabitID: "b", Direction: domain.TrendFlat},
		}

		got := stats.Feed(trends)

		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
