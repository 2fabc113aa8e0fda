package stats

import (
	"time"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

// Compute reduces the dataset to the full derived view for one
// (scope, date) pair in a single pass. Identical inputs always produce
// identical output, which is what makes the server-side cache mirror
// and the wholesale state publishes safe.
func Compute(habits []domain.Habit, completions []domain.Completion, scope domain.Scope, date time.Time) domain.ComputedStatistics {
	day := domain.NormalizeDay(date)
	current, previous := PeriodRanges(scope, day)

	rate := CompletionRate(habits, completions, current)
	prevRate := CompletionRate(habits, completions, previous)
	streak := OverallStreak(habits, completions, day)
	trends := Trends(habits, completions, scope, day)
	heatmap := Heatmap(habits, completions, HeatmapRange(scope, day))
	insights := Insights(habits, completions, trends, current)

	period := domain.PeriodStats{
		CompletionRate:   rate.Rate,
		CompletedDueDays: rate.CompletedDueDays,
		TotalDueDays:     rate.TotalDueDays,
		CompletionCount:  countInRange(completions, current),
		CurrentStreak:    streak.Current,
		LongestStreak:    streak.Longest,
	}
	if wd, r, ok := BestDayOfWeek(habits, completions, current); ok && r > 0 {
		period.BestDay = wd.String()
	}

	return domain.ComputedStatistics{
		Scope:    scope,
		Date:     domain.DayKey(day),
		Period:   period,
		Trends:   trends,
		Heatmap:  heatmap,
		Summary:  buildSummary(rate, prevRate, trends),
		Insights: insights,
		Feed:     Feed(trends),
	}
}

func buildSummary(current, previous RateStats, trends []domain.HabitTrend) domain.SnapshotSummary {
	delta := current.Rate - previous.Rate

	summary := domain.SnapshotSummary{
		CurrentRate:  current.Rate,
		PreviousRate: previous.Rate,
		RateDelta:    delta,
		Direction:    direction(delta),
	}

	if t, ok := mostImprovedTrend(trends); ok {
		summary.MostImproved = t.HabitID
	}
	if t, ok := mostDeclinedTrend(trends); ok {
		summary.MostDeclined = t.HabitID
	}

	return summary
}

func countInRange(completions []domain.Completion, rng domain.DateRange) int {
	count := 0
	for _, c := range completions {
		if rng.Contains(c.Date) {
			count++
		}
	}
	return count
}
