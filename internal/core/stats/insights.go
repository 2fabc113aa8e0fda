package stats

import (
	"time"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

// Thresholds behind the structured insights. They are deliberately in
// one place so tuning them never touches the reduction logic.
const (
	// minImprovedDelta is the period-over-period gain a habit needs
	// before it is highlighted as most improved.
	minImprovedDelta = 0.10
	// maxAtRiskDelta is the loss at which a habit becomes at risk.
	maxAtRiskDelta = -0.15
	// maxAttentionRate is the current rate under which the weakest
	// habit is flagged as needing attention.
	maxAttentionRate = 0.40
)

// Insights derives the structured highlights for a period from
// already-computed trends. No free text: each insight is a kind, a
// habit or weekday reference, and the value that triggered it.
func Insights(habits []domain.Habit, completions []domain.Completion, trends []domain.HabitTrend, rng domain.DateRange) []domain.Insight {
	insights := make([]domain.Insight, 0, 5)

	if t, ok := mostImprovedTrend(trends); ok && t.Delta >= minImprovedDelta {
		insights = append(insights, domain.Insight{
			Kind:    domain.InsightMostImproved,
			HabitID: t.HabitID,
			Title:   t.Title,
			Value:   t.Delta,
		})
	}

	if t, ok := mostDeclinedTrend(trends); ok && t.Delta <= maxAtRiskDelta {
		insights = append(insights, domain.Insight{
			Kind:    domain.InsightAtRisk,
			HabitID: t.HabitID,
			Title:   t.Title,
			Value:   t.Delta,
		})
	}

	if t, ok := MostConsistent(trends); ok && t.CurrentRate > 0 {
		insights = append(insights, domain.Insight{
			Kind:    domain.InsightMostConsistent,
			HabitID: t.HabitID,
			Title:   t.Title,
			Value:   t.CurrentRate,
		})
	}

	if t, ok := NeedsAttention(trends); ok && t.CurrentRate < maxAttentionRate {
		insights = append(insights, domain.Insight{
			Kind:    domain.InsightNeedsAttention,
			HabitID: t.HabitID,
			Title:   t.Title,
			Value:   t.CurrentRate,
		})
	}

	if wd, rate, ok := BestDayOfWeek(habits, completions, rng); ok && rate > 0 {
		insights = append(insights, domain.Insight{
			Kind:    domain.InsightBestDay,
			Weekday: wd.String(),
			Value:   rate,
		})
	}

	return insights
}

// MostConsistent selects the trend with the highest current completion
// rate; ties break toward the lowest habit ID.
func MostConsistent(trends []domain.HabitTrend) (domain.HabitTrend, bool) {
	if len(trends) == 0 {
		return domain.HabitTrend{}, false
	}

	best := trends[0]
	for _, t := range trends[1:] {
		if t.CurrentRate > best.CurrentRate ||
			(t.CurrentRate == best.CurrentRate && t.HabitID < best.HabitID) {
			best = t
		}
	}
	return best, true
}

// NeedsAttention selects the trend with the lowest current completion
// rate; ties break toward the lowest habit ID.
func NeedsAttention(trends []domain.HabitTrend) (domain.HabitTrend, bool) {
	if len(trends) == 0 {
		return domain.HabitTrend{}, false
	}

	worst := trends[0]
	for _, t := range trends[1:] {
		if t.CurrentRate < worst.CurrentRate ||
			(t.CurrentRate == worst.CurrentRate && t.HabitID < worst.HabitID) {
			worst = t
		}
	}
	return worst, true
}

// BestDayOfWeek groups the range's due days by weekday and returns the
// weekday with the highest aggregate completion rate. Ties break toward
// the lowest weekday index (Sunday first). ok is false when the range
// holds no due days.
func BestDayOfWeek(habits []domain.Habit, completions []domain.Completion, rng domain.DateRange) (time.Weekday, float64, bool) {
	values := indexCompletions(completions)

	var due, done [7]int
	for d := rng.From; !d.After(rng.To); d = d.AddDate(0, 0, 1) {
		dd, dn := dayCounts(habits, values, d)
		wd := int(d.Weekday())
		due[wd] += dd
		done[wd] += dn
	}

	bestIdx, bestRate, found := 0, 0.0, false
	for wd := 0; wd < 7; wd++ {
		if due[wd] == 0 {
			continue
		}
		rate := clamp01(float64(done[wd]) / float64(due[wd]))
		if !found || rate > bestRate {
			bestIdx, bestRate, found = wd, rate, true
		}
	}

	if !found {
		return time.Sunday, 0, false
	}
	return time.Weekday(bestIdx), bestRate, true
}

// BestDate returns the calendar date in the range with the highest
// completion rate. Ties break toward the earliest date. ok is false
// when the range holds no due days.
func BestDate(habits []domain.Habit, completions []domain.Completion, rng domain.DateRange) (time.Time, float64, bool) {
	values := indexCompletions(completions)

	var bestDay time.Time
	bestRate, found := 0.0, false
	for d := rng.From; !d.After(rng.To); d = d.AddDate(0, 0, 1) {
		due, done := dayCounts(habits, values, d)
		if due == 0 {
			continue
		}
		rate := clamp01(float64(done) / float64(due))
		if !found || rate > bestRate {
			bestDay, bestRate, found = d, rate, true
		}
	}

	if !found {
		return time.Time{}, 0, false
	}
	return bestDay, bestRate, true
}

func mostImprovedTrend(trends []domain.HabitTrend) (domain.HabitTrend, bool) {
	var best domain.HabitTrend
	found := false
	for _, t := range trends {
		if t.Delta <= 0 {
			continue
		}
		if !found || t.Delta > best.Delta ||
			(t.Delta == best.Delta && t.HabitID < best.HabitID) {
			best, found = t, true
		}
	}
	return best, found
}

func mostDeclinedTrend(trends []domain.HabitTrend) (domain.HabitTrend, bool) {
	var worst domain.HabitTrend
	found := false
	for _, t := range trends {
		if t.Delta >= 0 {
			continue
		}
		if !found || t.Delta < worst.Delta ||
			(t.Delta == worst.Delta && t.HabitID < worst.HabitID) {
			worst, found = t, true
		}
	}
	return worst, found
}
