package stats

import (
	"math"
	"sort"
	"time"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

// Rate deltas within this band count as flat.
const flatEpsilon = 0.01

// Trends computes each habit's completion rate over the scope's current
// range and its delta against the previous equal-length range. Results
// are ordered by habit ID so identical inputs always produce identical
// output, whatever order the habits arrived in.
func Trends(habits []domain.Habit, completions []domain.Completion, scope domain.Scope, date time.Time) []domain.HabitTrend {
	current, previous := PeriodRanges(scope, date)
	values := indexCompletions(completions)

	trends := make([]domain.HabitTrend, 0, len(habits))
	for _, h := range habits {
		cur := habitRate(h, values, current)
		prev := habitRate(h, values, previous)
		delta := cur - prev

		trends = append(trends, domain.HabitTrend{
			HabitID:      h.ID,
			Title:        h.Title,
			CurrentRate:  cur,
			PreviousRate: prev,
			Delta:        delta,
			Direction:    direction(delta),
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		return trends[i].HabitID < trends[j].HabitID
	})

	return trends
}

// Feed orders trends by delta magnitude, dropping flat entries; it is
// the activity feed the UI renders. Ties break by habit ID.
func Feed(trends []domain.HabitTrend) []domain.ActivityItem {
	moving := make([]domain.ActivityItem, 0, len(trends))
	for _, t := range trends {
		if t.Direction == domain.TrendFlat {
			continue
		}
		moving = append(moving, domain.ActivityItem{
			HabitID:   t.HabitID,
			Title:     t.Title,
			Delta:     t.Delta,
			Direction: t.Direction,
		})
	}

	sort.Slice(moving, func(i, j int) bool {
		di, dj := math.Abs(moving[i].Delta), math.Abs(moving[j].Delta)
		if di != dj {
			return di > dj
		}
		return moving[i].HabitID < moving[j].HabitID
	})

	return moving
}

func direction(delta float64) domain.TrendDirection {
	switch {
	case math.Abs(delta) <= flatEpsilon:
		return domain.TrendFlat
	case delta > 0:
		return domain.TrendUp
	default:
		return domain.TrendDown
	}
}
