// Package stats holds the pure aggregation functions. Every function is
// deterministic and total: empty inputs produce zeroed or empty
// aggregates, never errors. Callers filter completions to the
// authenticated user before reducing.
package stats

import (
	"time"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

// Heatmap lookback windows per scope, in days, anchored at the selected
// date.
const (
	heatmapDaysDaily   = 30
	heatmapDaysWeekly  = 84
	heatmapDaysMonthly = 182
)

// PeriodRanges derives the current period and the previous comparison
// period for a scope, anchored at date. Weeks start on Monday; monthly
// scope compares calendar months.
func PeriodRanges(scope domain.Scope, date time.Time) (current, previous domain.DateRange) {
	d := domain.NormalizeDay(date)

	switch scope {
	case domain.ScopeWeekly:
		start := startOfWeek(d)
		current = domain.DateRange{From: start, To: start.AddDate(0, 0, 6)}
		previous = domain.DateRange{From: start.AddDate(0, 0, -7), To: start.AddDate(0, 0, -1)}
	case domain.ScopeMonthly:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		current = domain.DateRange{From: start, To: start.AddDate(0, 1, -1)}
		previous = domain.DateRange{From: start.AddDate(0, -1, 0), To: start.AddDate(0, 0, -1)}
	default:
		current = domain.DateRange{From: d, To: d}
		previous = domain.DateRange{From: d.AddDate(0, 0, -1), To: d.AddDate(0, 0, -1)}
	}

	return current, previous
}

// HeatmapRange is the fixed lookback window for heatmap cells, sized to
// the scope and ending on the selected date.
func HeatmapRange(scope domain.Scope, date time.Time) domain.DateRange {
	d := domain.NormalizeDay(date)

	days := heatmapDaysDaily
	switch scope {
	case domain.ScopeWeekly:
		days = heatmapDaysWeekly
	case domain.ScopeMonthly:
		days = heatmapDaysMonthly
	}

	return domain.DateRange{From: d.AddDate(0, 0, -(days - 1)), To: d}
}

func startOfWeek(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
