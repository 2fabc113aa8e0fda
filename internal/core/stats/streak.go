package stats

import (
	"time"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

// StreakStats pairs the current streak with the longest one on record.
type StreakStats struct {
	Current int
	Longest int
}

// OverallStreak walks the calendar around asOf. A day counts toward a
// streak when every habit due that day was completed; days with nothing
// due pass through without counting or breaking. The current streak
// ends on the first failing day strictly before asOf (a failing asOf
// day is treated as still in progress) or at the earliest date any
// habit exists. The longest streak is the maximum run over the full
// history, independent of the current one.
func OverallStreak(habits []domain.Habit, completions []domain.Completion, asOf time.Time) StreakStats {
	if len(habits) == 0 {
		return StreakStats{}
	}

	values := indexCompletions(completions)
	asOfDay := domain.NormalizeDay(asOf)
	earliest := earliestScheduleStart(habits)
	if earliest.After(asOfDay) {
		return StreakStats{}
	}

	var current int
	for d := asOfDay; !d.Before(earliest); d = d.AddDate(0, 0, -1) {
		due, done := dayCounts(habits, values, d)
		if due == 0 {
			continue
		}
		if done == due {
			current++
			continue
		}
		if d.Equal(asOfDay) {
			continue
		}
		break
	}

	var longest, run int
	for d := earliest; !d.After(asOfDay); d = d.AddDate(0, 0, 1) {
		due, done := dayCounts(habits, values, d)
		if due == 0 {
			continue
		}
		if done == due {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	return StreakStats{Current: current, Longest: longest}
}

func earliestScheduleStart(habits []domain.Habit) time.Time {
	earliest := habits[0].ScheduleStart()
	for _, h := range habits[1:] {
		if s := h.ScheduleStart(); s.Before(earliest) {
			earliest = s
		}
	}
	return earliest
}
