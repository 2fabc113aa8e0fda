package stats

import (
	"time"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

// RateStats is the raw outcome of a completion-rate reduction.
type RateStats struct {
	Rate             float64
	CompletedDueDays int
	TotalDueDays     int
}

// CompletionRate reduces a range to one rate: for every day in the
// range each habit due that day contributes one due-day, completed when
// its recorded value meets the habit's target. Zero due-days yields a
// rate of exactly 0.
func CompletionRate(habits []domain.Habit, completions []domain.Completion, rng domain.DateRange) RateStats {
	values := indexCompletions(completions)

	var due, done int
	for d := rng.From; !d.After(rng.To); d = d.AddDate(0, 0, 1) {
		dayDue, dayDone := dayCounts(habits, values, d)
		due += dayDue
		done += dayDone
	}

	if due == 0 {
		return RateStats{}
	}

	return RateStats{
		Rate:             clamp01(float64(done) / float64(due)),
		CompletedDueDays: done,
		TotalDueDays:     due,
	}
}

// indexCompletions maps each (habit, day) slot to its recorded value.
func indexCompletions(completions []domain.Completion) map[string]int {
	values := make(map[string]int, len(completions))
	for _, c := range completions {
		values[c.Key()] = c.Value
	}
	return values
}

// dayCounts tallies how many habits are due on a day and how many of
// those met their target.
func dayCounts(habits []domain.Habit, values map[string]int, day time.Time) (due, done int) {
	for _, h := range habits {
		if !h.DueOn(day) {
			continue
		}
		due++
		if h.MeetsTarget(values[domain.SlotKey(h.ID, day)]) {
			done++
		}
	}
	return due, done
}

// habitRate is the single-habit completion rate over a range.
func habitRate(h domain.Habit, values map[string]int, rng domain.DateRange) float64 {
	var due, done int
	for d := rng.From; !d.After(rng.To); d = d.AddDate(0, 0, 1) {
		if !h.DueOn(d) {
			continue
		}
		due++
		if h.MeetsTarget(values[domain.SlotKey(h.ID, d)]) {
			done++
		}
	}

	if due == 0 {
		return 0
	}
	return clamp01(float64(done) / float64(due))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
