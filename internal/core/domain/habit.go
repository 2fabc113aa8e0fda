package domain

import (
	"sort"
	"time"
)

const (
	KindBoolean = "boolean"
	KindNumeric = "numeric"

	FreqDaily        = "daily"
	FreqSpecificDays = "specific_days"
	FreqInterval     = "interval"
)

// Habit is a single tracked habit as reported by the remote API. Habits
// are owned and mutated elsewhere; the engine reads them and never
// writes them back.
type Habit struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	TargetValue int    `json:"target_value"`
	Frequency   string `json:"frequency"`
	// Weekdays uses time.Weekday numbering (Sunday = 0). Only read for
	// specific_days habits.
	Weekdays     []int      `json:"weekdays,omitempty"`
	IntervalDays int        `json:"interval_days,omitempty"`
	StartDate    time.Time  `json:"start_date"`
	CreatedAt    time.Time  `json:"created_at"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
}

// Target is the completion value a day must reach to count as done.
// Boolean habits always target 1.
func (h Habit) Target() int {
	if h.Kind == KindBoolean || h.TargetValue < 1 {
		return 1
	}
	return h.TargetValue
}

// MeetsTarget reports whether a recorded value satisfies the habit for
// one day.
func (h Habit) MeetsTarget(value int) bool {
	return value >= h.Target()
}

// ScheduleStart is the first calendar day the habit can be due.
func (h Habit) ScheduleStart() time.Time {
	if !h.StartDate.IsZero() {
		return NormalizeDay(h.StartDate)
	}
	return NormalizeDay(h.CreatedAt)
}

// DueOn reports whether the habit's schedule requires action on the
// given calendar day. Days before the schedule start or on/after the
// archival day are never due.
func (h Habit) DueOn(day time.Time) bool {
	d := NormalizeDay(day)
	start := h.ScheduleStart()
	if d.Before(start) {
		return false
	}
	if h.ArchivedAt != nil && !d.Before(NormalizeDay(*h.ArchivedAt)) {
		return false
	}

	switch h.Frequency {
	case FreqSpecificDays:
		wd := int(d.Weekday())
		for _, w := range h.Weekdays {
			if w == wd {
				return true
			}
		}
		return false
	case FreqInterval:
		iv := h.IntervalDays
		if iv < 1 {
			iv = 1
		}
		return daysBetween(start, d)%iv == 0
	default:
		return true
	}
}

// Normalize applies the defaults the remote schema leaves optional. The
// gateway calls it once per decoded habit so aggregation never has to
// coalesce missing fields.
func (h *Habit) Normalize() {
	switch h.Kind {
	case KindBoolean, KindNumeric:
	case "":
		h.Kind = KindBoolean
	default:
		h.Kind = KindNumeric
	}

	if h.Kind == KindBoolean || h.TargetValue < 1 {
		h.TargetValue = h.Target()
	}

	h.Weekdays = normalizeWeekdays(h.Weekdays)

	switch h.Frequency {
	case FreqDaily:
	case FreqSpecificDays:
		if len(h.Weekdays) == 0 {
			h.Frequency = FreqDaily
		}
	case FreqInterval:
		if h.IntervalDays < 1 {
			h.IntervalDays = 1
		}
	default:
		h.Frequency = FreqDaily
	}
}

func normalizeWeekdays(days []int) []int {
	if len(days) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	var unique []int
	for _, d := range days {
		if d < 0 || d > 6 {
			continue
		}
		if !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}

	sort.Ints(unique)
	return unique
}
