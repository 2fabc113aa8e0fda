package domain

import "time"

// DateKeyLayout formats calendar days wherever they act as keys.
const DateKeyLayout = "2006-01-02"

// NormalizeDay strips the time-of-day component, anchoring the day in
// UTC so that bucketing never depends on wall-clock offsets.
func NormalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey renders a calendar day in DateKeyLayout.
func DayKey(t time.Time) string {
	return NormalizeDay(t).Format(DateKeyLayout)
}

// DateRange is an inclusive [From, To] pair of calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange normalizes both ends to day granularity, swapping them
// when given out of order.
func NewDateRange(from, to time.Time) DateRange {
	f, t := NormalizeDay(from), NormalizeDay(to)
	if t.Before(f) {
		f, t = t, f
	}
	return DateRange{From: f, To: t}
}

func (r DateRange) Contains(day time.Time) bool {
	d := NormalizeDay(day)
	return !d.Before(r.From) && !d.After(r.To)
}

// Days is the number of calendar days the range spans.
func (r DateRange) Days() int {
	return daysBetween(r.From, r.To) + 1
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
