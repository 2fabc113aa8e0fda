package domain

import "time"

// Completion records that a habit was acted on during one calendar day.
// At most one completion exists per (habit, day); later records replace
// earlier ones.
type Completion struct {
	ID         string    `json:"id"`
	HabitID    string    `json:"habit_id"`
	UserID     string    `json:"user_id"`
	Date       time.Time `json:"date"`
	Value      int       `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Key identifies the (habit, day) slot this completion occupies.
func (c Completion) Key() string {
	return SlotKey(c.HabitID, c.Date)
}

// SlotKey builds the (habit, day) key shared by the local store and the
// aggregation layer.
func SlotKey(habitID string, day time.Time) string {
	return habitID + "|" + DayKey(day)
}
