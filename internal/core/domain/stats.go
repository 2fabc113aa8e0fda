package domain

// TrendDirection classifies a completion-rate delta between two
// adjacent equal-length periods.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// InsightKind enumerates the structured highlights the engine derives.
// Insights carry no free text; rendering is the UI's job.
type InsightKind string

const (
	InsightMostImproved   InsightKind = "most_improved"
	InsightAtRisk         InsightKind = "at_risk"
	InsightMostConsistent InsightKind = "most_consistent"
	InsightNeedsAttention InsightKind = "needs_attention"
	InsightBestDay        InsightKind = "best_day"
)

// PeriodStats summarizes the currently selected period.
type PeriodStats struct {
	CompletionRate   float64 `json:"completion_rate"`
	CompletedDueDays int     `json:"completed_due_days"`
	TotalDueDays     int     `json:"total_due_days"`
	CompletionCount  int     `json:"completion_count"`
	BestDay          string  `json:"best_day,omitempty"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
}

// HabitTrend is one habit's completion-rate trajectory across the
// current range and the previous equal-length range.
type HabitTrend struct {
	HabitID      string         `json:"habit_id"`
	Title        string         `json:"title"`
	CurrentRate  float64        `json:"current_rate"`
	PreviousRate float64        `json:"previous_rate"`
	Delta        float64        `json:"delta"`
	Direction    TrendDirection `json:"direction"`
}

// HeatmapCell is one day's normalized completion intensity in [0,1].
type HeatmapCell struct {
	Date      string  `json:"date"`
	Intensity float64 `json:"intensity"`
}

// Insight is a single structured highlight derived from trend deltas.
type Insight struct {
	Kind    InsightKind `json:"kind"`
	HabitID string      `json:"habit_id,omitempty"`
	Title   string      `json:"title,omitempty"`
	Weekday string      `json:"weekday,omitempty"`
	Value   float64     `json:"value"`
}

// SnapshotSummary compares the current period against the previous one.
type SnapshotSummary struct {
	CurrentRate  float64        `json:"current_rate"`
	PreviousRate float64        `json:"previous_rate"`
	RateDelta    float64        `json:"rate_delta"`
	Direction    TrendDirection `json:"direction"`
	MostImproved string         `json:"most_improved,omitempty"`
	MostDeclined string         `json:"most_declined,omitempty"`
}

// ActivityItem is one entry of the trend-derived activity feed, ordered
// by delta magnitude.
type ActivityItem struct {
	HabitID   string         `json:"habit_id"`
	Title     string         `json:"title"`
	Delta     float64        `json:"delta"`
	Direction TrendDirection `json:"direction"`
}

// ComputedStatistics is the full derived view for one (scope, date)
// pair, rebuilt wholesale by a single reduction pass. It is never
// persisted locally; the only copy outside process memory is the
// server-side cache mirror with its one-hour validity window.
type ComputedStatistics struct {
	Scope    Scope           `json:"scope"`
	Date     string          `json:"date"`
	Period   PeriodStats     `json:"period"`
	Trends   []HabitTrend    `json:"trends"`
	Heatmap  []HeatmapCell   `json:"heatmap"`
	Summary  SnapshotSummary `json:"summary"`
	Insights []Insight       `json:"insights"`
	Feed     []ActivityItem  `json:"feed"`
}
