package stats

import "github.com/habitloop/stats-engine/internal/core/domain"

// Heatmap produces one cell per day in the range, holding that day's
// completion rate as a normalized intensity. Granularity is always
// day-level; the scope only sizes the range (see HeatmapRange). With no
// habits at all the heatmap is empty.
func Heatmap(habits []domain.Habit, completions []domain.Completion, rng domain.DateRange) []domain.HeatmapCell {
	cells := make([]domain.HeatmapCell, 0, rng.Days())
	if len(habits) == 0 {
		return cells
	}

	values := indexCompletions(completions)
	for d := rng.From; !d.After(rng.To); d = d.AddDate(0, 0, 1) {
		due, done := dayCounts(habits, values, d)

		var intensity float64
		if due > 0 {
			intensity = clamp01(float64(done) / float64(due))
		}

		cells = append(cells, domain.HeatmapCell{
			Date:      domain.DayKey(d),
			Intensity: intensity,
		})
	}

	return cells
}
