package model

import "math"

// TaskCounts is a snapshot of one owner's task totals.
type TaskCounts struct {
	Total     int64
	Completed int64
}

// Stats is the derived completion summary for an owner.
type Stats struct {
	Total          int64
	Completed      int64
	Pending        int64
	CompletionRate float64
}

// ComputeStats derives pending count and completion rate from a snapshot.
// The rate is a percentage rounded to two decimals and 0 for an empty snapshot.
func ComputeStats(c TaskCounts) Stats {
	return Stats{
		Total:          c.Total,
		Completed:      c.Completed,
		Pending:        c.Total - c.Completed,
		CompletionRate: Percentage(c.Completed, c.Total),
	}
}

// Percentage returns part/whole*100 rounded half away from zero to two decimals, or 0 when whole is 0.
func Percentage(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*100*100) / 100
}
