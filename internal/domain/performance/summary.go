package performance

// Summarize aggregates archived snapshots into an average and a score band
// distribution.
func Summarize(snapshots []WeeklySnapshot) Summary {
	summary := Summary{
		Snapshots:        len(snapshots),
		BandDistribution: map[string]int{},
	}
	weeks := map[string]struct{}{}
	total := 0
	for _, s := range snapshots {
		weeks[s.WeekOf] = struct{}{}
		total += s.PerformanceScore
		summary.BandDistribution[Band(s.PerformanceScore)]++
	}
	summary.Weeks = len(weeks)
	if len(snapshots) > 0 {
		summary.AverageScore = float64(total) / float64(len(snapshots))
	}
	return summary
}

func Band(score int) string {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 75:
		return BandGood
	case score >= 50:
		return BandFair
	default:
		return BandLow
	}
}
