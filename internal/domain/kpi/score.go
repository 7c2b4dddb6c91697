package kpi

import (
	"math"
	"strings"
)

// LowerIsBetter reports whether a definition counts down toward its goal.
// There is no polarity field: any name containing "cancel" in any case is
// treated as lower-is-better.
func (d Definition) LowerIsBetter() bool {
	return strings.Contains(strings.ToLower(d.Name), "cancel")
}

// AchievementRatio is capped at 1 for higher-is-better KPIs and floored at
// 0 for lower-is-better ones. Callers must handle Goal == 0 first.
func AchievementRatio(d Definition, actual float64) float64 {
	ratio := actual / d.Goal
	if d.LowerIsBetter() {
		return math.Max(0, 1-ratio)
	}
	return math.Min(ratio, 1)
}

// Earned returns the points a single KPI contributes. A zero goal means the
// metric should stay at zero: full points iff actual is zero.
func Earned(d Definition, actual float64) float64 {
	if d.Goal == 0 {
		if actual == 0 {
			return d.Points
		}
		return 0
	}
	ratio := AchievementRatio(d, actual)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	return ratio * d.Points
}

// Score computes the 0..100 weekly score of memberID against group.
func Score(group Group, memberID string, ledger Ledger) int {
	if len(group.KPIs) == 0 {
		return 0
	}
	total := group.TotalPoints()
	if total == 0 {
		return 0
	}
	var earned float64
	for _, d := range group.KPIs {
		earned += Earned(d, ledger.Actual(memberID, d.ID))
	}
	return clampScore(roundHalfUp(earned / total * 100))
}

func roundHalfUp(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v + 0.5))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
