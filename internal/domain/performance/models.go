package performance

import "solvo/internal/domain/kpi"

type KpiSnapshot struct {
	Name   string   `json:"name"`
	Type   kpi.Type `json:"type"`
	Goal   float64  `json:"goal"`
	Points float64  `json:"points"`
	Actual float64  `json:"actual"`
}

// WeeklySnapshot is the archived record of one member for one week, keyed
// by (TeamMemberID, WeekOf).
type WeeklySnapshot struct {
	TeamMemberID     string        `json:"teamMemberId"`
	WeekOf           string        `json:"weekOf"`
	PerformanceScore int           `json:"performanceScore"`
	KpiSnapshots     []KpiSnapshot `json:"kpiSnapshots"`
}

type Standing struct {
	TeamMemberID  string `json:"teamMemberId"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	PreviousScore int    `json:"previousScore"`
	Rank          int    `json:"rank"`
	PreviousRank  int    `json:"previousRank,omitempty"`
	Movement      int    `json:"movement"`
}

type Summary struct {
	Weeks            int            `json:"weeks"`
	Snapshots        int            `json:"snapshots"`
	AverageScore     float64        `json:"averageScore"`
	BandDistribution map[string]int `json:"bandDistribution"`
}
