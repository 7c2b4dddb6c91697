package reports

import (
	"sort"

	"solvo/internal/domain/performance"
	"solvo/internal/domain/team"
	"solvo/internal/domain/workspace"
)

type MemberRisk struct {
	TeamMemberID string         `json:"teamMemberId"`
	Name         string         `json:"name"`
	RiskScore    int            `json:"riskScore"`
	RiskLevel    team.RiskLevel `json:"riskLevel"`
}

type Dashboard struct {
	TotalClients   int                    `json:"totalClients"`
	ClientStatuses map[string]int         `json:"clientStatuses"`
	TotalTasks     int                    `json:"totalTasks"`
	TaskStatuses   map[string]int         `json:"taskStatuses"`
	OverdueTasks   int                    `json:"overdueTasks"`
	TeamSize       int                    `json:"teamSize"`
	AverageScore   float64                `json:"averageScore"`
	TopPerformers  []performance.Standing `json:"topPerformers"`
	AtRisk         []MemberRisk           `json:"atRisk"`
	LatestWeekOf   string                 `json:"latestWeekOf,omitempty"`
}

const topPerformers = 3

// BuildDashboard aggregates the workspace. At-risk members come from saved
// risk reports only; nothing is recomputed here.
func BuildDashboard(s workspace.State) Dashboard {
	d := Dashboard{
		TotalClients:   len(s.Clients),
		ClientStatuses: make(map[string]int, len(team.ClientStatuses)),
		TotalTasks:     len(s.Tasks),
		TaskStatuses:   make(map[string]int, len(team.TaskStatuses)),
		TeamSize:       len(s.TeamMembers),
		AtRisk:         []MemberRisk{},
	}
	for _, status := range team.ClientStatuses {
		d.ClientStatuses[status] = 0
	}
	for _, c := range s.Clients {
		d.ClientStatuses[c.Status]++
	}
	for _, status := range team.TaskStatuses {
		d.TaskStatuses[status] = 0
	}
	for _, t := range s.Tasks {
		d.TaskStatuses[t.Status]++
	}
	d.OverdueTasks = d.TaskStatuses[team.TaskStatusOverdue]

	total := 0
	for _, m := range s.TeamMembers {
		total += m.PerformanceScore
		if m.PtlReport == nil {
			continue
		}
		if m.PtlReport.RiskLevel == team.RiskHigh || m.PtlReport.RiskLevel == team.RiskCritical {
			d.AtRisk = append(d.AtRisk, MemberRisk{
				TeamMemberID: m.ID,
				Name:         m.Name,
				RiskScore:    m.PtlReport.RiskScore,
				RiskLevel:    m.PtlReport.RiskLevel,
			})
		}
	}
	if len(s.TeamMembers) > 0 {
		d.AverageScore = float64(total) / float64(len(s.TeamMembers))
	}
	sort.SliceStable(d.AtRisk, func(i, j int) bool { return d.AtRisk[i].RiskScore > d.AtRisk[j].RiskScore })

	board := performance.Leaderboard(s.TeamMembers)
	if len(board) > topPerformers {
		board = board[:topPerformers]
	}
	d.TopPerformers = board

	for _, snap := range s.WeeklySnapshots {
		if snap.WeekOf > d.LatestWeekOf {
			d.LatestWeekOf = snap.WeekOf
		}
	}
	return d
}
