package performance

import (
	"solvo/internal/domain/kpi"
	"solvo/internal/domain/team"
)

// CalculateScore resolves the member's KPI group and scores the member
// against the ledger. Members that are unknown, have no group, or point at a
// missing group score 0.
func CalculateScore(memberID string, groups []kpi.Group, progress []kpi.Progress, members []team.TeamMember) int {
	return scoreWithLedger(memberID, groups, kpi.NewLedger(progress), members)
}

func scoreWithLedger(memberID string, groups []kpi.Group, ledger kpi.Ledger, members []team.TeamMember) int {
	member, ok := team.FindMember(members, memberID)
	if !ok {
		return 0
	}
	group, ok := kpi.FindGroup(groups, member.GroupID())
	if !ok {
		return 0
	}
	return kpi.Score(group, memberID, ledger)
}

// RecomputeScores returns a copy of members with PerformanceScore rewritten
// from the catalog and ledger.
func RecomputeScores(members []team.TeamMember, groups []kpi.Group, progress []kpi.Progress) []team.TeamMember {
	ledger := kpi.NewLedger(progress)
	out := make([]team.TeamMember, len(members))
	for i, m := range members {
		m.PerformanceScore = scoreWithLedger(m.ID, groups, ledger, members)
		out[i] = m
	}
	return out
}
