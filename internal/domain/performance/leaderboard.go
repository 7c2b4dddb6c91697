package performance

import (
	"sort"

	"solvo/internal/domain/team"
)

// Leaderboard orders members by live score. Movement is positive when a
// member climbed relative to the rank frozen at the last end of week.
func Leaderboard(members []team.TeamMember) []Standing {
	ranks := RankByScore(members)
	out := make([]Standing, 0, len(members))
	for _, m := range members {
		rank := ranks[m.ID]
		standing := Standing{
			TeamMemberID:  m.ID,
			Name:          m.Name,
			Score:         m.PerformanceScore,
			PreviousScore: m.PreviousPerformanceScore,
			Rank:          rank,
			PreviousRank:  m.PreviousRank,
		}
		if m.PreviousRank > 0 {
			standing.Movement = m.PreviousRank - rank
		}
		out = append(out, standing)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
