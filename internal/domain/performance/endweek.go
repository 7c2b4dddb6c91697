package performance

import (
	"fmt"
	"sort"
	"time"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/team"
)

// Week is the slice of workspace state the weekly lifecycle reads and writes.
type Week struct {
	Members   []team.TeamMember
	Groups    []kpi.Group
	Progress  []kpi.Progress
	Snapshots []WeeklySnapshot
}

type EndWeekResult struct {
	Week
	WeekOf   string
	Archived []WeeklySnapshot
}

// EndWeek archives the current week for every member, freezes scores and
// ranks as next week's baseline, and zeroes the ledger. The input is not
// modified. A week that any current member already has a snapshot for is
// archived and fails with ErrWeekAlreadyClosed.
func EndWeek(w Week, now time.Time) (EndWeekResult, error) {
	weekOf := WeekOf(now)
	if memberID, ok := archivedMember(w, weekOf); ok {
		return EndWeekResult{}, fmt.Errorf("%w: %s has a snapshot for %s", ErrWeekAlreadyClosed, memberID, weekOf)
	}
	ledger := kpi.NewLedger(w.Progress)

	snapshots := append([]WeeklySnapshot(nil), w.Snapshots...)
	archived := make([]WeeklySnapshot, 0, len(w.Members))
	for _, m := range w.Members {
		snap := BuildSnapshot(m, w.Groups, ledger, weekOf)
		archived = append(archived, snap)
		snapshots = append(snapshots, snap)
	}

	ranks := RankByScore(w.Members)
	members := make([]team.TeamMember, len(w.Members))
	for i, m := range w.Members {
		rank := ranks[m.ID]
		m.PreviousRank = rank
		m.RankHistory = team.PushRank(m.RankHistory, rank)
		m.PreviousPerformanceScore = m.PerformanceScore
		members[i] = m
	}

	progress := kpi.ResetActuals(w.Progress)
	members = RecomputeScores(members, w.Groups, progress)

	return EndWeekResult{
		Week: Week{
			Members:   members,
			Groups:    w.Groups,
			Progress:  progress,
			Snapshots: snapshots,
		},
		WeekOf:   weekOf,
		Archived: archived,
	}, nil
}

func archivedMember(w Week, weekOf string) (string, bool) {
	members := make(map[string]struct{}, len(w.Members))
	for _, m := range w.Members {
		members[m.ID] = struct{}{}
	}
	for _, snap := range w.Snapshots {
		if _, ok := members[snap.TeamMemberID]; ok && snap.WeekOf == weekOf {
			return snap.TeamMemberID, true
		}
	}
	return "", false
}

// RankByScore assigns 1-based ranks by score descending. Ties keep their
// collection order.
func RankByScore(members []team.TeamMember) map[string]int {
	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return members[order[a]].PerformanceScore > members[order[b]].PerformanceScore
	})
	ranks := make(map[string]int, len(members))
	for pos, idx := range order {
		ranks[members[idx].ID] = pos + 1
	}
	return ranks
}
