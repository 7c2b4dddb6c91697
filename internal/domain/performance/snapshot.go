package performance

import (
	"sort"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/team"
)

// BuildSnapshot captures the member's current score and the live actual of
// every KPI in their group. Members without a group get an empty KPI list.
func BuildSnapshot(member team.TeamMember, groups []kpi.Group, ledger kpi.Ledger, weekOf string) WeeklySnapshot {
	snap := WeeklySnapshot{
		TeamMemberID:     member.ID,
		WeekOf:           weekOf,
		PerformanceScore: member.PerformanceScore,
		KpiSnapshots:     []KpiSnapshot{},
	}
	group, ok := kpi.FindGroup(groups, member.GroupID())
	if !ok {
		snap.PerformanceScore = 0
		return snap
	}
	for _, d := range group.KPIs {
		snap.KpiSnapshots = append(snap.KpiSnapshots, KpiSnapshot{
			Name:   d.Name,
			Type:   d.Type,
			Goal:   d.Goal,
			Points: d.Points,
			Actual: ledger.Actual(member.ID, d.ID),
		})
	}
	return snap
}

// UpsertSnapshot replaces the snapshot with the same (member, week) key in
// place, or appends it.
func UpsertSnapshot(snapshots []WeeklySnapshot, snap WeeklySnapshot) []WeeklySnapshot {
	out := make([]WeeklySnapshot, 0, len(snapshots)+1)
	replaced := false
	for _, existing := range snapshots {
		if existing.TeamMemberID == snap.TeamMemberID && existing.WeekOf == snap.WeekOf {
			if !replaced {
				out = append(out, snap)
				replaced = true
			}
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, snap)
	}
	return out
}

// MemberSnapshots returns the member's snapshots ordered by week, newest
// first. An empty memberID returns every snapshot.
func MemberSnapshots(snapshots []WeeklySnapshot, memberID string) []WeeklySnapshot {
	var out []WeeklySnapshot
	for _, s := range snapshots {
		if memberID == "" || s.TeamMemberID == memberID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WeekOf == out[j].WeekOf {
			return out[i].TeamMemberID < out[j].TeamMemberID
		}
		return out[i].WeekOf > out[j].WeekOf
	})
	return out
}

func RemoveMemberSnapshots(snapshots []WeeklySnapshot, memberID string) []WeeklySnapshot {
	out := make([]WeeklySnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s.TeamMemberID != memberID {
			out = append(out, s)
		}
	}
	return out
}
