package performance

import (
	"fmt"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/team"
)

// HistoricalEntry is one KPI actual for a past week, addressed by definition
// id.
type HistoricalEntry struct {
	KpiDefinitionID string  `json:"kpiDefinitionId" validate:"required"`
	Actual          float64 `json:"actual"`
}

// SaveHistoricalSnapshot scores a past week from the supplied actuals alone,
// without touching the live ledger, and upserts the snapshot for
// (memberID, weekOf).
func SaveHistoricalSnapshot(w Week, memberID, weekOf string, entries []HistoricalEntry) ([]WeeklySnapshot, WeeklySnapshot, error) {
	member, ok := team.FindMember(w.Members, memberID)
	if !ok {
		return nil, WeeklySnapshot{}, ErrMemberNotFound
	}
	week, err := NormalizeWeekOf(weekOf)
	if err != nil {
		return nil, WeeklySnapshot{}, err
	}

	group, hasGroup := kpi.FindGroup(w.Groups, member.GroupID())
	scratch := make([]kpi.Progress, 0, len(entries))
	for _, e := range entries {
		if !hasGroup {
			return nil, WeeklySnapshot{}, fmt.Errorf("%w: %s", ErrUnknownKPI, e.KpiDefinitionID)
		}
		if _, ok := group.Definition(e.KpiDefinitionID); !ok {
			return nil, WeeklySnapshot{}, fmt.Errorf("%w: %s", ErrUnknownKPI, e.KpiDefinitionID)
		}
		scratch = append(scratch, kpi.Progress{
			TeamMemberID:    memberID,
			KpiDefinitionID: e.KpiDefinitionID,
			Actual:          e.Actual,
		})
	}

	ledger := kpi.NewLedger(scratch)
	member.PerformanceScore = scoreWithLedger(memberID, w.Groups, ledger, w.Members)
	snap := BuildSnapshot(member, w.Groups, ledger, week)
	return UpsertSnapshot(w.Snapshots, snap), snap, nil
}
