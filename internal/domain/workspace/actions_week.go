package workspace

import (
	"time"

	"solvo/internal/domain/performance"
)

// WeekClosed is the product of EndWeek.
type WeekClosed struct {
	WeekOf   string                       `json:"weekOf"`
	Archived []performance.WeeklySnapshot `json:"archived"`
}

// EndWeek closes the week containing At, or the current week when At is
// zero.
type EndWeek struct{ At time.Time }

func (EndWeek) Name() string { return "end_week" }
func (EndWeek) Touches() []Collection {
	return []Collection{CollectionTeamMembers, CollectionKpiProgress, CollectionWeeklySnapshots}
}

func (a EndWeek) apply(s State, env Env) (State, any, error) {
	at := a.At
	if at.IsZero() {
		at = env.Now()
	}
	res, err := performance.EndWeek(s.week(), at)
	if err != nil {
		return s, nil, err
	}
	return s.withWeek(res.Week), WeekClosed{WeekOf: res.WeekOf, Archived: res.Archived}, nil
}

type SaveHistoricalSnapshot struct {
	MemberID string
	WeekOf   string
	Entries  []performance.HistoricalEntry
}

func (SaveHistoricalSnapshot) Name() string { return "save_historical_snapshot" }
func (SaveHistoricalSnapshot) Touches() []Collection {
	return []Collection{CollectionWeeklySnapshots}
}

func (a SaveHistoricalSnapshot) apply(s State, _ Env) (State, any, error) {
	snapshots, snap, err := performance.SaveHistoricalSnapshot(s.week(), a.MemberID, a.WeekOf, a.Entries)
	if err != nil {
		return s, nil, err
	}
	s.WeeklySnapshots = snapshots
	return s, snap, nil
}

// ReplaceState swaps the whole workspace, as an import does.
type ReplaceState struct{ State State }

func (ReplaceState) Name() string          { return "replace_state" }
func (ReplaceState) Touches() []Collection { return Collections }

func (a ReplaceState) apply(State, Env) (State, any, error) {
	return a.State.Normalized(), nil, nil
}
