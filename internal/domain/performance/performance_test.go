package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/team"
)

func strPtr(s string) *string { return &s }

func fixtureWeek() Week {
	groups := []kpi.Group{{
		ID:   "sales",
		Name: "Sales",
		Role: "Account Manager",
		KPIs: []kpi.Definition{
			{ID: "calls", Name: "Calls", Type: kpi.TypeNumber, Goal: 40, Points: 50},
			{ID: "cancel", Name: "Cancelled Visits", Type: kpi.TypeNumber, Goal: 20, Points: 50},
		},
	}}
	members := []team.TeamMember{
		{ID: "ana", Name: "Ana", KpiGroupID: strPtr("sales")},
		{ID: "ben", Name: "Ben", KpiGroupID: strPtr("sales")},
		{ID: "cy", Name: "Cy"},
	}
	progress := []kpi.Progress{
		{ID: "p1", TeamMemberID: "ana", KpiDefinitionID: "calls", Actual: 20},
		{ID: "p2", TeamMemberID: "ana", KpiDefinitionID: "cancel", Actual: 10},
		{ID: "p3", TeamMemberID: "ben", KpiDefinitionID: "calls", Actual: 40},
		{ID: "p4", TeamMemberID: "ben", KpiDefinitionID: "cancel", Actual: 0},
	}
	return Week{
		Members:  RecomputeScores(members, groups, progress),
		Groups:   groups,
		Progress: progress,
	}
}

func TestCalculateScoreExample(t *testing.T) {
	w := fixtureWeek()
	assert.Equal(t, 50, CalculateScore("ana", w.Groups, w.Progress, w.Members))
	assert.Equal(t, 100, CalculateScore("ben", w.Groups, w.Progress, w.Members))
}

func TestCalculateScoreNoGroupDefaults(t *testing.T) {
	w := fixtureWeek()
	assert.Equal(t, 0, CalculateScore("cy", w.Groups, w.Progress, w.Members))
	assert.Equal(t, 0, CalculateScore("nobody", w.Groups, w.Progress, w.Members))

	dangling := []team.TeamMember{{ID: "dan", KpiGroupID: strPtr("gone")}}
	assert.Equal(t, 0, CalculateScore("dan", w.Groups, w.Progress, dangling))
}

func TestStartOfWeek(t *testing.T) {
	cases := map[string]string{
		"2026-10-19": "2026-10-19", // Monday
		"2026-10-21": "2026-10-19", // Wednesday
		"2026-10-25": "2026-10-19", // Sunday belongs to the week that started Monday
		"2026-11-01": "2026-10-26", // Sunday
		"2027-01-02": "2026-12-28", // Saturday across a year boundary
	}
	for in, want := range cases {
		day, err := time.Parse(DateLayout, in)
		require.NoError(t, err)
		assert.Equal(t, want, WeekOf(day), in)
	}
}

func TestEndWeekArchivesRanksAndResets(t *testing.T) {
	w := fixtureWeek()
	now := time.Date(2026, 10, 22, 17, 0, 0, 0, time.UTC)

	res, err := EndWeek(w, now)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-19", res.WeekOf)
	require.Len(t, res.Snapshots, 3)
	for _, s := range res.Snapshots {
		assert.Equal(t, "2026-10-19", s.WeekOf)
	}

	byMember := map[string]WeeklySnapshot{}
	for _, s := range res.Archived {
		byMember[s.TeamMemberID] = s
	}
	assert.Equal(t, 50, byMember["ana"].PerformanceScore)
	assert.Equal(t, 100, byMember["ben"].PerformanceScore)
	assert.Equal(t, 0, byMember["cy"].PerformanceScore)
	assert.Empty(t, byMember["cy"].KpiSnapshots)
	require.Len(t, byMember["ana"].KpiSnapshots, 2)
	assert.Equal(t, KpiSnapshot{Name: "Calls", Type: kpi.TypeNumber, Goal: 40, Points: 50, Actual: 20}, byMember["ana"].KpiSnapshots[0])

	for _, p := range res.Progress {
		assert.Equal(t, 0.0, p.Actual)
	}
	assert.Len(t, res.Progress, len(w.Progress))

	members := map[string]team.TeamMember{}
	for _, m := range res.Members {
		members[m.ID] = m
	}
	assert.Equal(t, 1, members["ben"].PreviousRank)
	assert.Equal(t, 2, members["ana"].PreviousRank)
	assert.Equal(t, 3, members["cy"].PreviousRank)
	assert.Equal(t, []int{2}, members["ana"].RankHistory)
	assert.Equal(t, 50, members["ana"].PreviousPerformanceScore)
	assert.Equal(t, 100, members["ben"].PreviousPerformanceScore)
	// Zeroed ledger: calls earn nothing, the cancel KPI earns its full share.
	assert.Equal(t, 50, members["ana"].PerformanceScore)

	// Input untouched.
	assert.Equal(t, 20.0, w.Progress[0].Actual)
	assert.Empty(t, w.Members[0].RankHistory)
}

func TestEndWeekRefusesArchivedWeek(t *testing.T) {
	w := fixtureWeek()
	now := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	first, err := EndWeek(w, now)
	require.NoError(t, err)

	_, err = EndWeek(first.Week, now.Add(time.Hour))
	require.ErrorIs(t, err, ErrWeekAlreadyClosed)

	// The first close stays the archived record and baseline.
	require.Len(t, first.Snapshots, 3)
	ben := MemberSnapshots(first.Snapshots, "ben")
	require.Len(t, ben, 1)
	assert.Equal(t, 100, ben[0].PerformanceScore)
	assert.Equal(t, 40.0, ben[0].KpiSnapshots[0].Actual)
	members := map[string]team.TeamMember{}
	for _, m := range first.Members {
		members[m.ID] = m
	}
	assert.Equal(t, 100, members["ben"].PreviousPerformanceScore)
	assert.Equal(t, []int{1}, members["ben"].RankHistory)

	next, err := EndWeek(first.Week, now.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Len(t, next.Snapshots, 6)
}

func TestEndWeekIgnoresSnapshotsOfRemovedMembers(t *testing.T) {
	w := fixtureWeek()
	w.Snapshots = []WeeklySnapshot{{TeamMemberID: "gone", WeekOf: "2026-10-19", PerformanceScore: 80}}
	res, err := EndWeek(w, time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, res.Snapshots, 4)
}

func TestSaveHistoricalSnapshotUpserts(t *testing.T) {
	w := fixtureWeek()

	snaps, snap, err := SaveHistoricalSnapshot(w, "ana", "2026-10-07", []HistoricalEntry{
		{KpiDefinitionID: "calls", Actual: 40},
		{KpiDefinitionID: "cancel", Actual: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-05", snap.WeekOf)
	assert.Equal(t, 50, snap.PerformanceScore)
	w.Snapshots = snaps

	snaps, snap, err = SaveHistoricalSnapshot(w, "ana", "2026-10-05", []HistoricalEntry{
		{KpiDefinitionID: "calls", Actual: 40},
	})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 100, snaps[0].PerformanceScore)
	assert.Equal(t, snap, snaps[0])

	// Live ledger untouched.
	assert.Equal(t, 20.0, kpi.NewLedger(w.Progress).Actual("ana", "calls"))
}

func TestSaveHistoricalSnapshotErrors(t *testing.T) {
	w := fixtureWeek()
	_, _, err := SaveHistoricalSnapshot(w, "ghost", "2026-10-05", nil)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, _, err = SaveHistoricalSnapshot(w, "ana", "last week", nil)
	assert.ErrorIs(t, err, ErrInvalidWeek)

	_, _, err = SaveHistoricalSnapshot(w, "ana", "2026-10-05", []HistoricalEntry{{KpiDefinitionID: "other", Actual: 1}})
	assert.ErrorIs(t, err, ErrUnknownKPI)
}

func TestLeaderboardMovement(t *testing.T) {
	members := []team.TeamMember{
		{ID: "a", Name: "A", PerformanceScore: 60, PreviousRank: 1},
		{ID: "b", Name: "B", PerformanceScore: 90, PreviousRank: 2},
		{ID: "c", Name: "C", PerformanceScore: 10},
	}
	board := Leaderboard(members)
	require.Len(t, board, 3)
	assert.Equal(t, "b", board[0].TeamMemberID)
	assert.Equal(t, 1, board[0].Movement)
	assert.Equal(t, -1, board[1].Movement)
	assert.Equal(t, 0, board[2].Movement)
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]WeeklySnapshot{
		{TeamMemberID: "a", WeekOf: "2026-10-05", PerformanceScore: 95},
		{TeamMemberID: "b", WeekOf: "2026-10-05", PerformanceScore: 40},
		{TeamMemberID: "a", WeekOf: "2026-10-12", PerformanceScore: 78},
	})
	assert.Equal(t, 2, summary.Weeks)
	assert.Equal(t, 3, summary.Snapshots)
	assert.InDelta(t, 71.0, summary.AverageScore, 1e-9)
	assert.Equal(t, map[string]int{BandExcellent: 1, BandGood: 1, BandLow: 1}, summary.BandDistribution)

	empty := Summarize(nil)
	assert.Zero(t, empty.AverageScore)
	assert.Empty(t, empty.BandDistribution)
}
