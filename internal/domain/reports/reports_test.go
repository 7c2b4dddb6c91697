package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/team"
	"solvo/internal/domain/workspace"
)

func fixture() workspace.State {
	group := "sales"
	return workspace.State{
		Clients: []team.Client{
			{ID: "c1", Status: team.ClientStatusHealthy},
			{ID: "c2", Status: team.ClientStatusCritical},
			{ID: "c3", Status: team.ClientStatusCritical},
		},
		Tasks: []team.Task{
			{ID: "t1", Status: team.TaskStatusOverdue},
			{ID: "t2", Status: team.TaskStatusDone},
		},
		TeamMembers: []team.TeamMember{
			{ID: "ana", Name: "Ana", KpiGroupID: &group, PerformanceScore: 50,
				PtlReport: &team.PtlReport{RiskScore: 60, RiskLevel: team.RiskHigh, Summary: "Watch workload."}},
			{ID: "ben", Name: "Ben", KpiGroupID: &group, PerformanceScore: 100,
				PtlReport: &team.PtlReport{RiskScore: 5, RiskLevel: team.RiskLow}},
			{ID: "cy", Name: "Cy", PerformanceScore: 0,
				PtlReport: &team.PtlReport{RiskScore: 90, RiskLevel: team.RiskCritical}},
			{ID: "di", Name: "Di", PerformanceScore: 70},
		},
		KpiGroups: []kpi.Group{{ID: "sales", Name: "Sales", KPIs: []kpi.Definition{
			{ID: "calls", Name: "Calls", Type: kpi.TypeNumber, Goal: 40, Points: 50},
			{ID: "rate", Name: "Close Rate", Type: kpi.TypePercentage, Goal: 30, Points: 50},
		}}},
		KpiProgress: []kpi.Progress{{ID: "p1", TeamMemberID: "ana", KpiDefinitionID: "calls", Actual: 20}},
		WeeklySnapshots: []performance.WeeklySnapshot{
			{TeamMemberID: "ana", WeekOf: "2026-10-05", PerformanceScore: 40, KpiSnapshots: []performance.KpiSnapshot{
				{Name: "Calls", Type: kpi.TypeNumber, Goal: 40, Points: 50, Actual: 16},
				{Name: "Close Rate", Type: kpi.TypePercentage, Goal: 30, Points: 50, Actual: 12},
			}},
			{TeamMemberID: "ana", WeekOf: "2026-10-12", PerformanceScore: 55, KpiSnapshots: []performance.KpiSnapshot{
				{Name: "Calls", Type: kpi.TypeNumber, Goal: 40, Points: 50, Actual: 30},
			}},
			{TeamMemberID: "cy", WeekOf: "2026-10-12", PerformanceScore: 0},
		},
	}
}

func TestBuildDashboard(t *testing.T) {
	d := BuildDashboard(fixture())

	assert.Equal(t, 3, d.TotalClients)
	assert.Equal(t, 2, d.ClientStatuses[team.ClientStatusCritical])
	assert.Equal(t, 0, d.ClientStatuses[team.ClientStatusAtRisk])
	assert.Equal(t, 1, d.OverdueTasks)
	assert.Equal(t, 4, d.TeamSize)
	assert.InDelta(t, 55.0, d.AverageScore, 0.001)
	require.Len(t, d.AtRisk, 2)
	assert.Equal(t, "cy", d.AtRisk[0].TeamMemberID)
	assert.Equal(t, "ana", d.AtRisk[1].TeamMemberID)
	require.Len(t, d.TopPerformers, 3)
	assert.Equal(t, "ben", d.TopPerformers[0].TeamMemberID)
	assert.Equal(t, "2026-10-12", d.LatestWeekOf)
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := BuildDashboard(workspace.State{})
	assert.Zero(t, d.AverageScore)
	assert.NotNil(t, d.AtRisk)
	assert.Empty(t, d.TopPerformers)
}

func TestMemberPerformancePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MemberPerformancePDF(&buf, fixture(), "ana", time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	buf.Reset()
	require.NoError(t, MemberPerformancePDF(&buf, fixture(), "di", time.Now()))
	assert.NotZero(t, buf.Len())

	err := MemberPerformancePDF(&buf, fixture(), "ghost", time.Now())
	assert.ErrorIs(t, err, workspace.ErrMemberNotFound)
}

func TestSnapshotsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SnapshotsXLSX(&buf, fixture(), ""))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(snapshotSheet)
	require.NoError(t, err)

	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Week of", "Member", "Score", "Band", "KPI", "Type", "Goal", "Points", "Actual"}, rows[0])
	assert.Equal(t, []string{"2026-10-12", "Ana", "55", "fair", "Calls", "number", "40", "50", "30"}, rows[1])
	assert.Equal(t, []string{"2026-10-12", "Cy", "0", "low"}, rows[2])
	assert.Equal(t, "Close Rate", rows[4][4])
}

func TestSnapshotsXLSXForOneMember(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SnapshotsXLSX(&buf, fixture(), "cy"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(snapshotSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
