package ptl

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solvo/internal/domain/team"
)

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func factorByName(t *testing.T, report team.PtlReport, name string) team.PtlFactor {
	t.Helper()
	for _, f := range report.Factors {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("factor %q not found", name)
	return team.PtlFactor{}
}

func leaves(kind, date string, n int) []team.LeaveLogEntry {
	out := make([]team.LeaveLogEntry, 0, n)
	for range n {
		out = append(out, team.LeaveLogEntry{Type: kind, Date: date})
	}
	return out
}

func TestComputeHealthyMemberClampsToZero(t *testing.T) {
	member := team.TeamMember{
		ID: "m1", PerformanceScore: 95, PreviousPerformanceScore: 90, HireDate: "2020-01-01",
	}

	report := Compute(member, nil, nil, now)

	assert.Equal(t, 0, report.RiskScore)
	assert.Equal(t, team.RiskLow, report.RiskLevel)
	require.Len(t, report.Factors, 8)
	for _, f := range report.Factors {
		assert.Equal(t, team.ImpactPositive, f.Impact, f.Name)
	}
	assert.Empty(t, report.Summary)
	assert.Empty(t, report.Mitigation)
}

func TestComputeWorstCaseClampsToHundred(t *testing.T) {
	member := team.TeamMember{
		ID: "m1", PerformanceScore: 10, PreviousPerformanceScore: 50, HireDate: "2026-09-01",
		HomeOfficeNotes: "Resigned effective next month",
	}
	member.LeaveLog = append(leaves(team.LeaveTypeMedical, "2026-03-02", 6), leaves(team.LeaveTypePermission, "2026-05-04", 6)...)
	tasks := []team.Task{
		{AssigneeID: "m1", Status: team.TaskStatusOverdue},
		{AssigneeID: "m1", Status: team.TaskStatusOverdue},
		{AssigneeID: "m1", Status: team.TaskStatusOverdue},
		{AssigneeID: "m2", Status: team.TaskStatusOverdue},
	}
	clients := []team.Client{
		{Status: team.ClientStatusCritical, AssignedMemberIDs: []string{"m1"}},
		{Status: team.ClientStatusCritical, AssignedMemberIDs: []string{"m2", "m1"}},
		{Status: team.ClientStatusAtRisk, AssignedMemberIDs: []string{"m1"}},
	}

	report := Compute(member, tasks, clients, now)

	assert.Equal(t, 100, report.RiskScore)
	assert.Equal(t, team.RiskCritical, report.RiskLevel)
	for _, f := range report.Factors {
		assert.Equal(t, team.ImpactNegative, f.Impact, f.Name)
	}
	assert.Equal(t, "3 overdue", factorByName(t, report, FactorWorkload).Value)
	assert.Equal(t, "2 critical", factorByName(t, report, FactorClientHealth).Value)
	assert.Equal(t, "Resigned", factorByName(t, report, FactorStatusNotes).Value)
}

func TestComputeMixedFactors(t *testing.T) {
	member := team.TeamMember{
		ID: "m1", PerformanceScore: 70, PreviousPerformanceScore: 70, HireDate: "not a date",
	}
	member.LeaveLog = append(member.LeaveLog, leaves(team.LeaveTypeMedical, "2026-02-10", 4)...)
	member.LeaveLog = append(member.LeaveLog, leaves(team.LeaveTypeMedical, "2025-12-30", 3)...)
	member.LeaveLog = append(member.LeaveLog, leaves(team.LeaveTypePermission, "2026-06-01", 7)...)
	tasks := []team.Task{{AssigneeID: "m1", Status: team.TaskStatusOverdue}, {AssigneeID: "m1", Status: team.TaskStatusDone}}
	clients := []team.Client{{Status: team.ClientStatusCritical, AssignedMemberIDs: []string{"m1"}}}

	report := Compute(member, tasks, clients, now)

	// 10 - 5 (trend) + 10 (tenure) + 10 (one critical client) + 7 (permissions) - 5 (notes)
	assert.Equal(t, 27, report.RiskScore)
	assert.Equal(t, team.RiskMedium, report.RiskLevel)

	assert.Equal(t, team.ImpactNeutral, factorByName(t, report, FactorPerformance).Impact)
	tenure := factorByName(t, report, FactorTenure)
	assert.Equal(t, "N/A", tenure.Value)
	assert.Equal(t, team.ImpactNegative, tenure.Impact)
	assert.Equal(t, team.ImpactNeutral, factorByName(t, report, FactorWorkload).Impact)
	medical := factorByName(t, report, FactorMedical)
	assert.Equal(t, "4", medical.Value)
	assert.Equal(t, team.ImpactNeutral, medical.Impact)
	assert.Equal(t, team.ImpactNegative, factorByName(t, report, FactorPermissions).Impact)
}

func TestComputeHighPerformanceBonus(t *testing.T) {
	base := team.TeamMember{ID: "m1", HireDate: "2020-01-01", HomeOfficeNotes: "may resign"}

	above := base
	above.PerformanceScore, above.PreviousPerformanceScore = 91, 91
	at := base
	at.PerformanceScore, at.PreviousPerformanceScore = 90, 90

	assert.Equal(t, 20, Compute(above, nil, nil, now).RiskScore)
	assert.Equal(t, 25, Compute(at, nil, nil, now).RiskScore)
}

func TestLevelForBoundaries(t *testing.T) {
	cases := map[int]team.RiskLevel{
		0:   team.RiskLow,
		24:  team.RiskLow,
		25:  team.RiskMedium,
		49:  team.RiskMedium,
		50:  team.RiskHigh,
		74:  team.RiskHigh,
		75:  team.RiskCritical,
		100: team.RiskCritical,
	}
	for score, want := range cases {
		assert.Equal(t, want, LevelFor(score), "score %d", score)
	}
}

func TestTenureMonths(t *testing.T) {
	months, ok := TenureMonths("2025-10-19", now)
	require.True(t, ok)
	assert.Equal(t, 11, months)

	months, ok = TenureMonths("2026-04-19", now)
	require.True(t, ok)
	assert.Equal(t, 6, months)

	months, ok = TenureMonths("", now)
	assert.False(t, ok)
	assert.Zero(t, months)
}

type fakeNarrator struct {
	configured bool
	narrative  Narrative
	err        error
	block      bool
	calls      atomic.Int32
}

func (f *fakeNarrator) Configured() bool { return f.configured }

func (f *fakeNarrator) RiskAnalysis(ctx context.Context, _ RiskContext) (Narrative, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return Narrative{}, ctx.Err()
	}
	return f.narrative, f.err
}

func newTestAssessor(t *testing.T, n Narrator, timeout time.Duration) *Assessor {
	t.Helper()
	a, err := NewAssessor(n, timeout, 8, nil, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return a
}

func riskyMember() team.TeamMember {
	return team.TeamMember{
		ID: "m1", Name: "Ana", PerformanceScore: 40, PreviousPerformanceScore: 60, HireDate: "2026-01-05",
	}
}

func TestAssessNarrativeFailureKeepsReport(t *testing.T) {
	member := riskyMember()
	expected := Compute(member, nil, nil, now)

	cases := map[string]struct {
		narrator Narrator
		message  string
	}{
		"nil narrator":   {narrator: nil, message: ErrNarrativeNotConfigured.Error()},
		"not configured": {narrator: &fakeNarrator{}, message: ErrNarrativeNotConfigured.Error()},
		"call failure":   {narrator: &fakeNarrator{configured: true, err: errors.New("quota exceeded")}, message: "quota exceeded"},
		"timeout":        {narrator: &fakeNarrator{configured: true, block: true}, message: "AI narrative timed out"},
		"empty text":     {narrator: &fakeNarrator{configured: true}, message: "narrative response was empty"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			a := newTestAssessor(t, tc.narrator, 20*time.Millisecond)
			got := a.Assess(context.Background(), member, nil, nil)
			assert.Equal(t, expected, got.Report)
			assert.Nil(t, got.Narrative)
			assert.Equal(t, tc.message, got.NarrativeError)
		})
	}
}

func TestAssessAttachesNarrativeAndCaches(t *testing.T) {
	n := &fakeNarrator{configured: true, narrative: Narrative{
		Analysis:   "Declining trend in a new hire.",
		Mitigation: []string{"Schedule a check-in", "Pair with a mentor"},
	}}
	a := newTestAssessor(t, n, time.Second)
	member := riskyMember()

	first := a.Assess(context.Background(), member, nil, nil)
	second := a.Assess(context.Background(), member, nil, nil)

	require.NotNil(t, first.Narrative)
	assert.Empty(t, first.NarrativeError)
	assert.Equal(t, "Declining trend in a new hire.", first.Report.Summary)
	assert.Equal(t, []string{"Schedule a check-in", "Pair with a mentor"}, first.Report.Mitigation)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, n.calls.Load())

	expected := Compute(member, nil, nil, now)
	assert.Equal(t, expected.RiskScore, first.Report.RiskScore)
	assert.Equal(t, expected.Factors, first.Report.Factors)
}

func TestAssessNarrativeCacheKeysOnName(t *testing.T) {
	n := &fakeNarrator{configured: true, narrative: Narrative{Analysis: "Watch closely."}}
	a := newTestAssessor(t, n, time.Second)
	member := riskyMember()

	a.Assess(context.Background(), member, nil, nil)
	member.Name = "Ana Souza"
	a.Assess(context.Background(), member, nil, nil)

	assert.EqualValues(t, 2, n.calls.Load())
}

func TestAssessUsesConfiguredClock(t *testing.T) {
	// New Year's first hour in UTC+3 is still the previous year in UTC.
	local := time.Date(2027, 1, 1, 0, 30, 0, 0, time.FixedZone("UTC+3", 3*3600))
	a, err := NewAssessor(nil, time.Second, 8, nil, WithClock(func() time.Time { return local }))
	require.NoError(t, err)

	member := riskyMember()
	member.LeaveLog = leaves(team.LeaveTypeMedical, "2026-12-20", 4)

	got := a.Assess(context.Background(), member, nil, nil)
	assert.Equal(t, Compute(member, nil, nil, local), got.Report)
	assert.Equal(t, "0", factorByName(t, got.Report, FactorMedical).Value)
	assert.Equal(t, "4", factorByName(t, Compute(member, nil, nil, local.UTC()), FactorMedical).Value)
}
