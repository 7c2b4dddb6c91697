package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAchievementRatioPolarity(t *testing.T) {
	cancel := Definition{Name: "Cancellation Rate", Goal: 20, Points: 50}
	calls := Definition{Name: "Calls Made", Goal: 20, Points: 50}

	assert.InDelta(t, 0.5, AchievementRatio(cancel, 10), 1e-9)
	assert.InDelta(t, 0.5, AchievementRatio(calls, 10), 1e-9)

	assert.InDelta(t, 0, AchievementRatio(cancel, 30), 1e-9)
	assert.InDelta(t, 1, AchievementRatio(calls, 30), 1e-9)
}

func TestLowerIsBetterMatchesSubstringAnyCase(t *testing.T) {
	assert.True(t, Definition{Name: "CANCELLED visits"}.LowerIsBetter())
	assert.True(t, Definition{Name: "no-cancel streak"}.LowerIsBetter())
	assert.False(t, Definition{Name: "Calls"}.LowerIsBetter())
}

func TestEarnedZeroGoal(t *testing.T) {
	d := Definition{Name: "Escalations", Goal: 0, Points: 25}
	assert.Equal(t, 25.0, Earned(d, 0))
	assert.Equal(t, 0.0, Earned(d, 1))
	assert.Equal(t, 0.0, Earned(d, -2))
}

func TestScoreExampleScenario(t *testing.T) {
	group := Group{ID: "g1", KPIs: []Definition{
		{ID: "calls", Name: "Calls", Goal: 40, Points: 50},
		{ID: "cancel", Name: "Cancelled Visits", Goal: 20, Points: 50},
	}}
	ledger := NewLedger([]Progress{
		{ID: "p1", TeamMemberID: "m1", KpiDefinitionID: "calls", Actual: 20},
		{ID: "p2", TeamMemberID: "m1", KpiDefinitionID: "cancel", Actual: 10},
	})
	assert.Equal(t, 50, Score(group, "m1", ledger))
}

func TestScoreGuards(t *testing.T) {
	ledger := NewLedger(nil)
	assert.Equal(t, 0, Score(Group{ID: "empty"}, "m1", ledger))
	assert.Equal(t, 0, Score(Group{ID: "zero", KPIs: []Definition{{ID: "a", Name: "A", Goal: 10, Points: 0}}}, "m1", ledger))
}

func TestScoreMissingRowsDefaultToZero(t *testing.T) {
	group := Group{ID: "g", KPIs: []Definition{
		{ID: "a", Name: "Calls", Goal: 10, Points: 60},
		{ID: "b", Name: "Cancellations", Goal: 5, Points: 40},
	}}
	// Calls earns nothing, the cancel KPI earns full points at zero.
	assert.Equal(t, 40, Score(group, "m1", NewLedger(nil)))
}

func TestScoreRoundsHalfUp(t *testing.T) {
	group := Group{ID: "g", KPIs: []Definition{
		{ID: "a", Name: "Calls", Goal: 8, Points: 1},
		{ID: "b", Name: "Visits", Goal: 1, Points: 1},
	}}
	// 0.125 / 2 * 100 = 6.25
	ledger := NewLedger([]Progress{{TeamMemberID: "m", KpiDefinitionID: "a", Actual: 1}})
	assert.Equal(t, 6, Score(group, "m", ledger))

	// 0.125 * 100 = 12.5
	single := Group{ID: "h", KPIs: []Definition{{ID: "a", Name: "Calls", Goal: 8, Points: 100}}}
	assert.Equal(t, 13, Score(single, "m", ledger))
}

func TestScoreStaysInBounds(t *testing.T) {
	group := Group{ID: "g", KPIs: []Definition{
		{ID: "a", Name: "Calls", Goal: 10, Points: 30},
		{ID: "b", Name: "Cancel Rate", Goal: 4, Points: 30},
		{ID: "c", Name: "Zero Complaints", Goal: 0, Points: 40},
	}}
	actuals := []float64{-5, 0, 0.3, 2, 4, 10, 1000}
	for _, a := range actuals {
		for _, b := range actuals {
			for _, c := range actuals {
				ledger := NewLedger([]Progress{
					{TeamMemberID: "m", KpiDefinitionID: "a", Actual: a},
					{TeamMemberID: "m", KpiDefinitionID: "b", Actual: b},
					{TeamMemberID: "m", KpiDefinitionID: "c", Actual: c},
				})
				score := Score(group, "m", ledger)
				require.GreaterOrEqual(t, score, 0)
				require.LessOrEqual(t, score, 100)
			}
		}
	}
}

func TestLedgerUpsertAndReset(t *testing.T) {
	ids := 0
	newID := func() string { ids++; return "row" }

	rows := UpsertActual(nil, "m1", "d1", 3, newID)
	rows = UpsertActual(rows, "m1", "d1", 7, newID)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, ids)
	assert.Equal(t, 7.0, NewLedger(rows).Actual("m1", "d1"))

	_, ok := NewLedger(rows).Lookup("m1", "missing")
	assert.False(t, ok)

	reset := ResetActuals(rows)
	require.Len(t, reset, 1)
	assert.Equal(t, 0.0, reset[0].Actual)
	assert.Equal(t, 7.0, rows[0].Actual, "reset must not mutate its input")
}
