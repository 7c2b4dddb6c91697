package kpi

import "strings"

type ledgerKey struct {
	memberID     string
	definitionID string
}

// Ledger indexes progress rows by (member, definition). Rows that do not
// exist are reported as absent by Lookup; Actual is the only place where
// absence becomes zero.
type Ledger struct {
	rows map[ledgerKey]Progress
}

func NewLedger(rows []Progress) Ledger {
	index := make(map[ledgerKey]Progress, len(rows))
	for _, row := range rows {
		index[ledgerKey{row.TeamMemberID, row.KpiDefinitionID}] = row
	}
	return Ledger{rows: index}
}

func (l Ledger) Lookup(memberID, definitionID string) (Progress, bool) {
	row, ok := l.rows[ledgerKey{memberID, definitionID}]
	return row, ok
}

func (l Ledger) Actual(memberID, definitionID string) float64 {
	if row, ok := l.Lookup(memberID, definitionID); ok {
		return row.Actual
	}
	return 0
}

// UpsertActual returns a copy of rows with the actual for (member,
// definition) set, appending a new row when none exists yet.
func UpsertActual(rows []Progress, memberID, definitionID string, actual float64, newID func() string) []Progress {
	out := make([]Progress, 0, len(rows)+1)
	found := false
	for _, row := range rows {
		if row.TeamMemberID == memberID && row.KpiDefinitionID == definitionID {
			row.Actual = actual
			found = true
		}
		out = append(out, row)
	}
	if !found {
		out = append(out, Progress{
			ID:              newID(),
			TeamMemberID:    memberID,
			KpiDefinitionID: definitionID,
			Actual:          actual,
		})
	}
	return out
}

// ResetActuals zeroes every row while keeping the rows themselves.
func ResetActuals(rows []Progress) []Progress {
	out := make([]Progress, len(rows))
	for i, row := range rows {
		row.Actual = 0
		out[i] = row
	}
	return out
}

func RemoveMember(rows []Progress, memberID string) []Progress {
	out := make([]Progress, 0, len(rows))
	for _, row := range rows {
		if row.TeamMemberID != memberID {
			out = append(out, row)
		}
	}
	return out
}

func RemoveDefinitions(rows []Progress, definitionIDs map[string]struct{}) []Progress {
	out := make([]Progress, 0, len(rows))
	for _, row := range rows {
		if _, drop := definitionIDs[row.KpiDefinitionID]; !drop {
			out = append(out, row)
		}
	}
	return out
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
