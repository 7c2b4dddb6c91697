package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"solvo/internal/domain/performance"
	"solvo/internal/domain/workspace"
)

const snapshotSheet = "Snapshots"

var snapshotHeaders = []any{"Week of", "Member", "Score", "Band", "KPI", "Type", "Goal", "Points", "Actual"}

// SnapshotsXLSX writes one row per archived KPI value, newest week first. A
// snapshot without KPIs still gets a row carrying its score.
func SnapshotsXLSX(w io.Writer, s workspace.State, memberID string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", snapshotSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(snapshotSheet, "A1", &snapshotHeaders); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(snapshotSheet, "A1", "I1", style); err != nil {
		return err
	}

	names := make(map[string]string, len(s.TeamMembers))
	for _, m := range s.TeamMembers {
		names[m.ID] = m.Name
	}

	row := 2
	for _, snap := range performance.MemberSnapshots(s.WeeklySnapshots, memberID) {
		name := names[snap.TeamMemberID]
		if name == "" {
			name = snap.TeamMemberID
		}
		base := []any{snap.WeekOf, name, snap.PerformanceScore, performance.Band(snap.PerformanceScore)}
		if len(snap.KpiSnapshots) == 0 {
			if err := writeRow(f, row, base); err != nil {
				return err
			}
			row++
			continue
		}
		for _, k := range snap.KpiSnapshots {
			values := append(append([]any(nil), base...), k.Name, string(k.Type), k.Goal, k.Points, k.Actual)
			if err := writeRow(f, row, values); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SetColWidth(snapshotSheet, "A", "B", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(snapshotSheet, "E", "E", 28); err != nil {
		return err
	}
	return f.Write(w)
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(snapshotSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
