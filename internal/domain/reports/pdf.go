package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/team"
	"solvo/internal/domain/workspace"
)

// historyRows caps the snapshot table in the member report.
const historyRows = 12

// MemberPerformancePDF renders the member's current score, KPI progress and
// recent snapshot history.
func MemberPerformancePDF(w io.Writer, s workspace.State, memberID string, generatedAt time.Time) error {
	member, ok := team.FindMember(s.TeamMembers, memberID)
	if !ok {
		return workspace.ErrMemberNotFound
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Performance report: %s", member.Name), true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Performance report: %s", member.Name))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Role: %s", member.Role))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Current score: %d (previous week %d)", member.PerformanceScore, member.PreviousPerformanceScore))
	pdf.Ln(6)
	if member.PreviousRank > 0 {
		pdf.Cell(0, 7, fmt.Sprintf("Last closed rank: %d", member.PreviousRank))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	group, hasGroup := kpi.FindGroup(s.KpiGroups, member.GroupID())
	sectionTitle(pdf, "Current week")
	if !hasGroup || len(group.KPIs) == 0 {
		pdf.Cell(0, 7, "No KPI group assigned.")
		pdf.Ln(10)
	} else {
		ledger := kpi.NewLedger(s.KpiProgress)
		tableHeader(pdf, []string{"KPI", "Goal", "Actual", "Points", "Earned"}, []float64{70, 28, 28, 28, 28})
		for _, d := range group.KPIs {
			actual := ledger.Actual(member.ID, d.ID)
			tableRow(pdf, []string{
				d.Name,
				formatValue(d.Type, d.Goal),
				formatValue(d.Type, actual),
				fmt.Sprintf("%.0f", d.Points),
				fmt.Sprintf("%.1f", kpi.Earned(d, actual)),
			}, []float64{70, 28, 28, 28, 28})
		}
		pdf.Ln(6)
	}

	sectionTitle(pdf, "Weekly history")
	history := performance.MemberSnapshots(s.WeeklySnapshots, member.ID)
	if len(history) == 0 {
		pdf.Cell(0, 7, "No archived weeks yet.")
		pdf.Ln(8)
	} else {
		if len(history) > historyRows {
			history = history[:historyRows]
		}
		tableHeader(pdf, []string{"Week of", "Score", "Band"}, []float64{50, 30, 40})
		for _, snap := range history {
			tableRow(pdf, []string{snap.WeekOf, fmt.Sprintf("%d", snap.PerformanceScore), performance.Band(snap.PerformanceScore)}, []float64{50, 30, 40})
		}
	}

	if member.PtlReport != nil {
		pdf.Ln(6)
		sectionTitle(pdf, "Saved turnover risk")
		pdf.Cell(0, 7, fmt.Sprintf("%s (%d/100)", member.PtlReport.RiskLevel, member.PtlReport.RiskScore))
		pdf.Ln(7)
		if member.PtlReport.Summary != "" {
			pdf.MultiCell(0, 6, member.PtlReport.Summary, "", "L", false)
		}
	}

	return pdf.Output(w)
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
}

func tableHeader(pdf *gofpdf.Fpdf, cols []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 10)
	for i, c := range cols {
		pdf.CellFormat(widths[i], 7, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
}

func tableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64) {
	for i, c := range cols {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, c, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func formatValue(t kpi.Type, v float64) string {
	if t == kpi.TypePercentage {
		return fmt.Sprintf("%.1f%%", v)
	}
	return fmt.Sprintf("%g", v)
}
