package ptl

import (
	"fmt"
	"math"
	"strings"
	"time"

	"solvo/internal/domain/team"
)

type scoredFactor struct {
	factor team.PtlFactor
	count  int
}

// Compute derives the deterministic part of the turnover-risk report. The
// Summary and Mitigation fields are left empty; they come from the narrative
// collaborator.
func Compute(member team.TeamMember, tasks []team.Task, clients []team.Client, now time.Time) team.PtlReport {
	scored := []scoredFactor{
		performanceFactor(member),
		trendFactor(member),
		tenureFactor(member, now),
		workloadFactor(member, tasks),
		clientHealthFactor(member, clients),
		leaveFactor(FactorMedical, team.LeaveTypeMedical, member, now),
		leaveFactor(FactorPermissions, team.LeaveTypePermission, member, now),
		statusNotesFactor(member),
	}

	score := baseRisk
	factors := make([]team.PtlFactor, 0, len(scored))
	for _, s := range scored {
		switch s.factor.Impact {
		case team.ImpactNegative:
			score += penalty(s)
		case team.ImpactPositive:
			if s.factor.Name == FactorPerformance && member.PerformanceScore > 90 {
				score -= 10
			} else {
				score -= 5
			}
		}
		factors = append(factors, s.factor)
	}
	score = clamp(score)

	return team.PtlReport{
		RiskScore: score,
		RiskLevel: LevelFor(score),
		Factors:   factors,
	}
}

func penalty(s scoredFactor) int {
	switch s.factor.Name {
	case FactorStatusNotes:
		return 50
	case FactorTrend:
		return 15
	case FactorClientHealth:
		return 10 * s.count
	case FactorMedical:
		return 2 * s.count
	case FactorPermissions:
		return s.count
	default:
		return 10
	}
}

// LevelFor maps a clamped score onto its level; each threshold belongs to
// the higher level.
func LevelFor(score int) team.RiskLevel {
	switch {
	case score < 25:
		return team.RiskLow
	case score < 50:
		return team.RiskMedium
	case score < 75:
		return team.RiskHigh
	default:
		return team.RiskCritical
	}
}

func clamp(score int) int {
	return max(0, min(100, score))
}

func performanceFactor(m team.TeamMember) scoredFactor {
	impact := team.ImpactNegative
	switch {
	case m.PerformanceScore >= 80:
		impact = team.ImpactPositive
	case m.PerformanceScore >= 60:
		impact = team.ImpactNeutral
	}
	return scoredFactor{factor: team.PtlFactor{
		Name:        FactorPerformance,
		Value:       fmt.Sprintf("%d%%", m.PerformanceScore),
		Impact:      impact,
		Description: "Current weekly performance score.",
	}}
}

func trendFactor(m team.TeamMember) scoredFactor {
	impact := team.ImpactPositive
	if m.PerformanceScore < m.PreviousPerformanceScore {
		impact = team.ImpactNegative
	}
	return scoredFactor{factor: team.PtlFactor{
		Name:        FactorTrend,
		Value:       fmt.Sprintf("%+d pts", m.PerformanceScore-m.PreviousPerformanceScore),
		Impact:      impact,
		Description: fmt.Sprintf("Score change against last week's %d.", m.PreviousPerformanceScore),
	}}
}

func tenureFactor(m team.TeamMember, now time.Time) scoredFactor {
	months, ok := TenureMonths(m.HireDate, now)
	value := "N/A"
	if ok {
		value = fmt.Sprintf("%d months", months)
	}
	impact := team.ImpactPositive
	switch {
	case months < 6:
		impact = team.ImpactNegative
	case months < 18:
		impact = team.ImpactNeutral
	}
	return scoredFactor{factor: team.PtlFactor{
		Name:        FactorTenure,
		Value:       value,
		Impact:      impact,
		Description: "Time since hire date; early tenure carries more attrition risk.",
	}}
}

// TenureMonths returns whole months since hireDate. A missing or invalid
// date reports ok=false and zero months.
func TenureMonths(hireDate string, now time.Time) (int, bool) {
	hired, ok := parseDate(hireDate)
	if !ok {
		return 0, false
	}
	days := now.Sub(hired).Hours() / 24
	return int(math.Floor(days / daysPerMonth)), true
}

func workloadFactor(m team.TeamMember, tasks []team.Task) scoredFactor {
	overdue := 0
	for _, t := range tasks {
		if t.AssigneeID == m.ID && t.Status == team.TaskStatusOverdue {
			overdue++
		}
	}
	impact := team.ImpactNegative
	switch {
	case overdue == 0:
		impact = team.ImpactPositive
	case overdue <= 2:
		impact = team.ImpactNeutral
	}
	return scoredFactor{count: overdue, factor: team.PtlFactor{
		Name:        FactorWorkload,
		Value:       fmt.Sprintf("%d overdue", overdue),
		Impact:      impact,
		Description: "Overdue tasks currently assigned.",
	}}
}

func clientHealthFactor(m team.TeamMember, clients []team.Client) scoredFactor {
	critical := 0
	for _, c := range clients {
		if c.Status != team.ClientStatusCritical {
			continue
		}
		for _, id := range c.AssignedMemberIDs {
			if id == m.ID {
				critical++
				break
			}
		}
	}
	impact := team.ImpactPositive
	if critical > 0 {
		impact = team.ImpactNegative
	}
	return scoredFactor{count: critical, factor: team.PtlFactor{
		Name:        FactorClientHealth,
		Value:       fmt.Sprintf("%d critical", critical),
		Impact:      impact,
		Description: "Assigned clients in critical status.",
	}}
}

func leaveFactor(name, leaveType string, m team.TeamMember, now time.Time) scoredFactor {
	count := 0
	for _, entry := range m.LeaveLog {
		if entry.Type != leaveType {
			continue
		}
		if day, ok := parseDate(entry.Date); ok && day.Year() == now.Year() {
			count++
		}
	}
	impact := team.ImpactNegative
	switch {
	case count < 3:
		impact = team.ImpactPositive
	case count <= 5:
		impact = team.ImpactNeutral
	}
	return scoredFactor{count: count, factor: team.PtlFactor{
		Name:        name,
		Value:       fmt.Sprintf("%d", count),
		Impact:      impact,
		Description: fmt.Sprintf("%s entries logged this calendar year.", leaveType),
	}}
}

func statusNotesFactor(m team.TeamMember) scoredFactor {
	f := team.PtlFactor{
		Name:        FactorStatusNotes,
		Value:       "No flags",
		Impact:      team.ImpactPositive,
		Description: "Home office notes do not mention a resignation.",
	}
	if strings.Contains(strings.ToLower(m.HomeOfficeNotes), "resign") {
		f.Value = "Resigned"
		f.Impact = team.ImpactNegative
		f.Description = "Home office notes mention a resignation."
	}
	return scoredFactor{factor: f}
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
