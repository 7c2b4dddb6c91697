package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"solvo/internal/domain/performance"
	"solvo/internal/domain/ptl"
	"solvo/internal/domain/reports"
	"solvo/internal/domain/team"
)

const (
	systemRisk = "You are an HR analytics assistant. Explain turnover risk for one team member from the computed factors. " +
		"Do not change the score or level. Keep the analysis under 120 words and give 3 to 5 concrete mitigation steps."
	systemCoaching = "You are an experienced team lead writing a coaching plan. Ground every point in the supplied KPI history and past sessions."
	systemDashboard = "You summarise an operations dashboard for a manager in plain language. Mention the most urgent issue first."
)

var narrativeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"analysis":   {Type: genai.TypeString},
		"mitigation": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"analysis", "mitigation"},
}

// RiskAnalysis writes the narrative for a computed risk report.
func (c *Client) RiskAnalysis(ctx context.Context, in ptl.RiskContext) (ptl.Narrative, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Team member: %s (%s)\n", in.MemberName, in.Role)
	fmt.Fprintf(&b, "Risk score: %d/100, level %s\nFactors:\n", in.Report.RiskScore, in.Report.RiskLevel)
	for _, f := range in.Report.Factors {
		fmt.Fprintf(&b, "- %s: %s (%s) %s\n", f.Name, f.Value, f.Impact, f.Description)
	}

	var out ptl.Narrative
	if err := c.GenerateJSON(ctx, "risk_analysis", systemRisk, b.String(), narrativeSchema, &out); err != nil {
		return ptl.Narrative{}, err
	}
	if strings.TrimSpace(out.Analysis) == "" {
		return ptl.Narrative{}, ErrEmptyResponse
	}
	return out, nil
}

type CoachingInput struct {
	Member    team.TeamMember
	Snapshots []performance.WeeklySnapshot
	Sessions  []team.CoachingSession
}

type CoachingPlan struct {
	Summary     string   `json:"summary"`
	Strengths   []string `json:"strengths"`
	FocusAreas  []string `json:"focusAreas"`
	ActionItems []string `json:"actionItems"`
}

var coachingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":     {Type: genai.TypeString},
		"strengths":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"focusAreas":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"actionItems": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"summary", "actionItems"},
}

func (c *Client) CoachingPlan(ctx context.Context, in CoachingInput) (CoachingPlan, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Team member: %s (%s). Current score %d, last week %d.\n",
		in.Member.Name, in.Member.Role, in.Member.PerformanceScore, in.Member.PreviousPerformanceScore)
	b.WriteString("Recent weeks:\n")
	for _, snap := range in.Snapshots {
		fmt.Fprintf(&b, "- %s score %d:", snap.WeekOf, snap.PerformanceScore)
		for _, k := range snap.KpiSnapshots {
			fmt.Fprintf(&b, " %s %g/%g;", k.Name, k.Actual, k.Goal)
		}
		b.WriteString("\n")
	}
	if len(in.Sessions) > 0 {
		b.WriteString("Previous coaching sessions:\n")
		for _, s := range in.Sessions {
			fmt.Fprintf(&b, "- %s: %s\n", s.Date, s.Notes)
		}
	}

	var out CoachingPlan
	if err := c.GenerateJSON(ctx, "coaching_plan", systemCoaching, b.String(), coachingSchema, &out); err != nil {
		return CoachingPlan{}, err
	}
	return out, nil
}

type DashboardBrief struct {
	Headline   string   `json:"headline"`
	Highlights []string `json:"highlights"`
}

var dashboardSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"headline":   {Type: genai.TypeString},
		"highlights": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"headline"},
}

func (c *Client) DashboardSummary(ctx context.Context, d reports.Dashboard) (DashboardBrief, error) {
	facts, err := json.Marshal(d)
	if err != nil {
		return DashboardBrief{}, err
	}
	var out DashboardBrief
	if err := c.GenerateJSON(ctx, "dashboard_summary", systemDashboard, "Dashboard data:\n"+string(facts), dashboardSchema, &out); err != nil {
		return DashboardBrief{}, err
	}
	return out, nil
}
