package aihandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"solvo/internal/domain/assistant"
	"solvo/internal/domain/auth"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/reports"
	"solvo/internal/domain/team"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/ai"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
	"solvo/internal/transport/http/shared"
)

// coachingHistory bounds how many archived weeks feed a coaching plan.
const coachingHistory = 8

type Advisor interface {
	CoachingPlan(ctx context.Context, in ai.CoachingInput) (ai.CoachingPlan, error)
	DashboardSummary(ctx context.Context, d reports.Dashboard) (ai.DashboardBrief, error)
}

type Handler struct {
	Workspace   *workspace.Service
	Assistant   *assistant.Service
	Advisor     Advisor
	Permissions middleware.PermissionStore
	Timeout     time.Duration
}

func NewHandler(ws *workspace.Service, asst *assistant.Service, advisor Advisor, perms middleware.PermissionStore, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{Workspace: ws, Assistant: asst, Advisor: advisor, Permissions: perms, Timeout: timeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ai", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAIUse, h.Permissions))
		r.Post("/assistant", h.handleAssistant)
		r.Post("/coaching-plan", h.handleCoachingPlan)
		r.Post("/dashboard-summary", h.handleDashboardSummary)
	})
}

type assistantRequest struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

func (h *Handler) handleAssistant(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload assistantRequest
	if !shared.Decode(w, r, &payload, requestID) {
		return
	}
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	reply, err := h.Assistant.Run(ctx, user.UserID, payload.Prompt)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, reply, requestID)
}

type coachingRequest struct {
	TeamMemberID string `json:"teamMemberId" validate:"required"`
	Save         bool   `json:"save"`
}

func (h *Handler) handleCoachingPlan(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload coachingRequest
	if !shared.Decode(w, r, &payload, requestID) {
		return
	}
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	s, err := h.Workspace.State(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	member, found := team.FindMember(s.TeamMembers, payload.TeamMemberID)
	if !found {
		shared.WriteError(w, workspace.ErrMemberNotFound, requestID)
		return
	}

	snaps := performance.MemberSnapshots(s.WeeklySnapshots, member.ID)
	if len(snaps) > coachingHistory {
		snaps = snaps[:coachingHistory]
	}
	var sessions []team.CoachingSession
	for _, c := range s.CoachingSessions {
		if c.TeamMemberID == member.ID {
			sessions = append(sessions, c)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()
	plan, err := h.Advisor.CoachingPlan(ctx, ai.CoachingInput{Member: member, Snapshots: snaps, Sessions: sessions})
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}

	resp := map[string]any{"plan": plan}
	if payload.Save {
		res, err := h.Workspace.Dispatch(r.Context(), user.UserID, workspace.AddCoachingSession{Session: team.CoachingSession{
			TeamMemberID: member.ID,
			Notes:        plan.Summary,
			ActionItems:  plan.ActionItems,
			Plan:         planText(plan),
		}})
		if err != nil {
			shared.WriteError(w, err, requestID)
			return
		}
		resp["session"] = res.Value
		resp["persisted"] = res.Persisted
	}
	api.Success(w, resp, requestID)
}

func planText(p ai.CoachingPlan) string {
	var b strings.Builder
	b.WriteString(p.Summary)
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n\n")
		b.WriteString(title)
		b.WriteString(":")
		for _, it := range items {
			b.WriteString("\n- ")
			b.WriteString(it)
		}
	}
	section("Strengths", p.Strengths)
	section("Focus areas", p.FocusAreas)
	section("Action items", p.ActionItems)
	return b.String()
}

func (h *Handler) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	s, err := h.Workspace.State(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	dashboard := reports.BuildDashboard(s)

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()
	brief, err := h.Advisor.DashboardSummary(ctx, dashboard)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"dashboard": dashboard, "summary": brief}, requestID)
}
