package kpihandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"solvo/internal/domain/auth"
	"solvo/internal/domain/kpi"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/workspace"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
	"solvo/internal/transport/http/shared"
)

type Handler struct {
	Workspace   *workspace.Service
	Permissions middleware.PermissionStore
}

func NewHandler(ws *workspace.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Workspace: ws, Permissions: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermWorkspaceRead, h.Permissions)
	write := middleware.RequirePermission(auth.PermWorkspaceWrite, h.Permissions)

	r.Route("/kpi", func(r chi.Router) {
		r.With(read).Get("/groups", h.handleListGroups)
		r.With(write).Post("/groups", h.handleCreateGroup)
		r.With(write).Put("/groups/{groupID}", h.handleUpdateGroup)
		r.With(write).Delete("/groups/{groupID}", h.handleDeleteGroup)
		r.With(read).Get("/progress", h.handleListProgress)
		r.With(write).Put("/progress", h.handleLogActual)
		r.With(read).Get("/scores", h.handleScores)
	})
}

type groupRequest struct {
	Name string           `json:"name" validate:"required,max=200"`
	Role string           `json:"role" validate:"max=200"`
	KPIs []kpi.Definition `json:"kpis" validate:"max=50,dive"`
}

func (g groupRequest) group(id string) kpi.Group {
	return kpi.Group{ID: id, Name: g.Name, Role: g.Role, KPIs: g.KPIs}
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) (workspace.State, bool) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return workspace.State{}, false
	}
	s, err := h.Workspace.State(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return workspace.State{}, false
	}
	return s, true
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	type groupView struct {
		kpi.Group
		TotalPoints float64 `json:"totalPoints"`
	}
	out := make([]groupView, 0, len(s.KpiGroups))
	for _, g := range s.KpiGroups {
		out = append(out, groupView{Group: g, TotalPoints: g.TotalPoints()})
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var payload groupRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.UpsertKpiGroup{Group: payload.group("")}, http.StatusCreated)
}

// handleUpdateGroup replaces the group. Definitions missing from the body
// are dropped together with their ledger rows.
func (h *Handler) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload groupRequest
	if !shared.Decode(w, r, &payload, requestID) {
		return
	}
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")
	if _, found := kpi.FindGroup(s.KpiGroups, groupID); !found {
		shared.WriteError(w, workspace.ErrGroupNotFound, requestID)
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.UpsertKpiGroup{Group: payload.group(groupID)}, http.StatusOK)
}

func (h *Handler) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	shared.Apply(w, r, h.Workspace, workspace.DeleteKpiGroup{GroupID: chi.URLParam(r, "groupID")}, http.StatusOK)
}

func (h *Handler) handleListProgress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	memberID := r.URL.Query().Get("memberId")
	out := make([]kpi.Progress, 0, len(s.KpiProgress))
	for _, p := range s.KpiProgress {
		if memberID == "" || p.TeamMemberID == memberID {
			out = append(out, p)
		}
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

type actualRequest struct {
	TeamMemberID    string   `json:"teamMemberId" validate:"required"`
	KpiDefinitionID string   `json:"kpiDefinitionId" validate:"required"`
	Actual          *float64 `json:"actual" validate:"required"`
}

func (h *Handler) handleLogActual(w http.ResponseWriter, r *http.Request) {
	var payload actualRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.LogKpiActual{
		MemberID:        payload.TeamMemberID,
		KpiDefinitionID: payload.KpiDefinitionID,
		Actual:          *payload.Actual,
	}, http.StatusOK)
}

type scoreView struct {
	TeamMemberID  string `json:"teamMemberId"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	PreviousScore int    `json:"previousScore"`
	Band          string `json:"band"`
}

func (h *Handler) handleScores(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	out := make([]scoreView, 0, len(s.TeamMembers))
	for _, m := range s.TeamMembers {
		score := performance.CalculateScore(m.ID, s.KpiGroups, s.KpiProgress, s.TeamMembers)
		out = append(out, scoreView{
			TeamMemberID:  m.ID,
			Name:          m.Name,
			Score:         score,
			PreviousScore: m.PreviousPerformanceScore,
			Band:          performance.Band(score),
		})
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}
