package teamhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"solvo/internal/domain/auth"
	"solvo/internal/domain/team"
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

	r.With(read).Get("/state", h.handleState)

	r.With(read).Get("/clients", h.handleListClients)
	r.With(write).Post("/clients", h.handleCreateClient)
	r.With(write).Put("/clients/{clientID}", h.handleUpdateClient)
	r.With(write).Delete("/clients/{clientID}", h.handleDeleteClient)

	r.With(read).Get("/tasks", h.handleListTasks)
	r.With(write).Post("/tasks", h.handleCreateTask)
	r.With(write).Put("/tasks/{taskID}", h.handleUpdateTask)
	r.With(write).Delete("/tasks/{taskID}", h.handleDeleteTask)

	r.With(read).Get("/members", h.handleListMembers)
	r.With(write).Post("/members", h.handleCreateMember)
	r.With(write).Put("/members/{memberID}", h.handleUpdateMember)
	r.With(write).Delete("/members/{memberID}", h.handleDeleteMember)
	r.With(write).Put("/members/{memberID}/kpi-group", h.handleAssignGroup)
	r.With(write).Post("/members/{memberID}/leave", h.handleAddLeave)

	r.With(read).Get("/coaching", h.handleListCoaching)
	r.With(write).Post("/coaching", h.handleCreateCoaching)
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

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	api.Success(w, s, middleware.GetRequestID(r.Context()))
}

type clientRequest struct {
	Name              string   `json:"name" validate:"required,max=200"`
	Status            string   `json:"status"`
	AssignedMemberIDs []string `json:"assignedMemberIds"`
	Notes             string   `json:"notes" validate:"max=2000"`
}

func (c clientRequest) client(id string) team.Client {
	return team.Client{ID: id, Name: c.Name, Status: c.Status, AssignedMemberIDs: c.AssignedMemberIDs, Notes: c.Notes}
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	status := v.Enum("status", r.URL.Query().Get("status"), team.ClientStatuses)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	out := make([]team.Client, 0, len(s.Clients))
	for _, c := range s.Clients {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var payload clientRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.AddClient{Client: payload.client("")}, http.StatusCreated)
}

func (h *Handler) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var payload clientRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.UpdateClient{Client: payload.client(chi.URLParam(r, "clientID"))}, http.StatusOK)
}

func (h *Handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	shared.Apply(w, r, h.Workspace, workspace.DeleteClient{ClientID: chi.URLParam(r, "clientID")}, http.StatusOK)
}

type taskRequest struct {
	Title      string `json:"title" validate:"required,max=300"`
	ClientID   string `json:"clientId"`
	AssigneeID string `json:"assigneeId"`
	Status     string `json:"status"`
	DueDate    string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

func (t taskRequest) task(id string) team.Task {
	return team.Task{ID: id, Title: t.Title, ClientID: t.ClientID, AssigneeID: t.AssigneeID, Status: t.Status, DueDate: t.DueDate}
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	check := shared.NewValidator()
	status := check.Enum("status", q.Get("status"), team.TaskStatuses)
	if check.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	out := make([]team.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if status != "" && t.Status != status {
			continue
		}
		if v := q.Get("clientId"); v != "" && t.ClientID != v {
			continue
		}
		if v := q.Get("assigneeId"); v != "" && t.AssigneeID != v {
			continue
		}
		out = append(out, t)
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var payload taskRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.AddTask{Task: payload.task("")}, http.StatusCreated)
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var payload taskRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.UpdateTask{Task: payload.task(chi.URLParam(r, "taskID"))}, http.StatusOK)
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	shared.Apply(w, r, h.Workspace, workspace.DeleteTask{TaskID: chi.URLParam(r, "taskID")}, http.StatusOK)
}

type memberRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Role            string  `json:"role" validate:"max=200"`
	Email           string  `json:"email" validate:"omitempty,email"`
	HireDate        string  `json:"hireDate" validate:"omitempty,datetime=2006-01-02"`
	KpiGroupID      *string `json:"kpiGroupId"`
	HomeOfficeNotes string  `json:"homeOfficeNotes" validate:"max=4000"`
}

func (m memberRequest) member(id string) team.TeamMember {
	return team.TeamMember{
		ID:              id,
		Name:            m.Name,
		Role:            m.Role,
		Email:           m.Email,
		HireDate:        m.HireDate,
		KpiGroupID:      m.KpiGroupID,
		HomeOfficeNotes: m.HomeOfficeNotes,
	}
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	api.Success(w, s.TeamMembers, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var payload memberRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.AddMember{Member: payload.member("")}, http.StatusCreated)
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var payload memberRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.UpdateMember{Member: payload.member(chi.URLParam(r, "memberID"))}, http.StatusOK)
}

func (h *Handler) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	shared.Apply(w, r, h.Workspace, workspace.DeleteMember{MemberID: chi.URLParam(r, "memberID")}, http.StatusOK)
}

type assignGroupRequest struct {
	KpiGroupID string `json:"kpiGroupId"`
}

// handleAssignGroup assigns a KPI group; an empty id clears it.
func (h *Handler) handleAssignGroup(w http.ResponseWriter, r *http.Request) {
	var payload assignGroupRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.AssignKpiGroup{MemberID: chi.URLParam(r, "memberID"), GroupID: payload.KpiGroupID}, http.StatusOK)
}

type leaveRequest struct {
	Type string `json:"type" validate:"required"`
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Note string `json:"note" validate:"max=1000"`
}

func (h *Handler) handleAddLeave(w http.ResponseWriter, r *http.Request) {
	var payload leaveRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.AddLeaveEntry{
		MemberID: chi.URLParam(r, "memberID"),
		Entry:    team.LeaveLogEntry{Type: payload.Type, Date: payload.Date, Note: payload.Note},
	}, http.StatusCreated)
}

func (h *Handler) handleListCoaching(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	memberID := r.URL.Query().Get("memberId")
	out := make([]team.CoachingSession, 0, len(s.CoachingSessions))
	for _, c := range s.CoachingSessions {
		if memberID == "" || c.TeamMemberID == memberID {
			out = append(out, c)
		}
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

type coachingRequest struct {
	TeamMemberID string   `json:"teamMemberId" validate:"required"`
	Date         string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes        string   `json:"notes" validate:"required,max=8000"`
	ActionItems  []string `json:"actionItems" validate:"max=50"`
	Plan         string   `json:"plan" validate:"max=8000"`
}

func (h *Handler) handleCreateCoaching(w http.ResponseWriter, r *http.Request) {
	var payload coachingRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.AddCoachingSession{Session: team.CoachingSession{
		TeamMemberID: payload.TeamMemberID,
		Date:         payload.Date,
		Notes:        payload.Notes,
		ActionItems:  payload.ActionItems,
		Plan:         payload.Plan,
	}}, http.StatusCreated)
}
