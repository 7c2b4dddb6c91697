package ptlhandler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"solvo/internal/domain/auth"
	"solvo/internal/domain/ptl"
	"solvo/internal/domain/team"
	"solvo/internal/domain/workspace"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
	"solvo/internal/transport/http/shared"
)

type Handler struct {
	Workspace   *workspace.Service
	Assessor    *ptl.Assessor
	Permissions middleware.PermissionStore
}

func NewHandler(ws *workspace.Service, assessor *ptl.Assessor, perms middleware.PermissionStore) *Handler {
	return &Handler{Workspace: ws, Assessor: assessor, Permissions: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermWorkspaceRead, h.Permissions)).Get("/members/{memberID}/ptl", h.handleAssess)
	r.With(middleware.RequirePermission(auth.PermWorkspaceWrite, h.Permissions)).Post("/members/{memberID}/ptl", h.handleSave)
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request) (ptl.Assessment, bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return ptl.Assessment{}, false
	}
	s, err := h.Workspace.State(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return ptl.Assessment{}, false
	}
	member, found := team.FindMember(s.TeamMembers, chi.URLParam(r, "memberID"))
	if !found {
		shared.WriteError(w, workspace.ErrMemberNotFound, requestID)
		return ptl.Assessment{}, false
	}
	return h.Assessor.Assess(r.Context(), member, s.Tasks, s.Clients), true
}

// handleAssess computes a fresh report. It is not stored.
func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	assessment, ok := h.assess(w, r)
	if !ok {
		return
	}
	api.Success(w, assessment, middleware.GetRequestID(r.Context()))
}

type saveRequest struct {
	Report *reportBody `json:"report" validate:"required"`
}

type reportBody struct {
	RiskScore  int              `json:"riskScore" validate:"gte=0,lte=100"`
	RiskLevel  team.RiskLevel   `json:"riskLevel" validate:"required,oneof=Low Medium High Critical"`
	Factors    []team.PtlFactor `json:"factors" validate:"max=20"`
	Summary    string           `json:"summary" validate:"max=8000"`
	Mitigation []string         `json:"mitigation" validate:"max=20"`
}

// handleSave stores the report in the body, or a freshly computed one when
// the body is empty.
func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	var report team.PtlReport
	if len(bytes.TrimSpace(raw)) == 0 {
		assessment, ok := h.assess(w, r)
		if !ok {
			return
		}
		report = assessment.Report
	} else {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		var payload saveRequest
		if !shared.Decode(w, r, &payload, requestID) {
			return
		}
		check := shared.NewValidator()
		if want := ptl.LevelFor(payload.Report.RiskScore); payload.Report.RiskLevel != want {
			check.Add("report.riskLevel", "must be "+string(want)+" for riskScore")
		}
		if check.Reject(w, requestID) {
			return
		}
		report = team.PtlReport{
			RiskScore:  payload.Report.RiskScore,
			RiskLevel:  payload.Report.RiskLevel,
			Factors:    payload.Report.Factors,
			Summary:    payload.Report.Summary,
			Mitigation: payload.Report.Mitigation,
		}
	}

	shared.Apply(w, r, h.Workspace, workspace.SavePtlReport{MemberID: chi.URLParam(r, "memberID"), Report: report}, http.StatusOK)
}
