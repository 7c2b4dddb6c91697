package reportshandler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"solvo/internal/domain/auth"
	"solvo/internal/domain/reports"
	"solvo/internal/domain/workspace"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
	"solvo/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	Workspace   *workspace.Service
	Permissions middleware.PermissionStore
	Logger      *zap.Logger
	now         func() time.Time
}

func NewHandler(ws *workspace.Service, perms middleware.PermissionStore, logger *zap.Logger) *Handler {
	return &Handler{Workspace: ws, Permissions: perms, Logger: logger, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Permissions))
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/members/{memberID}/performance.pdf", h.handleMemberPDF)
		r.Get("/snapshots.xlsx", h.handleSnapshotsXLSX)
	})
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

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	api.Success(w, reports.BuildDashboard(s), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMemberPDF(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "memberID")
	var buf bytes.Buffer
	if err := reports.MemberPerformancePDF(&buf, s, memberID, h.now()); err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	h.attach(w, r, "application/pdf", fmt.Sprintf("performance-%s.pdf", memberID), buf.Bytes())
}

func (h *Handler) handleSnapshotsXLSX(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := reports.SnapshotsXLSX(&buf, s, r.URL.Query().Get("memberId")); err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	h.attach(w, r, xlsxContentType, "snapshots.xlsx", buf.Bytes())
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.Logger.Warn("report write failed",
			zap.String("file", filename),
			zap.String("requestId", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
	}
}
