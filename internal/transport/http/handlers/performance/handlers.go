package performancehandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"solvo/internal/domain/auth"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/jobs"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
	"solvo/internal/transport/http/shared"
)

const endWeekEndpoint = "performance.end_week"

type Handler struct {
	Workspace   *workspace.Service
	Jobs        *jobs.Service
	Idempotency *middleware.IdempotencyStore
	Permissions middleware.PermissionStore
	Location    *time.Location
	Logger      *zap.Logger
}

func NewHandler(ws *workspace.Service, jobSvc *jobs.Service, idem *middleware.IdempotencyStore, perms middleware.PermissionStore, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{Workspace: ws, Jobs: jobSvc, Idempotency: idem, Permissions: perms, Location: loc, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermWorkspaceRead, h.Permissions)
	write := middleware.RequirePermission(auth.PermWorkspaceWrite, h.Permissions)
	closeWeek := middleware.RequirePermission(auth.PermPerformanceClose, h.Permissions)

	r.Route("/performance", func(r chi.Router) {
		r.With(closeWeek).Post("/end-week", h.handleEndWeek)
		r.With(read).Get("/end-week/runs", h.handleListRuns)
		r.With(read).Get("/end-week/pending", h.handlePending)
		r.With(read).Get("/snapshots", h.handleListSnapshots)
		r.With(write).Post("/snapshots", h.handleSaveHistorical)
		r.With(read).Get("/leaderboard", h.handleLeaderboard)
		r.With(read).Get("/summary", h.handleSummary)
	})
}

type endWeekRequest struct {
	// At selects the week to close; empty means the current week.
	At string `json:"at" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) handleEndWeek(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	var payload endWeekRequest
	if len(bytes.TrimSpace(raw)) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if !shared.Decode(w, r, &payload, requestID) {
			return
		}
	}

	at, err := shared.ParseDay(payload.At, h.Location, time.Now)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(raw)
	if idempotencyKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, endWeekEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), requestID)
			return
		}
		if err != nil {
			h.Logger.Warn("idempotency check failed", zap.String("requestId", requestID), zap.Error(err))
		}
		if found {
			api.Success(w, json.RawMessage(stored), requestID)
			return
		}
	}

	details, err := h.Jobs.RunNow(r.Context(), jobs.JobEndWeek, user.UserID, jobs.EndWeekFunc(h.Workspace, user.UserID, at))
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	h.Logger.Info("week closed",
		zap.String("user_id", user.UserID),
		zap.String("requestId", requestID),
		zap.Any("details", details),
	)

	if idempotencyKey != "" {
		encoded, err := json.Marshal(details)
		if err != nil {
			h.Logger.Warn("end-week response marshal failed", zap.Error(err))
		} else if err := h.Idempotency.Save(r.Context(), user.UserID, endWeekEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			h.Logger.Warn("idempotency save failed", zap.String("requestId", requestID), zap.Error(err))
		}
	}
	api.Success(w, details, requestID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	runs, err := h.Jobs.Runs(r.Context(), user.UserID, 0)
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, shared.Page(w, runs, shared.ParsePagination(r, 20, 100)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	weekStart, due, err := h.Workspace.PendingWeek(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	resp := map[string]any{"due": due}
	if due {
		resp["weekOf"] = weekStart.Format(performance.DateLayout)
	}
	api.Success(w, resp, middleware.GetRequestID(r.Context()))
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

func (h *Handler) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	weekOf := v.Week("weekOf", r.URL.Query().Get("weekOf"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	snaps := performance.MemberSnapshots(s.WeeklySnapshots, r.URL.Query().Get("memberId"))
	if weekOf != "" {
		filtered := snaps[:0:0]
		for _, snap := range snaps {
			if snap.WeekOf == weekOf {
				filtered = append(filtered, snap)
			}
		}
		snaps = filtered
	}
	api.Success(w, shared.Page(w, snaps, shared.ParsePagination(r, 100, 1000)), middleware.GetRequestID(r.Context()))
}

type historicalRequest struct {
	TeamMemberID string                        `json:"teamMemberId" validate:"required"`
	WeekOf       string                        `json:"weekOf" validate:"required"`
	Entries      []performance.HistoricalEntry `json:"entries" validate:"max=100,dive"`
}

func (h *Handler) handleSaveHistorical(w http.ResponseWriter, r *http.Request) {
	var payload historicalRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	shared.Apply(w, r, h.Workspace, workspace.SaveHistoricalSnapshot{
		MemberID: payload.TeamMemberID,
		WeekOf:   payload.WeekOf,
		Entries:  payload.Entries,
	}, http.StatusCreated)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	api.Success(w, performance.Leaderboard(s.TeamMembers), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	snaps := performance.MemberSnapshots(s.WeeklySnapshots, r.URL.Query().Get("memberId"))
	api.Success(w, performance.Summarize(snaps), middleware.GetRequestID(r.Context()))
}
