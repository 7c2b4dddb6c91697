package audithandler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"solvo/internal/domain/audit"
	"solvo/internal/domain/auth"
	"solvo/internal/domain/performance"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
	"solvo/internal/transport/http/shared"
)

var csvHeader = []string{"id", "action", "entity_type", "entity_id", "request_id", "persisted", "created_at"}

type Handler struct {
	Trail       *audit.Service
	Permissions middleware.PermissionStore
	Logger      *zap.Logger
}

func NewHandler(trail *audit.Service, perms middleware.PermissionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Trail: trail, Permissions: perms, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermAuditRead, h.Permissions)
	r.With(read).Get("/audit/events", h.handleList)
	r.With(read).Get("/audit/events/export", h.handleExport)
}

// events loads the caller's filtered trail, newest first. It writes the
// response itself on failure.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) ([]audit.Event, bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return nil, false
	}
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: v.Enum("entityType", q.Get("entityType"), audit.EntityTypes),
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(performance.DateLayout, raw)
		if err != nil {
			v.Add("since", "must be a valid date in YYYY-MM-DD format")
		}
		filter.Since = since
	}
	if v.Reject(w, requestID) {
		return nil, false
	}

	events, _, err := h.Trail.List(r.Context(), user.UserID, filter, 0, 0)
	if err != nil {
		h.Logger.Error("audit trail read failed", zap.String("requestId", requestID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_unavailable", "audit trail unavailable", requestID)
		return nil, false
	}
	return events, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	events, ok := h.events(w, r)
	if !ok {
		return
	}
	page := shared.Page(w, events, shared.ParsePagination(r, 100, 500))
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	events, ok := h.events(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-events.csv"`)

	out := csv.NewWriter(w)
	_ = out.Write(csvHeader)
	for _, evt := range events {
		_ = out.Write([]string{
			evt.ID,
			evt.Action,
			evt.EntityType,
			evt.EntityID,
			evt.RequestID,
			strconv.FormatBool(evt.Persisted),
			evt.CreatedAt.Format(time.RFC3339),
		})
	}
	out.Flush()
	if err := out.Error(); err != nil {
		h.Logger.Warn("audit export write failed", zap.String("requestId", middleware.GetRequestID(r.Context())), zap.Error(err))
	}
}
