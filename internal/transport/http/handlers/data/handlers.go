package datahandler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"solvo/internal/domain/auth"
	"solvo/internal/domain/workspace"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
	"solvo/internal/transport/http/shared"
)

type Handler struct {
	Workspace   *workspace.Service
	Permissions middleware.PermissionStore
	Logger      *zap.Logger
}

func NewHandler(ws *workspace.Service, perms middleware.PermissionStore, logger *zap.Logger) *Handler {
	return &Handler{Workspace: ws, Permissions: perms, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	export := middleware.RequirePermission(auth.PermDataExport, h.Permissions)
	importPerm := middleware.RequirePermission(auth.PermDataImport, h.Permissions)

	r.Route("/data", func(r chi.Router) {
		r.With(export).Get("/export", h.handleExport)
		r.With(importPerm).Post("/import", h.handleImport)
		r.With(importPerm).Get("/backups", h.handleListBackups)
		r.With(importPerm).Get("/backups/{backupID}", h.handleGetBackup)
	})
}

// handleExport returns the full workspace. With ?download=1 the bare export
// document is sent as a file instead of the usual envelope.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	export, err := h.Workspace.Export(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	if r.URL.Query().Get("download") == "" {
		api.Success(w, export, requestID)
		return
	}
	filename := fmt.Sprintf("solvo-export-%s.json", export.ExportedAt.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := json.NewEncoder(w).Encode(export); err != nil {
		h.Logger.Warn("export write failed", zap.String("requestId", requestID), zap.Error(err))
	}
}

type importRequest struct {
	Confirm bool              `json:"confirm"`
	Data    *workspace.Export `json:"data" validate:"required"`
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload importRequest
	if !shared.Decode(w, r, &payload, requestID) {
		return
	}
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	res, err := h.Workspace.Import(r.Context(), user.UserID, *payload.Data, payload.Confirm)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	h.Logger.Info("workspace import completed",
		zap.String("user_id", user.UserID),
		zap.String("backup_id", res.BackupID),
		zap.String("requestId", requestID),
	)
	api.Success(w, res, requestID)
}

func (h *Handler) handleListBackups(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	backups, err := h.Workspace.Backups(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, backups, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetBackup(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	export, err := h.Workspace.Backup(r.Context(), user.UserID, chi.URLParam(r, "backupID"))
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, export, middleware.GetRequestID(r.Context()))
}
