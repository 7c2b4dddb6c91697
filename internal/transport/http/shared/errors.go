package shared

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"solvo/internal/domain/assistant"
	"solvo/internal/domain/auth"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/ai"
	"solvo/internal/transport/http/api"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters where one error wraps another.
var errorMappings = []errorMapping{
	{workspace.ErrClientNotFound, http.StatusNotFound, "not_found", "client not found"},
	{workspace.ErrTaskNotFound, http.StatusNotFound, "not_found", "task not found"},
	{workspace.ErrMemberNotFound, http.StatusNotFound, "not_found", "team member not found"},
	{workspace.ErrGroupNotFound, http.StatusNotFound, "not_found", "KPI group not found"},
	{workspace.ErrBackupNotFound, http.StatusNotFound, "not_found", "backup not found"},
	{workspace.ErrDuplicateID, http.StatusConflict, "duplicate_id", ""},
	{workspace.ErrConfirmationRequired, http.StatusBadRequest, "confirmation_required", ""},
	{workspace.ErrInvalidImport, http.StatusBadRequest, "invalid_import", ""},
	{workspace.ErrUnknownKPI, http.StatusUnprocessableEntity, "unknown_kpi", ""},
	{workspace.ErrInvalidStatus, http.StatusBadRequest, "invalid_status", ""},
	{workspace.ErrInvalidLeaveType, http.StatusBadRequest, "invalid_leave_type", ""},
	{workspace.ErrInvalidDate, http.StatusBadRequest, "invalid_date", ""},
	{workspace.ErrInvalidActual, http.StatusBadRequest, "invalid_actual", ""},
	{workspace.ErrInvalidKpiType, http.StatusBadRequest, "invalid_kpi_type", ""},
	{performance.ErrInvalidWeek, http.StatusBadRequest, "invalid_week", ""},
	{performance.ErrWeekAlreadyClosed, http.StatusConflict, "week_already_closed", ""},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid credentials"},
	{assistant.ErrEmptyRequest, http.StatusBadRequest, "invalid_payload", ""},
	{assistant.ErrUnknownCommand, http.StatusUnprocessableEntity, "assistant_rejected", ""},
	{assistant.ErrInvalidArguments, http.StatusUnprocessableEntity, "assistant_rejected", ""},
	{assistant.ErrAmbiguousName, http.StatusUnprocessableEntity, "assistant_rejected", ""},
	{ai.ErrNotConfigured, http.StatusServiceUnavailable, "ai_not_configured", ""},
	{ai.ErrEmptyResponse, http.StatusBadGateway, "ai_failed", ""},
	{ai.ErrMalformed, http.StatusBadGateway, "ai_failed", ""},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "ai_timeout", "AI request timed out"},
}

// WriteError maps a domain error onto the response envelope. Unmapped
// errors are logged and reported as a generic failure.
func WriteError(w http.ResponseWriter, err error, requestID string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			api.Fail(w, m.status, m.code, msg, requestID)
			return
		}
	}
	zap.L().Error("request failed", zap.String("requestId", requestID), zap.Error(err))
	api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
}
