package workspace

import (
	"errors"

	"solvo/internal/domain/performance"
)

var (
	ErrClientNotFound       = errors.New("client not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrMemberNotFound       = performance.ErrMemberNotFound
	ErrGroupNotFound        = errors.New("kpi group not found")
	ErrUnknownKPI           = performance.ErrUnknownKPI
	ErrDuplicateID          = errors.New("an item with this id already exists")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidLeaveType     = errors.New("invalid leave type")
	ErrInvalidDate          = errors.New("date must be YYYY-MM-DD")
	ErrInvalidActual        = errors.New("actual must be a finite number")
	ErrInvalidKpiType       = errors.New("kpi type must be number or percentage")
	ErrConfirmationRequired = errors.New("import replaces all workspace data and must be confirmed")
	ErrInvalidImport        = errors.New("import payload is not a workspace export")
	ErrBackupNotFound       = errors.New("backup not found")
)
