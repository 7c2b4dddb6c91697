package performance

import "errors"

var (
	ErrMemberNotFound    = errors.New("team member not found")
	ErrInvalidWeek       = errors.New("weekOf must be a YYYY-MM-DD date")
	ErrUnknownKPI        = errors.New("kpi is not part of the member's group")
	// ErrWeekAlreadyClosed guards archived weeks; only backfill may rewrite them.
	ErrWeekAlreadyClosed = errors.New("week is already closed")
)
