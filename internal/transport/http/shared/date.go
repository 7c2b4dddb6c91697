package shared

import (
	"strings"
	"time"

	"solvo/internal/domain/performance"
)

// ParseDay reads a calendar date in loc. A blank value yields now in loc.
func ParseDay(value string, loc *time.Location, now func() time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return now().In(loc), nil
	}
	day, err := time.ParseInLocation(performance.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, performance.ErrInvalidWeek
	}
	return day, nil
}
