package performance

import (
	"fmt"
	"time"
)

// StartOfWeek returns the Monday of the week containing t, in t's location.
// Sunday counts as the seventh day of the week, not the first.
func StartOfWeek(t time.Time) time.Time {
	day := int(t.Weekday())
	if day == 0 {
		day = 7
	}
	y, m, d := t.Date()
	return time.Date(y, m, d-(day-1), 0, 0, 0, 0, t.Location())
}

func WeekOf(t time.Time) string {
	return StartOfWeek(t).Format(DateLayout)
}

// NormalizeWeekOf parses a calendar date and snaps it to its Monday.
func NormalizeWeekOf(value string) (string, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeek, value)
	}
	return WeekOf(parsed), nil
}
