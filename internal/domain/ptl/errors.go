package ptl

import "errors"

var ErrNarrativeNotConfigured = errors.New("AI narrative is not configured")
