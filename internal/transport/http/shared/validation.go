package shared

import (
	"net/http"
	"slices"
	"sort"
	"strings"

	"solvo/internal/domain/performance"
	"solvo/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects issues for query parameters and for struct-tag
// failures so both reach the client in one validation_error body.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: strings.TrimSpace(field), Reason: reason})
}

// Enum checks an optional value against an exact, case-sensitive set.
func (v *Validator) Enum(field, value string, allowed []string) string {
	if value == "" || slices.Contains(allowed, value) {
		return value
	}
	v.Add(field, "must be one of: "+strings.Join(allowed, ", "))
	return ""
}

// Week normalizes an optional date to the Monday of its week.
func (v *Validator) Week(field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	weekOf, err := performance.NormalizeWeekOf(raw)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return ""
	}
	return weekOf
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := slices.Clone(v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// Reject writes the collected issues, if any, and reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
