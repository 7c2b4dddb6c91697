package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return Pagination{Limit: min(limit, maxLimit), Offset: offset}
}

// Page cuts items to the requested window and reports the full length in
// X-Total-Count.
func Page[T any](w http.ResponseWriter, items []T, p Pagination) []T {
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 {
		end = min(p.Offset+p.Limit, len(items))
	}
	return items[p.Offset:end]
}
