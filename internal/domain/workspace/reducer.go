package workspace

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"solvo/internal/domain/performance"
)

// Env supplies the clock and id source to reducers so they stay pure.
type Env struct {
	Now   func() time.Time
	NewID func() string
}

func (e Env) withDefaults() Env {
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.NewID == nil {
		e.NewID = uuid.NewString
	}
	return e
}

// Action is one workspace mutation. The set is closed: only types in this
// package implement it.
type Action interface {
	Name() string
	// Touches lists the collections the action may rewrite.
	Touches() []Collection
	apply(s State, env Env) (State, any, error)
}

type Outcome struct {
	State   State
	Touched []Collection
	// Value is the action's product, such as the created item.
	Value any
}

// Apply runs the action against s. Scores are recomputed whenever the
// catalog, ledger or members may have changed. On error s is returned
// unchanged.
func Apply(s State, a Action, env Env) (Outcome, error) {
	env = env.withDefaults()
	next, value, err := a.apply(s, env)
	if err != nil {
		return Outcome{State: s}, err
	}

	touched := slices.Clone(a.Touches())
	if affectsScores(touched) {
		next.TeamMembers = performance.RecomputeScores(next.TeamMembers, next.KpiGroups, next.KpiProgress)
		if !slices.Contains(touched, CollectionTeamMembers) {
			touched = append(touched, CollectionTeamMembers)
		}
	}
	return Outcome{State: next, Touched: touched, Value: value}, nil
}

func affectsScores(touched []Collection) bool {
	for _, c := range touched {
		switch c {
		case CollectionKpiGroups, CollectionKpiProgress, CollectionTeamMembers:
			return true
		}
	}
	return false
}

func indexByID[T any](items []T, id string, idOf func(T) string) int {
	for i, item := range items {
		if idOf(item) == id {
			return i
		}
	}
	return -1
}

func replaceAt[T any](items []T, i int, item T) []T {
	out := slices.Clone(items)
	out[i] = item
	return out
}

func appendCopy[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, item)
}

func removeWhere[T any](items []T, drop func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !drop(item) {
			out = append(out, item)
		}
	}
	return out
}

func validDate(value string) bool {
	_, err := time.Parse(performance.DateLayout, value)
	return err == nil
}
