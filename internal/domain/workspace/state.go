package workspace

import (
	"encoding/json"
	"fmt"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/team"
)

// Collection names one independently persisted array of the workspace.
type Collection string

const (
	CollectionClients          Collection = "clients"
	CollectionTasks            Collection = "tasks"
	CollectionTeamMembers      Collection = "teamMembers"
	CollectionKpiGroups        Collection = "kpiGroups"
	CollectionKpiProgress      Collection = "kpiProgress"
	CollectionWeeklySnapshots  Collection = "weeklySnapshots"
	CollectionCoachingSessions Collection = "coachingSessions"
)

var Collections = []Collection{
	CollectionClients,
	CollectionTasks,
	CollectionTeamMembers,
	CollectionKpiGroups,
	CollectionKpiProgress,
	CollectionWeeklySnapshots,
	CollectionCoachingSessions,
}

// State is one user's whole workspace. Reducers never modify the slices of
// a State they receive; they build new ones.
type State struct {
	Clients          []team.Client                `json:"clients"`
	Tasks            []team.Task                  `json:"tasks"`
	TeamMembers      []team.TeamMember            `json:"teamMembers"`
	KpiGroups        []kpi.Group                  `json:"kpiGroups"`
	KpiProgress      []kpi.Progress               `json:"kpiProgress"`
	WeeklySnapshots  []performance.WeeklySnapshot `json:"weeklySnapshots"`
	CoachingSessions []team.CoachingSession       `json:"coachingSessions"`
}

func (s State) week() performance.Week {
	return performance.Week{
		Members:   s.TeamMembers,
		Groups:    s.KpiGroups,
		Progress:  s.KpiProgress,
		Snapshots: s.WeeklySnapshots,
	}
}

func (s State) withWeek(w performance.Week) State {
	s.TeamMembers = w.Members
	s.KpiGroups = w.Groups
	s.KpiProgress = w.Progress
	s.WeeklySnapshots = w.Snapshots
	return s
}

// Normalized replaces nil collections with empty ones so they encode as [].
func (s State) Normalized() State {
	s.Clients = orEmpty(s.Clients)
	s.Tasks = orEmpty(s.Tasks)
	s.TeamMembers = orEmpty(s.TeamMembers)
	s.KpiGroups = orEmpty(s.KpiGroups)
	s.KpiProgress = orEmpty(s.KpiProgress)
	s.WeeklySnapshots = orEmpty(s.WeeklySnapshots)
	s.CoachingSessions = orEmpty(s.CoachingSessions)
	return s
}

func (s State) encode(c Collection) ([]byte, error) {
	s = s.Normalized()
	switch c {
	case CollectionClients:
		return json.Marshal(s.Clients)
	case CollectionTasks:
		return json.Marshal(s.Tasks)
	case CollectionTeamMembers:
		return json.Marshal(s.TeamMembers)
	case CollectionKpiGroups:
		return json.Marshal(s.KpiGroups)
	case CollectionKpiProgress:
		return json.Marshal(s.KpiProgress)
	case CollectionWeeklySnapshots:
		return json.Marshal(s.WeeklySnapshots)
	case CollectionCoachingSessions:
		return json.Marshal(s.CoachingSessions)
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

func (s *State) decode(c Collection, data []byte) error {
	switch c {
	case CollectionClients:
		return json.Unmarshal(data, &s.Clients)
	case CollectionTasks:
		return json.Unmarshal(data, &s.Tasks)
	case CollectionTeamMembers:
		return json.Unmarshal(data, &s.TeamMembers)
	case CollectionKpiGroups:
		return json.Unmarshal(data, &s.KpiGroups)
	case CollectionKpiProgress:
		return json.Unmarshal(data, &s.KpiProgress)
	case CollectionWeeklySnapshots:
		return json.Unmarshal(data, &s.WeeklySnapshots)
	case CollectionCoachingSessions:
		return json.Unmarshal(data, &s.CoachingSessions)
	}
	return fmt.Errorf("unknown collection %q", c)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
