package workspace

import (
	"math"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/team"
)

func groupID(g kpi.Group) string { return g.ID }

// UpsertKpiGroup creates or replaces a group. Ledger rows for definitions
// dropped from an existing group are removed.
type UpsertKpiGroup struct{ Group kpi.Group }

func (UpsertKpiGroup) Name() string { return "upsert_kpi_group" }
func (UpsertKpiGroup) Touches() []Collection {
	return []Collection{CollectionKpiGroups, CollectionKpiProgress, CollectionTeamMembers}
}

func (a UpsertKpiGroup) apply(s State, env Env) (State, any, error) {
	g := a.Group
	if g.ID == "" {
		g.ID = env.NewID()
	}
	defs := make([]kpi.Definition, len(g.KPIs))
	for i, d := range g.KPIs {
		if d.ID == "" {
			d.ID = env.NewID()
		}
		if d.Type == "" {
			d.Type = kpi.TypeNumber
		}
		if d.Type != kpi.TypeNumber && d.Type != kpi.TypePercentage {
			return s, nil, ErrInvalidKpiType
		}
		defs[i] = d
	}
	g.KPIs = defs

	i := indexByID(s.KpiGroups, g.ID, groupID)
	if i < 0 {
		s.KpiGroups = appendCopy(s.KpiGroups, g)
		return s, g, nil
	}

	dropped := make(map[string]struct{})
	for _, d := range s.KpiGroups[i].KPIs {
		if _, ok := g.Definition(d.ID); !ok {
			dropped[d.ID] = struct{}{}
		}
	}
	s.KpiGroups = replaceAt(s.KpiGroups, i, g)
	if len(dropped) > 0 {
		s.KpiProgress = kpi.RemoveDefinitions(s.KpiProgress, dropped)
	}
	return s, g, nil
}

// DeleteKpiGroup clears the group from members and drops its ledger rows.
type DeleteKpiGroup struct{ GroupID string }

func (DeleteKpiGroup) Name() string { return "delete_kpi_group" }
func (DeleteKpiGroup) Touches() []Collection {
	return []Collection{CollectionKpiGroups, CollectionKpiProgress, CollectionTeamMembers}
}

func (a DeleteKpiGroup) apply(s State, _ Env) (State, any, error) {
	i := indexByID(s.KpiGroups, a.GroupID, groupID)
	if i < 0 {
		return s, nil, ErrGroupNotFound
	}
	defs := make(map[string]struct{}, len(s.KpiGroups[i].KPIs))
	for _, d := range s.KpiGroups[i].KPIs {
		defs[d.ID] = struct{}{}
	}
	s.KpiGroups = removeWhere(s.KpiGroups, func(g kpi.Group) bool { return g.ID == a.GroupID })
	s.KpiProgress = kpi.RemoveDefinitions(s.KpiProgress, defs)

	members := make([]team.TeamMember, len(s.TeamMembers))
	for j, m := range s.TeamMembers {
		if m.GroupID() == a.GroupID {
			m.KpiGroupID = nil
		}
		members[j] = m
	}
	s.TeamMembers = members
	return s, nil, nil
}

// AssignKpiGroup sets or, with an empty GroupID, clears a member's group.
type AssignKpiGroup struct {
	MemberID string
	GroupID  string
}

func (AssignKpiGroup) Name() string          { return "assign_kpi_group" }
func (AssignKpiGroup) Touches() []Collection { return []Collection{CollectionTeamMembers} }

func (a AssignKpiGroup) apply(s State, _ Env) (State, any, error) {
	i := indexByID(s.TeamMembers, a.MemberID, memberID)
	if i < 0 {
		return s, nil, ErrMemberNotFound
	}
	group, err := normalizeGroupRef(s, &a.GroupID)
	if err != nil {
		return s, nil, err
	}
	m := s.TeamMembers[i]
	m.KpiGroupID = group
	s.TeamMembers = replaceAt(s.TeamMembers, i, m)
	return s, m, nil
}

// LogKpiActual upserts the ledger row for (member, definition). The
// definition must belong to the member's group.
type LogKpiActual struct {
	MemberID        string
	KpiDefinitionID string
	Actual          float64
}

func (LogKpiActual) Name() string { return "log_kpi_actual" }
func (LogKpiActual) Touches() []Collection {
	return []Collection{CollectionKpiProgress, CollectionTeamMembers}
}

func (a LogKpiActual) apply(s State, env Env) (State, any, error) {
	if math.IsNaN(a.Actual) || math.IsInf(a.Actual, 0) {
		return s, nil, ErrInvalidActual
	}
	member, ok := team.FindMember(s.TeamMembers, a.MemberID)
	if !ok {
		return s, nil, ErrMemberNotFound
	}
	group, ok := kpi.FindGroup(s.KpiGroups, member.GroupID())
	if !ok {
		return s, nil, ErrUnknownKPI
	}
	if _, ok := group.Definition(a.KpiDefinitionID); !ok {
		return s, nil, ErrUnknownKPI
	}
	s.KpiProgress = kpi.UpsertActual(s.KpiProgress, a.MemberID, a.KpiDefinitionID, a.Actual, env.NewID)
	row, _ := kpi.NewLedger(s.KpiProgress).Lookup(a.MemberID, a.KpiDefinitionID)
	return s, row, nil
}
