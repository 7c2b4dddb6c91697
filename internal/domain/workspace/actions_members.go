package workspace

import (
	"fmt"
	"slices"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/team"
)

func normalizeGroupRef(s State, ref *string) (*string, error) {
	if ref == nil || *ref == "" {
		return nil, nil
	}
	if _, ok := kpi.FindGroup(s.KpiGroups, *ref); !ok {
		return nil, ErrGroupNotFound
	}
	id := *ref
	return &id, nil
}

type AddMember struct{ Member team.TeamMember }

func (AddMember) Name() string          { return "add_member" }
func (AddMember) Touches() []Collection { return []Collection{CollectionTeamMembers} }

func (a AddMember) apply(s State, env Env) (State, any, error) {
	m := a.Member
	if m.ID == "" {
		m.ID = env.NewID()
	} else if indexByID(s.TeamMembers, m.ID, memberID) >= 0 {
		return s, nil, ErrDuplicateID
	}
	group, err := normalizeGroupRef(s, m.KpiGroupID)
	if err != nil {
		return s, nil, err
	}
	m.KpiGroupID = group
	m.RankHistory = orEmpty(slices.Clone(m.RankHistory))
	m.LeaveLog = slices.Clone(m.LeaveLog)
	s.TeamMembers = appendCopy(s.TeamMembers, m)
	return s, m, nil
}

// UpdateMember edits profile fields. Scores, ranks, leave log and the saved
// risk report are owned by other actions and kept.
type UpdateMember struct{ Member team.TeamMember }

func (UpdateMember) Name() string          { return "update_member" }
func (UpdateMember) Touches() []Collection { return []Collection{CollectionTeamMembers} }

func (a UpdateMember) apply(s State, _ Env) (State, any, error) {
	i := indexByID(s.TeamMembers, a.Member.ID, memberID)
	if i < 0 {
		return s, nil, ErrMemberNotFound
	}
	group, err := normalizeGroupRef(s, a.Member.KpiGroupID)
	if err != nil {
		return s, nil, err
	}
	m := s.TeamMembers[i]
	m.Name = a.Member.Name
	m.Role = a.Member.Role
	m.Email = a.Member.Email
	m.HireDate = a.Member.HireDate
	m.HomeOfficeNotes = a.Member.HomeOfficeNotes
	m.KpiGroupID = group
	s.TeamMembers = replaceAt(s.TeamMembers, i, m)
	return s, m, nil
}

// DeleteMember drops the member's ledger rows, unassigns their tasks and
// clients. Archived snapshots and coaching sessions are history and stay.
type DeleteMember struct{ MemberID string }

func (DeleteMember) Name() string { return "delete_member" }
func (DeleteMember) Touches() []Collection {
	return []Collection{CollectionTeamMembers, CollectionKpiProgress, CollectionTasks, CollectionClients}
}

func (a DeleteMember) apply(s State, _ Env) (State, any, error) {
	if indexByID(s.TeamMembers, a.MemberID, memberID) < 0 {
		return s, nil, ErrMemberNotFound
	}
	s.TeamMembers = removeWhere(s.TeamMembers, func(m team.TeamMember) bool { return m.ID == a.MemberID })
	s.KpiProgress = kpi.RemoveMember(s.KpiProgress, a.MemberID)

	tasks := make([]team.Task, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.AssigneeID == a.MemberID {
			t.AssigneeID = ""
		}
		tasks[i] = t
	}
	s.Tasks = tasks

	clients := make([]team.Client, len(s.Clients))
	for i, c := range s.Clients {
		c.AssignedMemberIDs = removeWhere(c.AssignedMemberIDs, func(id string) bool { return id == a.MemberID })
		clients[i] = c
	}
	s.Clients = clients
	return s, nil, nil
}

type AddLeaveEntry struct {
	MemberID string
	Entry    team.LeaveLogEntry
}

func (AddLeaveEntry) Name() string          { return "add_leave_entry" }
func (AddLeaveEntry) Touches() []Collection { return []Collection{CollectionTeamMembers} }

func (a AddLeaveEntry) apply(s State, env Env) (State, any, error) {
	i := indexByID(s.TeamMembers, a.MemberID, memberID)
	if i < 0 {
		return s, nil, ErrMemberNotFound
	}
	e := a.Entry
	if !slices.Contains(team.LeaveTypes, e.Type) {
		return s, nil, fmt.Errorf("%w: %q", ErrInvalidLeaveType, e.Type)
	}
	if !validDate(e.Date) {
		return s, nil, ErrInvalidDate
	}
	if e.ID == "" {
		e.ID = env.NewID()
	}
	m := s.TeamMembers[i]
	m.LeaveLog = appendCopy(m.LeaveLog, e)
	s.TeamMembers = replaceAt(s.TeamMembers, i, m)
	return s, e, nil
}

// SavePtlReport stores a computed risk report on the member.
type SavePtlReport struct {
	MemberID string
	Report   team.PtlReport
}

func (SavePtlReport) Name() string          { return "save_ptl_report" }
func (SavePtlReport) Touches() []Collection { return []Collection{CollectionTeamMembers} }

func (a SavePtlReport) apply(s State, _ Env) (State, any, error) {
	i := indexByID(s.TeamMembers, a.MemberID, memberID)
	if i < 0 {
		return s, nil, ErrMemberNotFound
	}
	report := a.Report
	report.Factors = slices.Clone(report.Factors)
	report.Mitigation = slices.Clone(report.Mitigation)
	m := s.TeamMembers[i]
	m.PtlReport = &report
	s.TeamMembers = replaceAt(s.TeamMembers, i, m)
	return s, report, nil
}
