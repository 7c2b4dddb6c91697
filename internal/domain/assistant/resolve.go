package assistant

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/team"
	"solvo/internal/domain/workspace"
)

var ErrAmbiguousName = errors.New("name matches more than one record")

// Resolve turns a command into a workspace action, looking up the records
// it names in s.
func Resolve(s workspace.State, cmd Command, now time.Time) (workspace.Action, error) {
	switch cmd.Kind {
	case KindAddTask:
		task := team.Task{Title: cmd.Title, Status: team.TaskStatusToDo, DueDate: cmd.DueDate}
		if cmd.ClientName != "" {
			c, err := findClient(s.Clients, cmd.ClientName)
			if err != nil {
				return nil, err
			}
			task.ClientID = c.ID
		}
		if cmd.MemberName != "" {
			m, err := findMember(s.TeamMembers, cmd.MemberName)
			if err != nil {
				return nil, err
			}
			task.AssigneeID = m.ID
		}
		return workspace.AddTask{Task: task}, nil

	case KindUpdateTaskStatus:
		t, err := findTask(s.Tasks, cmd.TaskTitle)
		if err != nil {
			return nil, err
		}
		status, err := canonical(cmd.Status, team.TaskStatuses)
		if err != nil {
			return nil, err
		}
		return workspace.SetTaskStatus{TaskID: t.ID, Status: status}, nil

	case KindAddClient:
		status := team.ClientStatusHealthy
		if cmd.Status != "" {
			var err error
			if status, err = canonical(cmd.Status, team.ClientStatuses); err != nil {
				return nil, err
			}
		}
		return workspace.AddClient{Client: team.Client{Name: cmd.Title, Status: status}}, nil

	case KindUpdateClientStatus:
		c, err := findClient(s.Clients, cmd.ClientName)
		if err != nil {
			return nil, err
		}
		status, err := canonical(cmd.Status, team.ClientStatuses)
		if err != nil {
			return nil, err
		}
		return workspace.SetClientStatus{ClientID: c.ID, Status: status}, nil

	case KindLogKpiActual:
		m, err := findMember(s.TeamMembers, cmd.MemberName)
		if err != nil {
			return nil, err
		}
		group, ok := kpi.FindGroup(s.KpiGroups, m.GroupID())
		if !ok {
			return nil, fmt.Errorf("%w: %s has no KPI group", workspace.ErrGroupNotFound, m.Name)
		}
		def, ok := group.DefinitionByName(cmd.KpiName)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not in %s", workspace.ErrUnknownKPI, cmd.KpiName, group.Name)
		}
		return workspace.LogKpiActual{MemberID: m.ID, KpiDefinitionID: def.ID, Actual: cmd.Value}, nil

	case KindAddLeaveEntry:
		m, err := findMember(s.TeamMembers, cmd.MemberName)
		if err != nil {
			return nil, err
		}
		leaveType, err := canonical(cmd.LeaveType, team.LeaveTypes)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", workspace.ErrInvalidLeaveType, cmd.LeaveType)
		}
		date := cmd.Date
		if date == "" {
			date = now.Format(performance.DateLayout)
		}
		return workspace.AddLeaveEntry{
			MemberID: m.ID,
			Entry:    team.LeaveLogEntry{Type: leaveType, Date: date, Note: cmd.Note},
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
}

// Describe is the confirmation shown after a command has been applied.
func Describe(cmd Command) string {
	switch cmd.Kind {
	case KindAddTask:
		return fmt.Sprintf("Added task %q.", cmd.Title)
	case KindUpdateTaskStatus:
		return fmt.Sprintf("Moved task %q to %s.", cmd.TaskTitle, cmd.Status)
	case KindAddClient:
		return fmt.Sprintf("Added client %q.", cmd.Title)
	case KindUpdateClientStatus:
		return fmt.Sprintf("Set client %q to %s.", cmd.ClientName, cmd.Status)
	case KindLogKpiActual:
		return fmt.Sprintf("Logged %g for %s on %s.", cmd.Value, cmd.KpiName, cmd.MemberName)
	case KindAddLeaveEntry:
		return fmt.Sprintf("Recorded %s leave for %s.", cmd.LeaveType, cmd.MemberName)
	}
	return "Done."
}

// canonical maps loose spellings such as "in_progress" or "at risk" onto
// one of the allowed values.
func canonical(value string, allowed []string) (string, error) {
	key := fold(value)
	for _, a := range allowed {
		if fold(a) == key {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", workspace.ErrInvalidStatus, value)
}

func fold(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// match finds the single item whose name equals query ignoring case, or,
// failing that, the single item whose name contains it.
func match[T any](items []T, query string, name func(T) string) (T, int) {
	var zero T
	q := strings.ToLower(strings.TrimSpace(query))
	for _, it := range items {
		if strings.ToLower(name(it)) == q {
			return it, 1
		}
	}
	found, n := zero, 0
	for _, it := range items {
		if q != "" && strings.Contains(strings.ToLower(name(it)), q) {
			found = it
			n++
		}
	}
	return found, n
}

func findClient(clients []team.Client, name string) (team.Client, error) {
	c, n := match(clients, name, func(c team.Client) string { return c.Name })
	return pick(c, n, workspace.ErrClientNotFound, name)
}

func findMember(members []team.TeamMember, name string) (team.TeamMember, error) {
	m, n := match(members, name, func(m team.TeamMember) string { return m.Name })
	return pick(m, n, workspace.ErrMemberNotFound, name)
}

func findTask(tasks []team.Task, title string) (team.Task, error) {
	t, n := match(tasks, title, func(t team.Task) string { return t.Title })
	return pick(t, n, workspace.ErrTaskNotFound, title)
}

func pick[T any](item T, n int, notFound error, name string) (T, error) {
	var zero T
	switch {
	case n == 0:
		return zero, fmt.Errorf("%w: %q", notFound, name)
	case n > 1:
		return zero, fmt.Errorf("%w: %q", ErrAmbiguousName, name)
	}
	return item, nil
}
