package workspace

import (
	"fmt"
	"slices"

	"solvo/internal/domain/team"
)

func clientID(c team.Client) string { return c.ID }

func taskID(t team.Task) string { return t.ID }

func memberID(m team.TeamMember) string { return m.ID }

func sessionID(c team.CoachingSession) string { return c.ID }

func checkStatus(status string, allowed []string) error {
	if !slices.Contains(allowed, status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

type AddClient struct{ Client team.Client }

func (AddClient) Name() string          { return "add_client" }
func (AddClient) Touches() []Collection { return []Collection{CollectionClients} }

func (a AddClient) apply(s State, env Env) (State, any, error) {
	c := a.Client
	if c.ID == "" {
		c.ID = env.NewID()
	} else if indexByID(s.Clients, c.ID, clientID) >= 0 {
		return s, nil, ErrDuplicateID
	}
	if c.Status == "" {
		c.Status = team.ClientStatusHealthy
	}
	if err := checkStatus(c.Status, team.ClientStatuses); err != nil {
		return s, nil, err
	}
	c.AssignedMemberIDs = orEmpty(slices.Clone(c.AssignedMemberIDs))
	s.Clients = appendCopy(s.Clients, c)
	return s, c, nil
}

// UpdateClient replaces the editable fields of an existing client. An empty
// status keeps the current one.
type UpdateClient struct{ Client team.Client }

func (UpdateClient) Name() string          { return "update_client" }
func (UpdateClient) Touches() []Collection { return []Collection{CollectionClients} }

func (a UpdateClient) apply(s State, _ Env) (State, any, error) {
	i := indexByID(s.Clients, a.Client.ID, clientID)
	if i < 0 {
		return s, nil, ErrClientNotFound
	}
	c := a.Client
	if c.Status == "" {
		c.Status = s.Clients[i].Status
	}
	if err := checkStatus(c.Status, team.ClientStatuses); err != nil {
		return s, nil, err
	}
	c.AssignedMemberIDs = orEmpty(slices.Clone(c.AssignedMemberIDs))
	s.Clients = replaceAt(s.Clients, i, c)
	return s, c, nil
}

type SetClientStatus struct {
	ClientID string
	Status   string
}

func (SetClientStatus) Name() string          { return "update_client_status" }
func (SetClientStatus) Touches() []Collection { return []Collection{CollectionClients} }

func (a SetClientStatus) apply(s State, _ Env) (State, any, error) {
	i := indexByID(s.Clients, a.ClientID, clientID)
	if i < 0 {
		return s, nil, ErrClientNotFound
	}
	if err := checkStatus(a.Status, team.ClientStatuses); err != nil {
		return s, nil, err
	}
	c := s.Clients[i]
	c.Status = a.Status
	s.Clients = replaceAt(s.Clients, i, c)
	return s, c, nil
}

// DeleteClient also removes the client's tasks.
type DeleteClient struct{ ClientID string }

func (DeleteClient) Name() string { return "delete_client" }
func (DeleteClient) Touches() []Collection {
	return []Collection{CollectionClients, CollectionTasks}
}

func (a DeleteClient) apply(s State, _ Env) (State, any, error) {
	if indexByID(s.Clients, a.ClientID, clientID) < 0 {
		return s, nil, ErrClientNotFound
	}
	s.Clients = removeWhere(s.Clients, func(c team.Client) bool { return c.ID == a.ClientID })
	s.Tasks = removeWhere(s.Tasks, func(t team.Task) bool { return t.ClientID == a.ClientID })
	return s, nil, nil
}

type AddTask struct{ Task team.Task }

func (AddTask) Name() string          { return "add_task" }
func (AddTask) Touches() []Collection { return []Collection{CollectionTasks} }

func (a AddTask) apply(s State, env Env) (State, any, error) {
	t := a.Task
	if t.ID == "" {
		t.ID = env.NewID()
	} else if indexByID(s.Tasks, t.ID, taskID) >= 0 {
		return s, nil, ErrDuplicateID
	}
	if t.Status == "" {
		t.Status = team.TaskStatusToDo
	}
	if err := checkTask(s, t); err != nil {
		return s, nil, err
	}
	s.Tasks = appendCopy(s.Tasks, t)
	return s, t, nil
}

type UpdateTask struct{ Task team.Task }

func (UpdateTask) Name() string          { return "update_task" }
func (UpdateTask) Touches() []Collection { return []Collection{CollectionTasks} }

func (a UpdateTask) apply(s State, _ Env) (State, any, error) {
	i := indexByID(s.Tasks, a.Task.ID, taskID)
	if i < 0 {
		return s, nil, ErrTaskNotFound
	}
	t := a.Task
	if t.Status == "" {
		t.Status = s.Tasks[i].Status
	}
	if err := checkTask(s, t); err != nil {
		return s, nil, err
	}
	s.Tasks = replaceAt(s.Tasks, i, t)
	return s, t, nil
}

type SetTaskStatus struct {
	TaskID string
	Status string
}

func (SetTaskStatus) Name() string          { return "update_task_status" }
func (SetTaskStatus) Touches() []Collection { return []Collection{CollectionTasks} }

func (a SetTaskStatus) apply(s State, _ Env) (State, any, error) {
	i := indexByID(s.Tasks, a.TaskID, taskID)
	if i < 0 {
		return s, nil, ErrTaskNotFound
	}
	if err := checkStatus(a.Status, team.TaskStatuses); err != nil {
		return s, nil, err
	}
	t := s.Tasks[i]
	t.Status = a.Status
	s.Tasks = replaceAt(s.Tasks, i, t)
	return s, t, nil
}

type DeleteTask struct{ TaskID string }

func (DeleteTask) Name() string          { return "delete_task" }
func (DeleteTask) Touches() []Collection { return []Collection{CollectionTasks} }

func (a DeleteTask) apply(s State, _ Env) (State, any, error) {
	if indexByID(s.Tasks, a.TaskID, taskID) < 0 {
		return s, nil, ErrTaskNotFound
	}
	s.Tasks = removeWhere(s.Tasks, func(t team.Task) bool { return t.ID == a.TaskID })
	return s, nil, nil
}

func checkTask(s State, t team.Task) error {
	if err := checkStatus(t.Status, team.TaskStatuses); err != nil {
		return err
	}
	if t.ClientID != "" && indexByID(s.Clients, t.ClientID, clientID) < 0 {
		return ErrClientNotFound
	}
	if t.AssigneeID != "" && indexByID(s.TeamMembers, t.AssigneeID, memberID) < 0 {
		return ErrMemberNotFound
	}
	if t.DueDate != "" && !validDate(t.DueDate) {
		return ErrInvalidDate
	}
	return nil
}

type AddCoachingSession struct{ Session team.CoachingSession }

func (AddCoachingSession) Name() string          { return "add_coaching_session" }
func (AddCoachingSession) Touches() []Collection { return []Collection{CollectionCoachingSessions} }

func (a AddCoachingSession) apply(s State, env Env) (State, any, error) {
	c := a.Session
	if indexByID(s.TeamMembers, c.TeamMemberID, memberID) < 0 {
		return s, nil, ErrMemberNotFound
	}
	if c.ID == "" {
		c.ID = env.NewID()
	} else if indexByID(s.CoachingSessions, c.ID, sessionID) >= 0 {
		return s, nil, ErrDuplicateID
	}
	if c.Date == "" {
		c.Date = env.Now().Format("2006-01-02")
	} else if !validDate(c.Date) {
		return s, nil, ErrInvalidDate
	}
	c.ActionItems = slices.Clone(c.ActionItems)
	s.CoachingSessions = appendCopy(s.CoachingSessions, c)
	return s, c, nil
}
