package assistant

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the closed set of workspace changes the assistant may request.
type Kind string

const (
	KindAddTask            Kind = "add_task"
	KindUpdateTaskStatus   Kind = "update_task_status"
	KindAddClient          Kind = "add_client"
	KindUpdateClientStatus Kind = "update_client_status"
	KindLogKpiActual       Kind = "log_kpi_actual"
	KindAddLeaveEntry      Kind = "add_leave_entry"
)

var Kinds = []Kind{
	KindAddTask,
	KindUpdateTaskStatus,
	KindAddClient,
	KindUpdateClientStatus,
	KindLogKpiActual,
	KindAddLeaveEntry,
}

var (
	ErrUnknownCommand   = errors.New("unknown assistant command")
	ErrInvalidArguments = errors.New("invalid assistant command arguments")
)

// Command is a validated function call. Only the fields relevant to Kind
// are set; names are resolved against the workspace later.
type Command struct {
	Kind       Kind    `json:"kind"`
	Title      string  `json:"title,omitempty"`
	ClientName string  `json:"clientName,omitempty"`
	MemberName string  `json:"memberName,omitempty"`
	TaskTitle  string  `json:"taskTitle,omitempty"`
	KpiName    string  `json:"kpiName,omitempty"`
	Status     string  `json:"status,omitempty"`
	DueDate    string  `json:"dueDate,omitempty"`
	LeaveType  string  `json:"leaveType,omitempty"`
	Date       string  `json:"date,omitempty"`
	Note       string  `json:"note,omitempty"`
	Value      float64 `json:"value,omitempty"`
}

func ParseCommand(name string, args map[string]any) (Command, error) {
	kind := Kind(name)
	p := argParser{args: args}
	cmd := Command{Kind: kind}

	switch kind {
	case KindAddTask:
		cmd.Title = p.required("title")
		cmd.ClientName = p.optional("clientName")
		cmd.MemberName = p.optional("assigneeName")
		cmd.DueDate = p.optional("dueDate")
	case KindUpdateTaskStatus:
		cmd.TaskTitle = p.required("taskTitle")
		cmd.Status = p.required("status")
	case KindAddClient:
		cmd.Title = p.required("name")
		cmd.Status = p.optional("status")
	case KindUpdateClientStatus:
		cmd.ClientName = p.required("clientName")
		cmd.Status = p.required("status")
	case KindLogKpiActual:
		cmd.MemberName = p.required("memberName")
		cmd.KpiName = p.required("kpiName")
		cmd.Value = p.number("value")
	case KindAddLeaveEntry:
		cmd.MemberName = p.required("memberName")
		cmd.LeaveType = p.required("leaveType")
		cmd.Date = p.optional("date")
		cmd.Note = p.optional("note")
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	if len(p.problems) > 0 {
		return Command{}, fmt.Errorf("%w: %s: %s", ErrInvalidArguments, name, strings.Join(p.problems, "; "))
	}
	return cmd, nil
}

type argParser struct {
	args     map[string]any
	problems []string
}

func (p *argParser) optional(key string) string {
	raw, ok := p.args[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		p.problems = append(p.problems, key+" must be a string")
		return ""
	}
	return strings.TrimSpace(s)
}

func (p *argParser) required(key string) string {
	if _, ok := p.args[key]; !ok {
		p.problems = append(p.problems, key+" is required")
		return ""
	}
	before := len(p.problems)
	s := p.optional(key)
	if s == "" && len(p.problems) == before {
		p.problems = append(p.problems, key+" is required")
	}
	return s
}

func (p *argParser) number(key string) float64 {
	var v float64
	switch raw := p.args[key].(type) {
	case float64:
		v = raw
	case int:
		v = float64(raw)
	case int64:
		v = float64(raw)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			p.problems = append(p.problems, key+" must be a number")
			return 0
		}
		v = parsed
	case nil:
		p.problems = append(p.problems, key+" is required")
		return 0
	default:
		p.problems = append(p.problems, key+" must be a number")
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p.problems = append(p.problems, key+" must be finite")
		return 0
	}
	return v
}
