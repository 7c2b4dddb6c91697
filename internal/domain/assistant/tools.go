package assistant

import (
	"strings"

	"google.golang.org/genai"

	"solvo/internal/domain/team"
)

func str(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func enum(description string, values []string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description, Enum: values}
}

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

// Tools declares one function per Kind.
func Tools() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        string(KindAddTask),
			Description: "Create a task, optionally for a client and an assignee.",
			Parameters: object(map[string]*genai.Schema{
				"title":        str("Task title"),
				"clientName":   str("Name of an existing client"),
				"assigneeName": str("Name of an existing team member"),
				"dueDate":      str("Due date as YYYY-MM-DD"),
			}, "title"),
		},
		{
			Name:        string(KindUpdateTaskStatus),
			Description: "Change the status of an existing task.",
			Parameters: object(map[string]*genai.Schema{
				"taskTitle": str("Title of the task"),
				"status":    enum("New status", team.TaskStatuses),
			}, "taskTitle", "status"),
		},
		{
			Name:        string(KindAddClient),
			Description: "Add a client account.",
			Parameters: object(map[string]*genai.Schema{
				"name":   str("Client name"),
				"status": enum("Initial health", team.ClientStatuses),
			}, "name"),
		},
		{
			Name:        string(KindUpdateClientStatus),
			Description: "Change the health status of an existing client.",
			Parameters: object(map[string]*genai.Schema{
				"clientName": str("Name of the client"),
				"status":     enum("New status", team.ClientStatuses),
			}, "clientName", "status"),
		},
		{
			Name:        string(KindLogKpiActual),
			Description: "Record this week's actual value for one KPI of a team member.",
			Parameters: object(map[string]*genai.Schema{
				"memberName": str("Name of the team member"),
				"kpiName":    str("Name of the KPI in the member's group"),
				"value":      {Type: genai.TypeNumber, Description: "Actual value"},
			}, "memberName", "kpiName", "value"),
		},
		{
			Name:        string(KindAddLeaveEntry),
			Description: "Record a leave day for a team member.",
			Parameters: object(map[string]*genai.Schema{
				"memberName": str("Name of the team member"),
				"leaveType":  enum("Kind of leave", team.LeaveTypes),
				"date":       str("Date as YYYY-MM-DD, defaults to today"),
				"note":       str("Optional note"),
			}, "memberName", "leaveType"),
		},
	}
}

const systemPrompt = "You operate a team operations workspace. When the request asks for a change, call exactly one of the " +
	"provided functions using names exactly as listed in the context. Otherwise answer briefly in plain text."

func buildPrompt(s workspaceView, request string) string {
	var b strings.Builder
	b.WriteString("Team members: ")
	b.WriteString(strings.Join(s.members, ", "))
	b.WriteString("\nClients: ")
	b.WriteString(strings.Join(s.clients, ", "))
	b.WriteString("\nOpen tasks: ")
	b.WriteString(strings.Join(s.tasks, ", "))
	b.WriteString("\nToday: ")
	b.WriteString(s.today)
	b.WriteString("\n\nRequest: ")
	b.WriteString(request)
	return b.String()
}
