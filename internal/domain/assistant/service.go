package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"solvo/internal/domain/performance"
	"solvo/internal/domain/team"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/ai"
)

var ErrEmptyRequest = errors.New("assistant request is empty")

type ToolCaller interface {
	Configured() bool
	CallTools(ctx context.Context, system, prompt string, tools []*genai.FunctionDeclaration) (ai.ToolReply, error)
}

type Workspace interface {
	State(ctx context.Context, userID string) (workspace.State, error)
	Dispatch(ctx context.Context, userID string, action workspace.Action) (workspace.Result, error)
}

// Reply is the assistant's answer. Command is set when a workspace change
// was applied.
type Reply struct {
	Message   string           `json:"message"`
	Command   *Command         `json:"command,omitempty"`
	Persisted bool             `json:"persisted"`
	State     *workspace.State `json:"state,omitempty"`
}

type Service struct {
	model     ToolCaller
	workspace Workspace
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(model ToolCaller, ws Workspace, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{model: model, workspace: ws, logger: logger, now: time.Now}
}

func (s *Service) Run(ctx context.Context, userID, request string) (Reply, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return Reply{}, ErrEmptyRequest
	}
	if s.model == nil || !s.model.Configured() {
		return Reply{}, ai.ErrNotConfigured
	}

	state, err := s.workspace.State(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	now := s.now()
	reply, err := s.model.CallTools(ctx, systemPrompt, buildPrompt(viewOf(state, now), request), Tools())
	if err != nil {
		return Reply{}, err
	}
	if len(reply.Calls) == 0 {
		return Reply{Message: reply.Text}, nil
	}
	if len(reply.Calls) > 1 {
		s.logger.Info("assistant returned several calls, applying the first",
			zap.String("user_id", userID),
			zap.Int("calls", len(reply.Calls)),
		)
	}

	call := reply.Calls[0]
	cmd, err := ParseCommand(call.Name, call.Args)
	if err != nil {
		return Reply{}, err
	}
	action, err := Resolve(state, cmd, now)
	if err != nil {
		return Reply{}, err
	}
	res, err := s.workspace.Dispatch(ctx, userID, action)
	if err != nil {
		return Reply{}, err
	}
	s.logger.Info("assistant command applied",
		zap.String("user_id", userID),
		zap.String("command", string(cmd.Kind)),
		zap.Bool("persisted", res.Persisted),
	)
	return Reply{Message: Describe(cmd), Command: &cmd, Persisted: res.Persisted, State: &res.State}, nil
}

type workspaceView struct {
	members []string
	clients []string
	tasks   []string
	today   string
}

func viewOf(s workspace.State, now time.Time) workspaceView {
	v := workspaceView{today: now.Format(performance.DateLayout)}
	for _, m := range s.TeamMembers {
		v.members = append(v.members, m.Name)
	}
	for _, c := range s.Clients {
		v.clients = append(v.clients, c.Name)
	}
	for _, t := range s.Tasks {
		if t.Status != team.TaskStatusDone {
			v.tasks = append(v.tasks, t.Title)
		}
	}
	return v
}
