// Package audit keeps a per-user trail of applied workspace actions.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solvo/internal/domain/kpi"
	"solvo/internal/domain/performance"
	"solvo/internal/domain/team"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/kv"
	"solvo/internal/platform/requestctx"
)

type Event struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType,omitempty"`
	EntityID   string    `json:"entityId,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	Persisted  bool      `json:"persisted"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EntityTypes lists every value Event.EntityType takes.
var EntityTypes = []string{
	"client", "task", "member", "coaching_session", "leave_entry",
	"kpi_group", "kpi_progress", "snapshot", "week", "ptl_report", "workspace",
}

// Filter narrows List. Zero fields match everything; Since is inclusive.
type Filter struct {
	Action     string
	EntityType string
	Since      time.Time
}

func (f Filter) match(evt Event) bool {
	switch {
	case f.Action != "" && evt.Action != f.Action:
		return false
	case f.EntityType != "" && evt.EntityType != f.EntityType:
		return false
	case !f.Since.IsZero() && evt.CreatedAt.Before(f.Since):
		return false
	}
	return true
}

type Service struct {
	store  kv.Backend
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

func New(store kv.Backend, prefix string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, prefix: prefix, logger: logger, now: time.Now}
}

func (s *Service) actorPrefix(actorID string) string {
	return fmt.Sprintf("%s-audit-%s-", s.prefix, actorID)
}

// Record stores evt. Keys sort by creation time within an actor.
func (s *Service) Record(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = s.now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%020d-%s", s.actorPrefix(evt.ActorID), evt.CreatedAt.UnixNano(), evt.ID)
	return s.store.Put(ctx, key, payload)
}

// ActionDispatched records one applied workspace action. Failures are
// logged, never returned: the action has already happened.
func (s *Service) ActionDispatched(ctx context.Context, userID string, action workspace.Action, value any, persisted bool) {
	entityType, entityID := subject(action, value)
	err := s.Record(ctx, Event{
		ActorID:    userID,
		Action:     action.Name(),
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		Persisted:  persisted,
	})
	if err != nil {
		fields := append(requestctx.Fields(ctx), zap.String("action", action.Name()), zap.Error(err))
		s.logger.Warn("audit record failed", fields...)
	}
}

// List returns the actor's events newest first, plus the total matching
// the filter before paging.
func (s *Service) List(ctx context.Context, actorID string, filter Filter, limit, offset int) ([]Event, int, error) {
	keys, err := s.store.Keys(ctx, s.actorPrefix(actorID))
	if err != nil {
		return nil, 0, err
	}
	events := make([]Event, 0, len(keys))
	for _, key := range keys {
		data, err := s.store.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, 0, fmt.Errorf("decode audit event: %w", err)
		}
		if filter.match(evt) {
			events = append(events, evt)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })

	total := len(events)
	if offset >= total {
		return []Event{}, total, nil
	}
	end := total
	if limit > 0 {
		end = min(offset+limit, total)
	}
	return events[offset:end], total, nil
}

func subject(action workspace.Action, value any) (string, string) {
	switch v := value.(type) {
	case team.Client:
		return "client", v.ID
	case team.Task:
		return "task", v.ID
	case team.TeamMember:
		return "member", v.ID
	case team.CoachingSession:
		return "coaching_session", v.ID
	case team.LeaveLogEntry:
		return "leave_entry", v.ID
	case kpi.Group:
		return "kpi_group", v.ID
	case kpi.Progress:
		return "kpi_progress", v.ID
	case performance.WeeklySnapshot:
		return "snapshot", v.TeamMemberID + "@" + v.WeekOf
	case workspace.WeekClosed:
		return "week", v.WeekOf
	}
	switch a := action.(type) {
	case workspace.DeleteClient:
		return "client", a.ClientID
	case workspace.DeleteTask:
		return "task", a.TaskID
	case workspace.DeleteMember:
		return "member", a.MemberID
	case workspace.DeleteKpiGroup:
		return "kpi_group", a.GroupID
	case workspace.SavePtlReport:
		return "ptl_report", a.MemberID
	case workspace.ReplaceState:
		return "workspace", ""
	}
	return "", ""
}
