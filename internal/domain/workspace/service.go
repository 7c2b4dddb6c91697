package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solvo/internal/domain/performance"
	"solvo/internal/platform/kv"
)

// Observer is told about every applied action.
type Observer interface {
	ActionApplied(action string, persisted bool)
}

// Auditor is told about every applied action together with its product.
type Auditor interface {
	ActionDispatched(ctx context.Context, userID string, action Action, value any, persisted bool)
}

type Result struct {
	State     State `json:"state"`
	Value     any   `json:"-"`
	Persisted bool  `json:"persisted"`
}

type ImportResult struct {
	BackupID  string `json:"backupId"`
	State     State  `json:"state"`
	Persisted bool   `json:"persisted"`
}

type userWorkspace struct {
	mu     sync.Mutex
	loaded bool
	state  State
}

// Service owns each user's cached workspace. Mutations for one user run one
// at a time; different users proceed in parallel. Separate processes
// sharing a backend overwrite each other's collections (last write wins).
type Service struct {
	store    *Store
	backups  backups
	logger   *zap.Logger
	observer Observer
	auditor  Auditor
	now      func() time.Time
	newID    func() string

	mu    sync.Mutex
	users map[string]*userWorkspace
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(backend kv.Backend, prefix string, sealer Sealer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := NewStore(backend, prefix)
	s := &Service{
		store:   store,
		backups: backups{backend: backend, prefix: store.prefix, sealer: sealer},
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
		users:   make(map[string]*userWorkspace),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) workspace(userID string) *userWorkspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.users[userID]
	if !ok {
		ws = &userWorkspace{}
		s.users[userID] = ws
	}
	return ws
}

// ensureLoaded must be called with ws.mu held.
func (s *Service) ensureLoaded(ctx context.Context, userID string, ws *userWorkspace) error {
	if ws.loaded {
		return nil
	}
	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}
	ws.state = state
	ws.loaded = true
	return nil
}

func (s *Service) State(ctx context.Context, userID string) (State, error) {
	ws := s.workspace(userID)
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := s.ensureLoaded(ctx, userID, ws); err != nil {
		return State{}, err
	}
	return ws.state, nil
}

// Dispatch applies the action and persists the touched collections. A
// persistence failure is logged and reported through Persisted; the new
// state is kept in memory either way.
func (s *Service) Dispatch(ctx context.Context, userID string, action Action) (Result, error) {
	ws := s.workspace(userID)
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := s.ensureLoaded(ctx, userID, ws); err != nil {
		return Result{}, err
	}

	out, err := Apply(ws.state, action, Env{Now: s.now, NewID: s.newID})
	if err != nil {
		return Result{State: ws.state}, err
	}
	ws.state = out.State

	persisted := true
	if err := s.store.Save(ctx, userID, out.State, out.Touched...); err != nil {
		persisted = false
		s.logger.Warn("workspace persist failed",
			zap.String("user_id", userID),
			zap.String("action", action.Name()),
			zap.Error(err),
		)
	}
	if s.observer != nil {
		s.observer.ActionApplied(action.Name(), persisted)
	}
	if s.auditor != nil {
		s.auditor.ActionDispatched(ctx, userID, action, out.Value, persisted)
	}
	return Result{State: out.State, Value: out.Value, Persisted: persisted}, nil
}

func (s *Service) Export(ctx context.Context, userID string) (Export, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return Export{}, err
	}
	return Export{Version: ExportVersion, ExportedAt: s.now().UTC(), State: state}, nil
}

// Import replaces the workspace with payload. It refuses unless confirm is
// set, and stores a backup of the current workspace first.
func (s *Service) Import(ctx context.Context, userID string, payload Export, confirm bool) (ImportResult, error) {
	if !confirm {
		return ImportResult{}, ErrConfirmationRequired
	}
	if payload.Version != 0 && payload.Version != ExportVersion {
		return ImportResult{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidImport, payload.Version)
	}

	current, err := s.Export(ctx, userID)
	if err != nil {
		return ImportResult{}, err
	}
	info, err := s.backups.save(ctx, userID, s.newID(), current)
	if err != nil {
		return ImportResult{}, fmt.Errorf("backup before import: %w", err)
	}

	res, err := s.Dispatch(ctx, userID, ReplaceState{State: payload.State})
	if err != nil {
		return ImportResult{}, err
	}
	s.logger.Info("workspace imported",
		zap.String("user_id", userID),
		zap.String("backup_id", info.ID),
		zap.Bool("persisted", res.Persisted),
	)
	return ImportResult{BackupID: info.ID, State: res.State, Persisted: res.Persisted}, nil
}

func (s *Service) Backups(ctx context.Context, userID string) ([]BackupInfo, error) {
	return s.backups.list(ctx, userID)
}

func (s *Service) Backup(ctx context.Context, userID, backupID string) (Export, error) {
	return s.backups.load(ctx, userID, backupID)
}

// Users lists users with stored workspaces.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	return s.store.Users(ctx)
}

// PendingWeek reports the previous week's Monday when it has not been
// archived yet. Workspaces with no archive at all are never pending, so a
// new workspace's first close is always manual.
func (s *Service) PendingWeek(ctx context.Context, userID string) (time.Time, bool, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(state.TeamMembers) == 0 || len(state.WeeklySnapshots) == 0 {
		return time.Time{}, false, nil
	}
	previous := performance.StartOfWeek(s.now()).AddDate(0, 0, -7)
	label := performance.WeekOf(previous)
	for _, snap := range state.WeeklySnapshots {
		if snap.WeekOf >= label {
			return time.Time{}, false, nil
		}
	}
	return previous, true, nil
}
