package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solvo/internal/platform/kv"
)

const (
	JobEndWeek = "end_week"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunFunc func(context.Context) (any, error)

// Recorder observes finished runs.
type Recorder interface {
	JobRun(job, status string)
}

// Run is the stored record of one job execution.
type Run struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	UserID      string          `json:"userId"`
	Status      string          `json:"status"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type Service struct {
	store    kv.Backend
	prefix   string
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
	queue    chan job
	wg       sync.WaitGroup
}

type job struct {
	Type   string
	UserID string
	Run    RunFunc
}

func New(store kv.Backend, prefix string, logger *zap.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		prefix:   prefix,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
		queue:    make(chan job, 128),
	}
}

// Start launches the queue worker. It stops when ctx is cancelled; Wait
// blocks until it and every scheduler have returned.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

func (s *Service) Wait() {
	s.wg.Wait()
}

// Every calls tick on each interval until ctx is cancelled.
func (s *Service) Every(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick(ctx)
			}
		}
	}()
}

// Enqueue hands a job to the worker. It reports false when the queue is full.
func (s *Service) Enqueue(jobType, userID string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, UserID: userID, Run: run}:
		return true
	default:
		s.logger.Warn("job queue full", zap.String("job_type", jobType), zap.String("user_id", userID))
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, userID string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, UserID: userID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.logger.Warn("job run failed",
					zap.String("job_type", j.Type),
					zap.String("user_id", j.UserID),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	run := Run{
		ID:        uuid.NewString(),
		Type:      j.Type,
		UserID:    j.UserID,
		Status:    StatusRunning,
		StartedAt: s.now().UTC(),
	}
	s.saveRun(ctx, run)

	details, err := j.Run(ctx)
	run.Status = StatusCompleted
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	}
	if details != nil {
		encoded, marshalErr := json.Marshal(details)
		if marshalErr != nil {
			s.logger.Warn("job details marshal failed", zap.Error(marshalErr))
		} else {
			run.Details = encoded
		}
	}
	completed := s.now().UTC()
	run.CompletedAt = &completed
	s.saveRun(ctx, run)

	if s.recorder != nil {
		s.recorder.JobRun(j.Type, run.Status)
	}
	return details, err
}

func (s *Service) runKey(id string) string {
	return fmt.Sprintf("%s-jobrun-%s", s.prefix, id)
}

func (s *Service) saveRun(ctx context.Context, run Run) {
	data, err := json.Marshal(run)
	if err != nil {
		s.logger.Warn("job run encode failed", zap.Error(err))
		return
	}
	if err := s.store.Put(ctx, s.runKey(run.ID), data); err != nil {
		s.logger.Warn("job run save failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// Runs returns stored runs, newest first, optionally for one user.
func (s *Service) Runs(ctx context.Context, userID string, limit int) ([]Run, error) {
	keys, err := s.store.Keys(ctx, s.runKey(""))
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(keys))
	for _, key := range keys {
		data, err := s.store.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var run Run
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("decode job run: %w", err)
		}
		if userID != "" && run.UserID != userID {
			continue
		}
		runs = append(runs, run)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
