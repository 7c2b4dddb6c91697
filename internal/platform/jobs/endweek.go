package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solvo/internal/domain/workspace"
)

// WeekCloser is the part of the workspace service the weekly close needs.
type WeekCloser interface {
	Users(ctx context.Context) ([]string, error)
	PendingWeek(ctx context.Context, userID string) (time.Time, bool, error)
	Dispatch(ctx context.Context, userID string, action workspace.Action) (workspace.Result, error)
}

// EndWeekFunc closes the week containing at for one user.
func EndWeekFunc(closer WeekCloser, userID string, at time.Time) RunFunc {
	return func(ctx context.Context) (any, error) {
		res, err := closer.Dispatch(ctx, userID, workspace.EndWeek{At: at})
		if err != nil {
			return nil, err
		}
		closed, _ := res.Value.(workspace.WeekClosed)
		return map[string]any{
			"weekOf":    closed.WeekOf,
			"archived":  len(closed.Archived),
			"persisted": res.Persisted,
		}, nil
	}
}

// EnqueueDueWeeks queues an end-week run for every user whose previous
// week has not been archived.
func (s *Service) EnqueueDueWeeks(ctx context.Context, closer WeekCloser) int {
	users, err := closer.Users(ctx)
	if err != nil {
		s.logger.Warn("end-week scheduler user lookup failed", zap.Error(err))
		return 0
	}
	queued := 0
	for _, userID := range users {
		at, due, err := closer.PendingWeek(ctx, userID)
		if err != nil {
			s.logger.Warn("end-week check failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if due && s.Enqueue(JobEndWeek, userID, EndWeekFunc(closer, userID, at)) {
			queued++
		}
	}
	return queued
}

// ScheduleEndWeek checks for due weeks on every interval.
func (s *Service) ScheduleEndWeek(ctx context.Context, interval time.Duration, closer WeekCloser) {
	s.Every(ctx, interval, func(ctx context.Context) {
		s.EnqueueDueWeeks(ctx, closer)
	})
}
