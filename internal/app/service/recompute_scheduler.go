package service

import (
	"context"
	"time"

	"skillwise/internal/domain/model"
	"skillwise/internal/platform/logger"
	"skillwise/internal/platform/queue"
)

// Clock returns the current time. Tests substitute a fixed one.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// RecomputeScheduler hands goals to the background reconciler once a write
// that affects them has committed.
type RecomputeScheduler interface {
	Schedule(ctx context.Context, job model.RecomputeJob) error
}

type QueueScheduler struct {
	q   queue.Queue
	log *logger.Logger
	now Clock
}

func NewQueueScheduler(q queue.Queue, log *logger.Logger) *QueueScheduler {
	return &QueueScheduler{q: q, log: log, now: systemClock}
}

func (s *QueueScheduler) Schedule(ctx context.Context, job model.RecomputeJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = s.now()
	}
	payload, err := job.Encode()
	if err != nil {
		return err
	}
	if err := s.q.Push(ctx, payload); err != nil {
		return err
	}
	s.log.Debug("recompute job enqueued", "goal_id", job.GoalID, "user_id", job.UserID, "reason", job.Reason)
	return nil
}

// scheduleRecomputes enqueues one job per distinct goal. Failures are logged
// only: the write already recomputed synchronously.
func scheduleRecomputes(ctx context.Context, scheduler RecomputeScheduler, log *logger.Logger, userID int64, reason string, goalIDs ...*int64) {
	if scheduler == nil {
		return
	}
	seen := make(map[int64]bool, len(goalIDs))
	for _, goalID := range goalIDs {
		if goalID == nil || seen[*goalID] {
			continue
		}
		seen[*goalID] = true
		job := model.RecomputeJob{UserID: userID, GoalID: *goalID, Reason: reason}
		if err := scheduler.Schedule(ctx, job); err != nil {
			log.Warn("failed to enqueue goal recompute", "goal_id", *goalID, "reason", reason, "error", err)
		}
	}
}
