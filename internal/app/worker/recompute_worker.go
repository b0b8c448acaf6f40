package worker

import (
	"context"
	"errors"
	"time"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
	"skillwise/internal/platform/logger"
	"skillwise/internal/platform/metrics"
	"skillwise/internal/platform/queue"
)

const (
	defaultPopTimeout  = 5 * time.Second
	defaultMaxAttempts = 5
)

// GoalRecomputer re-derives one goal's progress from committed state.
type GoalRecomputer interface {
	RecomputeProgress(ctx context.Context, goalID, ownerID int64) (*model.GoalProgress, error)
}

// RecomputeWorker drains the recompute queue. Each job runs under a per-goal
// lock so that two instances never recompute the same goal at once.
type RecomputeWorker struct {
	queue       queue.Queue
	locker      queue.Locker
	goals       GoalRecomputer
	log         *logger.Logger
	lockTTL     time.Duration
	popTimeout  time.Duration
	maxAttempts int
	errBackoff  time.Duration
}

func NewRecomputeWorker(q queue.Queue, locker queue.Locker, goals GoalRecomputer, lockTTL time.Duration, log *logger.Logger) *RecomputeWorker {
	return &RecomputeWorker{
		queue:       q,
		locker:      locker,
		goals:       goals,
		log:         log,
		lockTTL:     lockTTL,
		popTimeout:  defaultPopTimeout,
		maxAttempts: defaultMaxAttempts,
		errBackoff:  5 * time.Second,
	}
}

func (w *RecomputeWorker) Start(ctx context.Context) {
	w.log.Info("recompute worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("recompute worker stopping")
			return
		default:
		}

		raw, err := w.queue.Pop(ctx, w.popTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || ctx.Err() != nil {
				continue
			}
			w.log.Error("failed to pop recompute job", "error", err)
			sleep(ctx, w.errBackoff)
			continue
		}
		w.process(ctx, raw)
	}
}

func (w *RecomputeWorker) process(ctx context.Context, raw string) {
	job, err := model.DecodeRecomputeJob(raw)
	if err != nil {
		metrics.RecomputeJobs.WithLabelValues("dropped").Inc()
		w.log.Warn("dropping malformed recompute job", "payload", raw, "error", err)
		return
	}
	log := w.log.With("goal_id", job.GoalID, "user_id", job.UserID, "reason", job.Reason, "attempt", job.Attempts)

	token, ok, err := w.locker.Acquire(ctx, job.LockKey(), w.lockTTL)
	if err != nil {
		log.Error("failed to acquire recompute lock", "error", err)
		w.requeue(ctx, job)
		return
	}
	if !ok {
		log.Debug("goal is locked by another worker, re-queueing")
		w.requeue(ctx, job)
		return
	}
	defer func() {
		released, err := w.locker.Release(context.WithoutCancel(ctx), job.LockKey(), token)
		switch {
		case err != nil:
			log.Error("failed to release recompute lock", "error", err)
		case !released:
			log.Warn("recompute lock expired before release")
		}
	}()

	progress, err := w.goals.RecomputeProgress(ctx, job.GoalID, job.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			metrics.RecomputeJobs.WithLabelValues("dropped").Inc()
			log.Debug("goal no longer exists, dropping job")
			return
		}
		log.Error("recompute failed", "error", err)
		w.requeue(ctx, job)
		return
	}
	metrics.RecomputeJobs.WithLabelValues("done").Inc()
	log.Debug("goal recomputed", "percentage", progress.Percentage, "completed", progress.Completed, "total", progress.Total)
}

func (w *RecomputeWorker) requeue(ctx context.Context, job model.RecomputeJob) {
	job.Attempts++
	if job.Attempts >= w.maxAttempts {
		metrics.RecomputeJobs.WithLabelValues("dropped").Inc()
		w.log.Warn("recompute job exhausted its attempts", "goal_id", job.GoalID, "attempts", job.Attempts)
		return
	}
	payload, err := job.Encode()
	if err == nil {
		err = w.queue.Push(ctx, payload)
	}
	if err != nil {
		metrics.RecomputeJobs.WithLabelValues("failed").Inc()
		w.log.Error("failed to re-queue recompute job", "goal_id", job.GoalID, "error", err)
		return
	}
	metrics.RecomputeJobs.WithLabelValues("requeued").Inc()
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
