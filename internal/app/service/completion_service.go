package service

import (
	"context"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/logger"
	"skillwise/internal/platform/metrics"
)

type CompletionService struct {
	store     repository.Store
	goals     *GoalService
	scheduler RecomputeScheduler
	log       *logger.Logger
	now       Clock
}

func NewCompletionService(store repository.Store, goals *GoalService, scheduler RecomputeScheduler, log *logger.Logger) *CompletionService {
	return &CompletionService{store: store, goals: goals, scheduler: scheduler, log: log, now: systemClock}
}

func (s *CompletionService) WithClock(now Clock) *CompletionService {
	s.now = now
	return s
}

// CompleteChallenge records the user's completion of challengeID at most once,
// gated on its prerequisites, and re-derives the linked goal in the same
// transaction. A repeated call is a no-op that still returns the challenge.
func (s *CompletionService) CompleteChallenge(ctx context.Context, challengeID, userID int64) (*model.Challenge, error) {
	var (
		challenge *model.Challenge
		goalID    *int64
		inserted  bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		challenge, err = tx.Challenges().FindByID(ctx, challengeID, userID)
		if err != nil {
			return notFoundAs(err, errChallengeNotFound(challengeID))
		}
		goalID = model.GoalIDFromTags(challenge.Tags)

		if len(challenge.Prerequisites) > 0 {
			done, err := tx.Events().CompletedChallengeIDs(ctx, userID, challenge.Prerequisites)
			if err != nil {
				return err
			}
			var missing []int64
			for _, id := range challenge.Prerequisites {
				if !done[id] {
					missing = append(missing, id)
				}
			}
			if len(missing) > 0 {
				return &common.PrerequisiteError{Missing: missing}
			}
		}

		inserted, err = tx.Events().CreateCompletion(ctx, &model.ProgressEvent{
			UserID:             userID,
			EventType:          model.EventChallengeCompleted,
			PointsEarned:       challenge.PointsReward,
			RelatedGoalID:      goalID,
			RelatedChallengeID: &challenge.ID,
			OccurredAt:         s.now(),
		})
		if err != nil {
			return err
		}

		if goalID != nil {
			if _, err := s.goals.RecomputeInTx(ctx, tx, *goalID, userID, "completion"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if common.KindOf(err) == common.KindPrecondition {
			metrics.ChallengeCompletions.WithLabelValues("blocked").Inc()
			metrics.PrerequisiteRejections.Inc()
			s.log.Debug("completion blocked by prerequisites", "challenge_id", challengeID, "user_id", userID, "error", err)
		}
		return nil, wrapErr(err, "failed to complete challenge %d", challengeID)
	}

	if inserted {
		metrics.ChallengeCompletions.WithLabelValues("admitted").Inc()
		s.log.Info("challenge completed", "challenge_id", challengeID, "user_id", userID,
			"goal_id", goalID, "points", challenge.PointsReward)
		scheduleRecomputes(ctx, s.scheduler, s.log, userID, model.RecomputeReasonCompletion, goalID)
	} else {
		metrics.ChallengeCompletions.WithLabelValues("duplicate").Inc()
		s.log.Debug("challenge already completed", "challenge_id", challengeID, "user_id", userID)
	}

	challenge.Decorate()
	challenge.Status = model.ChallengeStatusCompleted
	return challenge, nil
}
