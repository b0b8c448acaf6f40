package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/logger"
	"skillwise/internal/platform/metrics"
)

type GoalService struct {
	store repository.Store
	log   *logger.Logger
	now   Clock
}

func NewGoalService(store repository.Store, log *logger.Logger) *GoalService {
	return &GoalService{store: store, log: log, now: systemClock}
}

func (s *GoalService) WithClock(now Clock) *GoalService {
	s.now = now
	return s
}

func validateGoalTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", common.Invalid("title is required")
	}
	if utf8.RuneCountInString(title) > model.MaxGoalTitleLength {
		return "", common.Invalid("title must be at most %d characters", model.MaxGoalTitleLength)
	}
	return title, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *GoalService) CreateGoal(ctx context.Context, ownerID int64, in model.GoalInput) (*model.Goal, error) {
	title, err := validateGoalTitle(in.Title)
	if err != nil {
		return nil, err
	}

	goal := &model.Goal{
		OwnerID:     ownerID,
		Title:       title,
		Description: trimmedOrNil(in.Description),
		Category:    trimmedOrNil(in.Category),
		Difficulty:  model.DifficultyMedium,
		Status:      model.GoalStatusActive,
	}
	if in.Difficulty != "" {
		d, ok := model.ParseGoalDifficulty(in.Difficulty)
		if !ok {
			return nil, common.Invalid("difficulty must be one of Easy, Medium, Hard, Paused")
		}
		if d == model.DifficultyPaused {
			goal.Status = model.GoalStatusPaused
		} else {
			goal.Difficulty = d
		}
	}
	if in.PointsReward != nil {
		if *in.PointsReward < 0 {
			return nil, common.Invalid("pointsReward must be zero or greater")
		}
		goal.PointsReward = *in.PointsReward
	}
	if in.IsPublic != nil {
		goal.IsPublic = *in.IsPublic
	}
	if in.TargetCompletionDate != nil {
		t := in.TargetCompletionDate.Time
		goal.TargetCompletionDate = &t
	}

	if err := s.store.Goals().Create(ctx, goal); err != nil {
		return nil, wrapErr(err, "failed to create goal")
	}
	s.log.Info("goal created", "goal_id", goal.ID, "user_id", ownerID)
	return goal, nil
}

// applyGoalPatch copies the allowed fields of patch onto goal.
func applyGoalPatch(goal *model.Goal, patch model.GoalPatch) error {
	if patch.Title != nil {
		title, err := validateGoalTitle(*patch.Title)
		if err != nil {
			return err
		}
		goal.Title = title
	}
	if patch.Description != nil {
		goal.Description = trimmedOrNil(patch.Description)
	}
	if patch.Category != nil {
		goal.Category = trimmedOrNil(patch.Category)
	}
	if patch.Difficulty != nil {
		d, ok := model.ParseGoalDifficulty(*patch.Difficulty)
		if !ok {
			return common.Invalid("difficulty must be one of Easy, Medium, Hard, Paused")
		}
		switch {
		case d == model.DifficultyPaused:
			goal.Status = model.GoalStatusPaused
		case goal.Status == model.GoalStatusPaused && patch.Status == nil:
			goal.Difficulty = d
			goal.Status = model.GoalStatusActive
		default:
			goal.Difficulty = d
		}
	}
	if patch.Status != nil {
		st, ok := model.ParseGoalStatus(*patch.Status)
		if !ok {
			return common.Invalid("status must be one of active, paused, archived")
		}
		goal.Status = st
	}
	if patch.TargetCompletionDate != nil {
		t := patch.TargetCompletionDate.Time
		goal.TargetCompletionDate = &t
	}
	if patch.ProgressPercentage != nil && (*patch.ProgressPercentage < 0 || *patch.ProgressPercentage > 100) {
		return common.Invalid("progressPercentage must be between 0 and 100")
	}
	if patch.PointsReward != nil {
		if *patch.PointsReward < 0 {
			return common.Invalid("pointsReward must be zero or greater")
		}
		goal.PointsReward = *patch.PointsReward
	}
	if patch.IsPublic != nil {
		goal.IsPublic = *patch.IsPublic
	}
	return nil
}

// UpdateGoal applies patch and re-derives progress in the same transaction,
// so isCompleted and progressPercentage always reflect completions.
func (s *GoalService) UpdateGoal(ctx context.Context, goalID, ownerID int64, patch model.GoalPatch) (*model.Goal, error) {
	var goal *model.Goal
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		goal, err = tx.Goals().FindByID(ctx, goalID, ownerID)
		if err != nil {
			return notFoundAs(err, errGoalNotFound(goalID))
		}
		if err := applyGoalPatch(goal, patch); err != nil {
			return err
		}
		if err := tx.Goals().Update(ctx, goal); err != nil {
			return err
		}
		_, err = s.recompute(ctx, tx, goal, "update")
		return err
	})
	if err != nil {
		return nil, wrapErr(err, "failed to update goal %d", goalID)
	}
	return goal, nil
}

// DeleteGoal removes the goal, every event attributed to it and its tag on
// the owner's challenges. It returns the number of goals removed.
func (s *GoalService) DeleteGoal(ctx context.Context, goalID, ownerID int64) (int64, error) {
	var deleted int64
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Challenges().LockCreator(ctx, ownerID); err != nil {
			return err
		}
		if _, err := tx.Goals().FindByID(ctx, goalID, ownerID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			return err
		}
		events, err := tx.Events().DeleteByGoal(ctx, goalID)
		if err != nil {
			return err
		}
		untagged, err := tx.Challenges().RemoveTag(ctx, ownerID, model.GoalTag(goalID))
		if err != nil {
			return err
		}
		deleted, err = tx.Goals().Delete(ctx, goalID, ownerID)
		if err != nil {
			return err
		}
		s.log.Info("goal deleted", "goal_id", goalID, "user_id", ownerID, "events_removed", events, "challenges_untagged", untagged)
		return nil
	})
	if err != nil {
		return 0, wrapErr(err, "failed to delete goal %d", goalID)
	}
	return deleted, nil
}

func (s *GoalService) GetGoals(ctx context.Context, ownerID int64) ([]model.Goal, error) {
	var goals []model.Goal
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		goals, err = tx.Goals().ListByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		for i := range goals {
			if _, err := s.recompute(ctx, tx, &goals[i], "read"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, "failed to list goals")
	}
	return goals, nil
}

func (s *GoalService) GetGoal(ctx context.Context, goalID, ownerID int64) (*model.Goal, error) {
	var goal *model.Goal
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		goal, err = tx.Goals().FindByID(ctx, goalID, ownerID)
		if err != nil {
			return notFoundAs(err, errGoalNotFound(goalID))
		}
		_, err = s.recompute(ctx, tx, goal, "read")
		return err
	})
	if err != nil {
		return nil, wrapErr(err, "failed to get goal %d", goalID)
	}
	return goal, nil
}

// RecomputeProgress re-derives the goal's progress from its tagged
// challenges and the owner's completion events, and persists it.
func (s *GoalService) RecomputeProgress(ctx context.Context, goalID, ownerID int64) (*model.GoalProgress, error) {
	var progress *model.GoalProgress
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		progress, err = s.RecomputeInTx(ctx, tx, goalID, ownerID, "explicit")
		return err
	})
	if err != nil {
		return nil, wrapErr(err, "failed to recompute goal %d", goalID)
	}
	return progress, nil
}

// RecomputeInTx is RecomputeProgress bound to a caller's transaction.
func (s *GoalService) RecomputeInTx(ctx context.Context, tx repository.Store, goalID, ownerID int64, trigger string) (*model.GoalProgress, error) {
	goal, err := tx.Goals().FindByID(ctx, goalID, ownerID)
	if err != nil {
		return nil, notFoundAs(err, errGoalNotFound(goalID))
	}
	return s.recompute(ctx, tx, goal, trigger)
}

func (s *GoalService) recompute(ctx context.Context, tx repository.Store, goal *model.Goal, trigger string) (*model.GoalProgress, error) {
	linked, err := tx.Challenges().List(ctx, goal.OwnerID, model.ChallengeFilter{GoalID: &goal.ID})
	if err != nil {
		return nil, err
	}
	progress := &model.GoalProgress{GoalID: goal.ID, Total: len(linked)}
	if len(linked) > 0 {
		ids := make([]int64, len(linked))
		for i, c := range linked {
			ids[i] = c.ID
		}
		progress.Completed, err = tx.Events().CountGoalCompletions(ctx, goal.OwnerID, goal.ID, ids)
		if err != nil {
			return nil, err
		}
		progress.Percentage = ProgressPercentage(progress.Completed, progress.Total)
	}
	progress.IsCompleted = progress.Percentage == 100

	before := *goal
	goal.ApplyProgress(progress.Percentage, s.now())
	if goalProgressChanged(before, *goal) {
		if err := tx.Goals().Update(ctx, goal); err != nil {
			return nil, err
		}
		s.log.Debug("goal progress updated", "goal_id", goal.ID, "percentage", progress.Percentage,
			"completed", progress.Completed, "total", progress.Total, "trigger", trigger)
	}
	metrics.GoalRecomputes.WithLabelValues(trigger).Inc()
	return progress, nil
}

// ProgressPercentage is round(100*completed/total), with halves rounded up.
func ProgressPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Floor(float64(100*completed)/float64(total) + 0.5))
	if pct > 100 {
		return 100
	}
	return pct
}

func goalProgressChanged(before, after model.Goal) bool {
	return before.ProgressPercentage != after.ProgressPercentage ||
		before.IsCompleted != after.IsCompleted ||
		before.Status != after.Status ||
		(before.CompletionDate == nil) != (after.CompletionDate == nil)
}
