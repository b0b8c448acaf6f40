package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/logger"

	"golang.org/x/sync/errgroup"
)

type ChallengeService struct {
	store     repository.Store
	goals     *GoalService
	scheduler RecomputeScheduler
	log       *logger.Logger
}

func NewChallengeService(store repository.Store, goals *GoalService, scheduler RecomputeScheduler, log *logger.Logger) *ChallengeService {
	return &ChallengeService{store: store, goals: goals, scheduler: scheduler, log: log}
}

func requiredText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", common.Invalid("%s is required", field)
	}
	return value, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, creatorID int64, in model.ChallengeInput) (*model.Challenge, error) {
	c := &model.Challenge{
		CreatorID:    creatorID,
		Category:     trimmedOrNil(in.Category),
		Difficulty:   model.DifficultyMedium,
		PointsReward: model.DefaultChallengePoints,
		MaxAttempts:  model.DefaultChallengeMaxAttempts,
		IsActive:     true,
	}
	var err error
	if c.Title, err = requiredText("title", in.Title); err != nil {
		return nil, err
	}
	if c.Description, err = requiredText("description", in.Description); err != nil {
		return nil, err
	}
	if c.Instructions, err = requiredText("instructions", in.Instructions); err != nil {
		return nil, err
	}
	if in.Difficulty != "" {
		d, ok := model.ParseChallengeDifficulty(in.Difficulty)
		if !ok {
			return nil, common.Invalid("difficulty must be one of Easy, Medium, Hard")
		}
		c.Difficulty = d
	}
	if in.EstimatedTimeMinutes != nil {
		if *in.EstimatedTimeMinutes <= 0 {
			return nil, common.Invalid("estimatedTimeMinutes must be greater than zero")
		}
		c.EstimatedTimeMinutes = in.EstimatedTimeMinutes
	}
	if in.PointsReward != nil {
		if *in.PointsReward < 0 {
			return nil, common.Invalid("pointsReward must be zero or greater")
		}
		c.PointsReward = *in.PointsReward
	}
	if in.MaxAttempts != nil {
		if *in.MaxAttempts < 1 {
			return nil, common.Invalid("maxAttempts must be at least 1")
		}
		c.MaxAttempts = *in.MaxAttempts
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	goalID := in.GoalID.Value
	c.Tags = model.WithGoalTag(model.NormalizeLabels(in.Tags), goalID)
	c.Prerequisites = model.UniqueIDs(in.Prerequisites)

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Challenges().LockCreator(ctx, creatorID); err != nil {
			return err
		}
		if goalID != nil {
			if _, err := tx.Goals().FindByID(ctx, *goalID, creatorID); err != nil {
				return notFoundAs(err, errGoalNotFound(*goalID))
			}
		}
		if err := s.validatePrerequisites(ctx, tx, creatorID, 0, goalID, c.Prerequisites); err != nil {
			return err
		}
		if err := tx.Challenges().Create(ctx, c); err != nil {
			return err
		}
		return s.recomputeGoals(ctx, tx, creatorID, goalID)
	})
	if err != nil {
		return nil, wrapErr(err, "failed to create challenge")
	}

	c.Decorate()
	c.Status = model.ChallengeStatusTodo
	s.log.Info("challenge created", "challenge_id", c.ID, "user_id", creatorID, "goal_id", goalID)
	scheduleRecomputes(ctx, s.scheduler, s.log, creatorID, model.RecomputeReasonChallengeCreate, goalID)
	return c, nil
}

// validatePrerequisites checks ownership, goal cohesion and acyclicity of
// prerequisites for challengeID (0 for a challenge not yet stored).
func (s *ChallengeService) validatePrerequisites(ctx context.Context, tx repository.Store, creatorID, challengeID int64, goalID *int64, prerequisites []int64) error {
	if len(prerequisites) == 0 {
		return nil
	}
	for _, id := range prerequisites {
		if id == challengeID {
			return common.Invalid("a challenge cannot be its own prerequisite (cycle)")
		}
	}

	found, err := tx.Challenges().ListByIDs(ctx, creatorID, prerequisites)
	if err != nil {
		return err
	}
	byID := make(map[int64]model.Challenge, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	var missing, foreign []int64
	for _, id := range prerequisites {
		p, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case goalID != nil && !model.HasTag(p.Tags, model.GoalTag(*goalID)):
			foreign = append(foreign, id)
		}
	}
	if len(missing) > 0 {
		return common.Invalid("prerequisite challenge(s) not found or not owned: %s", joinIDs(missing))
	}
	if len(foreign) > 0 {
		return common.Invalid("prerequisite challenge(s) must be in the same goal: %s", joinIDs(foreign))
	}

	if challengeID == 0 {
		return nil
	}
	all, err := tx.Challenges().List(ctx, creatorID, model.ChallengeFilter{})
	if err != nil {
		return err
	}
	if model.NewPrerequisiteGraph(all).WouldCycle(challengeID, prerequisites) {
		return common.Invalid("prerequisites would create a cycle")
	}
	return nil
}

// validateDependents rejects moving challengeID to goalID while challenges in
// another goal still list it as a prerequisite.
func (s *ChallengeService) validateDependents(ctx context.Context, tx repository.Store, creatorID, challengeID int64, goalID *int64) error {
	all, err := tx.Challenges().List(ctx, creatorID, model.ChallengeFilter{})
	if err != nil {
		return err
	}
	var conflicting []int64
	for _, c := range all {
		if c.ID == challengeID || !containsID(c.Prerequisites, challengeID) {
			continue
		}
		dependentGoal := model.GoalIDFromTags(c.Tags)
		if dependentGoal != nil && (goalID == nil || *dependentGoal != *goalID) {
			conflicting = append(conflicting, c.ID)
		}
	}
	if len(conflicting) > 0 {
		return common.Invalid("challenge is a prerequisite of challenge(s) in another goal: %s", joinIDs(conflicting))
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sameGoal(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *ChallengeService) UpdateChallenge(ctx context.Context, challengeID, creatorID int64, patch model.ChallengePatch) (*model.Challenge, error) {
	var (
		c       *model.Challenge
		oldGoal *int64
		newGoal *int64
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Challenges().LockCreator(ctx, creatorID); err != nil {
			return err
		}
		var err error
		c, err = tx.Challenges().FindByID(ctx, challengeID, creatorID)
		if err != nil {
			return notFoundAs(err, errChallengeNotFound(challengeID))
		}
		oldGoal = model.GoalIDFromTags(c.Tags)
		newGoal = oldGoal

		if err := applyChallengePatch(c, patch); err != nil {
			return err
		}
		if patch.Tags != nil {
			c.Tags = model.WithGoalTag(model.NormalizeLabels(*patch.Tags), oldGoal)
		}
		if patch.GoalID.Set {
			newGoal = patch.GoalID.Value
			if newGoal != nil {
				if _, err := tx.Goals().FindByID(ctx, *newGoal, creatorID); err != nil {
					return notFoundAs(err, errGoalNotFound(*newGoal))
				}
			}
			c.Tags = model.WithGoalTag(c.Tags, newGoal)
		}
		if patch.Prerequisites != nil {
			c.Prerequisites = model.UniqueIDs(*patch.Prerequisites)
		}

		goalChanged := !sameGoal(oldGoal, newGoal)
		if patch.Prerequisites != nil || goalChanged {
			if err := s.validatePrerequisites(ctx, tx, creatorID, c.ID, newGoal, c.Prerequisites); err != nil {
				return err
			}
		}
		if goalChanged {
			if err := s.validateDependents(ctx, tx, creatorID, c.ID, newGoal); err != nil {
				return err
			}
		}

		if err := tx.Challenges().Update(ctx, c); err != nil {
			return err
		}
		return s.recomputeGoals(ctx, tx, creatorID, oldGoal, newGoal)
	})
	if err != nil {
		return nil, wrapErr(err, "failed to update challenge %d", challengeID)
	}

	if err := s.enrich(ctx, s.store, creatorID, []*model.Challenge{c}); err != nil {
		return nil, wrapErr(err, "failed to load challenge status")
	}
	scheduleRecomputes(ctx, s.scheduler, s.log, creatorID, model.RecomputeReasonChallengeUpdate, oldGoal, newGoal)
	return c, nil
}

func applyChallengePatch(c *model.Challenge, patch model.ChallengePatch) error {
	var err error
	if patch.Title != nil {
		if c.Title, err = requiredText("title", *patch.Title); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if c.Description, err = requiredText("description", *patch.Description); err != nil {
			return err
		}
	}
	if patch.Instructions != nil {
		if c.Instructions, err = requiredText("instructions", *patch.Instructions); err != nil {
			return err
		}
	}
	if patch.Category != nil {
		c.Category = trimmedOrNil(patch.Category)
	}
	if patch.Difficulty != nil {
		d, ok := model.ParseChallengeDifficulty(*patch.Difficulty)
		if !ok {
			return common.Invalid("difficulty must be one of Easy, Medium, Hard")
		}
		c.Difficulty = d
	}
	if patch.EstimatedTimeMinutes != nil {
		if *patch.EstimatedTimeMinutes <= 0 {
			return common.Invalid("estimatedTimeMinutes must be greater than zero")
		}
		c.EstimatedTimeMinutes = patch.EstimatedTimeMinutes
	}
	if patch.PointsReward != nil {
		if *patch.PointsReward < 0 {
			return common.Invalid("pointsReward must be zero or greater")
		}
		c.PointsReward = *patch.PointsReward
	}
	if patch.MaxAttempts != nil {
		if *patch.MaxAttempts < 1 {
			return common.Invalid("maxAttempts must be at least 1")
		}
		c.MaxAttempts = *patch.MaxAttempts
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
	return nil
}

// DeleteChallenge removes the challenge, every event that references it and
// its id from the creator's other prerequisite lists. Submissions cascade.
func (s *ChallengeService) DeleteChallenge(ctx context.Context, challengeID, creatorID int64) (int64, error) {
	var (
		deleted int64
		goalID  *int64
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Challenges().LockCreator(ctx, creatorID); err != nil {
			return err
		}
		c, err := tx.Challenges().FindByID(ctx, challengeID, creatorID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			return err
		}
		goalID = model.GoalIDFromTags(c.Tags)

		events, err := tx.Events().DeleteByChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		unlinked, err := tx.Challenges().RemovePrerequisite(ctx, creatorID, challengeID)
		if err != nil {
			return err
		}
		if deleted, err = tx.Challenges().Delete(ctx, challengeID, creatorID); err != nil {
			return err
		}
		s.log.Info("challenge deleted", "challenge_id", challengeID, "user_id", creatorID,
			"events_removed", events, "dependents_unlinked", unlinked)
		return s.recomputeGoals(ctx, tx, creatorID, goalID)
	})
	if err != nil {
		return 0, wrapErr(err, "failed to delete challenge %d", challengeID)
	}
	if deleted > 0 {
		scheduleRecomputes(ctx, s.scheduler, s.log, creatorID, model.RecomputeReasonChallengeDelete, goalID)
	}
	return deleted, nil
}

func (s *ChallengeService) GetChallenges(ctx context.Context, creatorID int64, filter model.ChallengeFilter) ([]model.Challenge, error) {
	challenges, err := s.store.Challenges().List(ctx, creatorID, filter)
	if err != nil {
		return nil, wrapErr(err, "failed to list challenges")
	}
	ptrs := make([]*model.Challenge, len(challenges))
	for i := range challenges {
		ptrs[i] = &challenges[i]
	}
	if err := s.enrich(ctx, s.store, creatorID, ptrs); err != nil {
		return nil, wrapErr(err, "failed to load challenge status")
	}
	return challenges, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID, creatorID int64) (*model.Challenge, error) {
	c, err := s.store.Challenges().FindByID(ctx, challengeID, creatorID)
	if err != nil {
		return nil, wrapErr(notFoundAs(err, errChallengeNotFound(challengeID)), "failed to get challenge %d", challengeID)
	}
	if err := s.enrich(ctx, s.store, creatorID, []*model.Challenge{c}); err != nil {
		return nil, wrapErr(err, "failed to load challenge status")
	}
	return c, nil
}

// enrich fills goalId and the per-user status with two bulk lookups.
func (s *ChallengeService) enrich(ctx context.Context, store repository.Store, userID int64, challenges []*model.Challenge) error {
	if len(challenges) == 0 {
		return nil
	}
	ids := make([]int64, len(challenges))
	for i, c := range challenges {
		ids[i] = c.ID
	}

	var completed, submitted map[int64]bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		completed, err = store.Events().CompletedChallengeIDs(gctx, userID, ids)
		return err
	})
	g.Go(func() error {
		var err error
		submitted, err = store.Submissions().ChallengesWithSubmissions(gctx, userID, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range challenges {
		c.Decorate()
		c.Status = model.DeriveStatus(completed[c.ID], submitted[c.ID])
	}
	return nil
}

// recomputeGoals re-derives every distinct, still existing goal in goalIDs.
func (s *ChallengeService) recomputeGoals(ctx context.Context, tx repository.Store, ownerID int64, goalIDs ...*int64) error {
	seen := make(map[int64]bool, len(goalIDs))
	for _, goalID := range goalIDs {
		if goalID == nil || seen[*goalID] {
			continue
		}
		seen[*goalID] = true
		if _, err := s.goals.RecomputeInTx(ctx, tx, *goalID, ownerID, "challenge_write"); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}
