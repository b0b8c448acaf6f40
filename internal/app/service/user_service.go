package service

import (
	"context"

	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/logger"

	"golang.org/x/sync/errgroup"
)

type UserService struct {
	store repository.Store
	log   *logger.Logger
}

func NewUserService(store repository.Store, log *logger.Logger) *UserService {
	return &UserService{store: store, log: log}
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, wrapErr(err, "failed to get user %d", userID)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*model.User, error) {
	var user *model.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		user, err = tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if req.FirstName != nil {
			if user.FirstName, err = validateName("firstName", *req.FirstName); err != nil {
				return err
			}
		}
		if req.LastName != nil {
			if user.LastName, err = validateName("lastName", *req.LastName); err != nil {
				return err
			}
		}
		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, wrapErr(err, "failed to update user %d", userID)
	}
	return user, nil
}

// DeleteAccount removes the user; goals, challenges, events and submissions
// cascade with it.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	n, err := s.store.Users().Delete(ctx, userID)
	if err != nil {
		return wrapErr(err, "failed to delete user %d", userID)
	}
	if n == 0 {
		return wrapErr(errUserNotFound(userID), "failed to delete user %d", userID)
	}
	s.log.Info("user deleted", "user_id", userID)
	return nil
}

func (s *UserService) GetStats(ctx context.Context, userID int64) (*model.UserStats, error) {
	stats := &model.UserStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		goals, err := s.store.Goals().ListByOwner(gctx, userID)
		if err != nil {
			return err
		}
		stats.TotalGoals = len(goals)
		return nil
	})
	g.Go(func() error {
		var err error
		stats.CompletedGoals, err = s.store.Goals().CountCompleted(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		stats.CompletedChallenges, err = s.store.Events().Count(gctx, userID, model.EventChallengeCompleted)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalPoints, err = s.store.Events().SumPoints(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapErr(err, "failed to load stats for user %d", userID)
	}
	return stats, nil
}
