package service

import (
	"context"
	"encoding/json"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/logger"
)

type SubmissionService struct {
	store repository.Store
	log   *logger.Logger
}

func NewSubmissionService(store repository.Store, log *logger.Logger) *SubmissionService {
	return &SubmissionService{store: store, log: log}
}

type CreateSubmissionRequest struct {
	Payload json.RawMessage `json:"payload"`
}

// CreateSubmission records an attempt by the challenge's owner. Once
// maxAttempts submissions exist further attempts are rejected.
func (s *SubmissionService) CreateSubmission(ctx context.Context, challengeID, userID int64, req CreateSubmissionRequest) (*model.Submission, error) {
	submission := &model.Submission{
		ChallengeID: challengeID,
		UserID:      userID,
		Payload:     req.Payload,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		challenge, err := tx.Challenges().FindByID(ctx, challengeID, userID)
		if err != nil {
			return notFoundAs(err, errChallengeNotFound(challengeID))
		}
		if !challenge.IsActive {
			return common.Invalid("challenge %d is not active", challengeID)
		}
		attempts, err := tx.Submissions().CountByUserAndChallenge(ctx, userID, challengeID)
		if err != nil {
			return err
		}
		if attempts >= challenge.MaxAttempts {
			return common.Invalid("maximum attempts (%d) reached for this challenge", challenge.MaxAttempts)
		}
		return tx.Submissions().Create(ctx, submission)
	})
	if err != nil {
		return nil, wrapErr(err, "failed to create submission")
	}
	s.log.Info("submission created", "submission_id", submission.ID, "challenge_id", challengeID, "user_id", userID)
	return submission, nil
}

func (s *SubmissionService) GetSubmissions(ctx context.Context, challengeID, userID int64) ([]model.Submission, error) {
	if _, err := s.store.Challenges().FindByID(ctx, challengeID, userID); err != nil {
		return nil, wrapErr(notFoundAs(err, errChallengeNotFound(challengeID)), "failed to list submissions")
	}
	submissions, err := s.store.Submissions().ListByUserAndChallenge(ctx, userID, challengeID)
	if err != nil {
		return nil, wrapErr(err, "failed to list submissions")
	}
	if submissions == nil {
		submissions = []model.Submission{}
	}
	return submissions, nil
}
