package repository

import (
	"context"
	"time"

	"skillwise/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) (int64, error)
}

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	FindByID(ctx context.Context, id, ownerID int64) (*model.Goal, error)
	// ListByOwner returns goals newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Goal, error)
	ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error
	Delete(ctx context.Context, id, ownerID int64) (int64, error)
	CountCompleted(ctx context.Context, ownerID int64) (int, error)
}

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	FindByID(ctx context.Context, id, creatorID int64) (*model.Challenge, error)
	// List returns the creator's challenges newest first.
	List(ctx context.Context, creatorID int64, filter model.ChallengeFilter) ([]model.Challenge, error)
	ListByIDs(ctx context.Context, creatorID int64, ids []int64) ([]model.Challenge, error)
	Update(ctx context.Context, challenge *model.Challenge) error
	Delete(ctx context.Context, id, creatorID int64) (int64, error)
	// RemoveTag strips tag from every challenge of the creator.
	RemoveTag(ctx context.Context, creatorID int64, tag string) (int64, error)
	// RemovePrerequisite drops prerequisiteID from every prerequisite list of the creator.
	RemovePrerequisite(ctx context.Context, creatorID, prerequisiteID int64) (int64, error)
	// LockCreator blocks other transactions that lock the same creator until
	// the enclosing transaction ends. Writes that read the prerequisite graph
	// or goal tags before changing them take it first.
	LockCreator(ctx context.Context, creatorID int64) error
}

type ProgressEventRepository interface {
	Create(ctx context.Context, event *model.ProgressEvent) error
	// CreateCompletion inserts a challenge_completed event unless one already
	// exists for the same user and challenge. It reports whether a row was written.
	CreateCompletion(ctx context.Context, event *model.ProgressEvent) (bool, error)
	// CompletedChallengeIDs returns which of challengeIDs the user has completed.
	CompletedChallengeIDs(ctx context.Context, userID int64, challengeIDs []int64) (map[int64]bool, error)
	// CountGoalCompletions counts distinct challenges among challengeIDs with a
	// completion event attributed to goalID.
	CountGoalCompletions(ctx context.Context, userID, goalID int64, challengeIDs []int64) (int, error)
	// List returns events newest first.
	List(ctx context.Context, userID int64, q model.EventQuery) ([]model.ProgressEvent, error)
	SumPoints(ctx context.Context, userID int64) (int64, error)
	Count(ctx context.Context, userID int64, eventType string) (int, error)
	// ActiveDates returns the distinct UTC dates with at least one event, ascending.
	ActiveDates(ctx context.Context, userID int64) ([]time.Time, error)
	DeleteByGoal(ctx context.Context, goalID int64) (int64, error)
	DeleteByChallenge(ctx context.Context, challengeID int64) (int64, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	ListByUserAndChallenge(ctx context.Context, userID, challengeID int64) ([]model.Submission, error)
	CountByUserAndChallenge(ctx context.Context, userID, challengeID int64) (int, error)
	// ChallengesWithSubmissions returns which of challengeIDs have at least one submission by the user.
	ChallengesWithSubmissions(ctx context.Context, userID int64, challengeIDs []int64) (map[int64]bool, error)
}

// Store is the transactional boundary over all repositories.
type Store interface {
	Users() UserRepository
	Goals() GoalRepository
	Challenges() ChallengeRepository
	Events() ProgressEventRepository
	Submissions() SubmissionRepository

	// WithinTx runs fn with repositories bound to one transaction. An error
	// from fn rolls back; nil commits. Calls on a transactional Store join
	// the enclosing transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
