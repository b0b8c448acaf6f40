package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/logger"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type recordingScheduler struct {
	mu   sync.Mutex
	jobs []model.RecomputeJob
}

func (s *recordingScheduler) Schedule(ctx context.Context, job model.RecomputeJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *recordingScheduler) goalIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(s.jobs))
	for i, j := range s.jobs {
		ids[i] = j.GoalID
	}
	return ids
}

type fixture struct {
	ctx        context.Context
	store      *repository.MemoryStore
	scheduler  *recordingScheduler
	goals      *GoalService
	challenges *ChallengeService
	completion *CompletionService
	progress   *ProgressService
	users      *UserService
	submission *SubmissionService
	userID     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	log := logger.Nop()
	store := repository.NewMemoryStore().WithClock(clock)
	scheduler := &recordingScheduler{}
	goals := NewGoalService(store, log).WithClock(clock)

	f := &fixture{
		ctx:        context.Background(),
		store:      store,
		scheduler:  scheduler,
		goals:      goals,
		challenges: NewChallengeService(store, goals, scheduler, log),
		completion: NewCompletionService(store, goals, scheduler, log).WithClock(clock),
		progress:   NewProgressService(store, log).WithClock(clock),
		users:      NewUserService(store, log),
		submission: NewSubmissionService(store, log),
	}
	f.userID = f.newUser(t, "ada@example.com")
	return f
}

func (f *fixture) newUser(t *testing.T, email string) int64 {
	t.Helper()
	u := &model.User{Email: email, FirstName: "Ada", LastName: "Lovelace", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return u.ID
}

func (f *fixture) newGoal(t *testing.T, title string) *model.Goal {
	t.Helper()
	g, err := f.goals.CreateGoal(f.ctx, f.userID, model.GoalInput{Title: title})
	require.NoError(t, err)
	return g
}

func challengeInput(title string, goalID *int64, prerequisites ...int64) model.ChallengeInput {
	return model.ChallengeInput{
		Title:         title,
		Description:   title + " description",
		Instructions:  "do " + title,
		GoalID:        model.OptionalID{Set: goalID != nil, Value: goalID},
		Prerequisites: prerequisites,
	}
}

func (f *fixture) newChallenge(t *testing.T, title string, goalID *int64, prerequisites ...int64) *model.Challenge {
	t.Helper()
	c, err := f.challenges.CreateChallenge(f.ctx, f.userID, challengeInput(title, goalID, prerequisites...))
	require.NoError(t, err)
	return c
}

func (f *fixture) goal(t *testing.T, id int64) *model.Goal {
	t.Helper()
	g, err := f.goals.GetGoal(f.ctx, id, f.userID)
	require.NoError(t, err)
	return g
}

func (f *fixture) completions(t *testing.T) int {
	t.Helper()
	n, err := f.store.Events().Count(f.ctx, f.userID, model.EventChallengeCompleted)
	require.NoError(t, err)
	return n
}

func strp(s string) *string { return &s }
func intp(v int) *int { return &v }
