package service

import (
	"errors"
	"sync"
	"testing"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteChallenge_GoalProgress(t *testing.T) {
	f := newFixture(t)
	g := f.newGoal(t, "G1")
	a := f.newChallenge(t, "A", &g.ID)
	b := f.newChallenge(t, "B", &g.ID)

	done, err := f.completion.CompleteChallenge(f.ctx, a.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, model.ChallengeStatusCompleted, done.Status)

	half := f.goal(t, g.ID)
	assert.Equal(t, 50, half.ProgressPercentage)
	assert.False(t, half.IsCompleted)
	assert.Nil(t, half.CompletionDate)

	_, err = f.completion.CompleteChallenge(f.ctx, b.ID, f.userID)
	require.NoError(t, err)

	full := f.goal(t, g.ID)
	assert.Equal(t, 100, full.ProgressPercentage)
	assert.True(t, full.IsCompleted)
	assert.Equal(t, model.GoalStatusCompleted, full.Status)
	require.NotNil(t, full.CompletionDate)
	assert.True(t, full.CompletionDate.Equal(fixedNow))

	points, err := f.store.Events().SumPoints(f.ctx, f.userID)
	require.NoError(t, err)
	assert.EqualValues(t, 20, points)

	assert.Equal(t, []int64{g.ID, g.ID}, f.scheduler.goalIDs()[len(f.scheduler.goalIDs())-2:])
}

func TestCompleteChallenge_PrerequisiteGating(t *testing.T) {
	f := newFixture(t)
	g := f.newGoal(t, "G1")
	a := f.newChallenge(t, "A", &g.ID)
	b := f.newChallenge(t, "B", &g.ID, a.ID)

	_, err := f.completion.CompleteChallenge(f.ctx, b.ID, f.userID)
	require.Error(t, err)
	assert.Equal(t, common.KindPrecondition, common.KindOf(err))
	var prereq *common.PrerequisiteError
	require.True(t, errors.As(err, &prereq))
	assert.Equal(t, []int64{a.ID}, prereq.Missing)
	assert.Contains(t, err.Error(), "Complete prerequisite challenge(s) first")
	assert.Zero(t, f.completions(t))

	_, err = f.completion.CompleteChallenge(f.ctx, a.ID, f.userID)
	require.NoError(t, err)
	_, err = f.completion.CompleteChallenge(f.ctx, b.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.completions(t))
}

func TestCompleteChallenge_Idempotent(t *testing.T) {
	f := newFixture(t)
	g := f.newGoal(t, "G1")
	a := f.newChallenge(t, "A", &g.ID)
	f.newChallenge(t, "B", &g.ID)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.completion.CompleteChallenge(f.ctx, a.ID, f.userID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.completions(t))
	assert.Equal(t, 50, f.goal(t, g.ID).ProgressPercentage)
	points, err := f.store.Events().SumPoints(f.ctx, f.userID)
	require.NoError(t, err)
	assert.EqualValues(t, model.DefaultChallengePoints, points)
}

func TestCompleteChallenge_NotOwnedAndUnlinked(t *testing.T) {
	f := newFixture(t)
	loose := f.newChallenge(t, "loose", nil)
	other := f.newUser(t, "bob@example.com")

	_, err := f.completion.CompleteChallenge(f.ctx, loose.ID, other)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	done, err := f.completion.CompleteChallenge(f.ctx, loose.ID, f.userID)
	require.NoError(t, err)
	assert.Nil(t, done.GoalID)
	assert.Equal(t, model.ChallengeStatusCompleted, done.Status)

	events, err := f.store.Events().List(f.ctx, f.userID, model.EventQuery{EventType: model.EventChallengeCompleted})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].RelatedGoalID)
	assert.Equal(t, loose.ID, *events[0].RelatedChallengeID)
	assert.True(t, events[0].OccurredAt.Equal(fixedNow))
}
