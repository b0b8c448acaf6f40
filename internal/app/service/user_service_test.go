package service

import (
	"encoding/json"
	"testing"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)

	u, err := f.users.UpdateProfile(f.ctx, f.userID, UpdateProfileRequest{FirstName: strp("  Augusta ")})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", u.FirstName)
	assert.Equal(t, "Lovelace", u.LastName)

	_, err = f.users.UpdateProfile(f.ctx, f.userID, UpdateProfileRequest{LastName: strp("")})
	assert.Equal(t, common.KindValidation, common.KindOf(err))

	stored, err := f.users.GetProfile(f.ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", stored.LastName)
}

func TestGetStats(t *testing.T) {
	f := newFixture(t)
	g := f.newGoal(t, "G1")
	f.newGoal(t, "G2")
	a := f.newChallenge(t, "A", &g.ID)
	_, err := f.completion.CompleteChallenge(f.ctx, a.ID, f.userID)
	require.NoError(t, err)

	stats, err := f.users.GetStats(f.ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, &model.UserStats{
		TotalGoals:          2,
		CompletedGoals:      1,
		CompletedChallenges: 1,
		TotalPoints:         int64(model.DefaultChallengePoints),
	}, stats)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	g := f.newGoal(t, "G1")
	f.newChallenge(t, "A", &g.ID)

	require.NoError(t, f.users.DeleteAccount(f.ctx, f.userID))
	_, err := f.users.GetProfile(f.ctx, f.userID)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	err = f.users.DeleteAccount(f.ctx, f.userID)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestCreateSubmission_MaxAttempts(t *testing.T) {
	f := newFixture(t)
	in := challengeInput("A", nil)
	in.MaxAttempts = intp(2)
	c, err := f.challenges.CreateChallenge(f.ctx, f.userID, in)
	require.NoError(t, err)

	payload := CreateSubmissionRequest{Payload: json.RawMessage(`{"answer":42}`)}
	for i := 0; i < 2; i++ {
		_, err := f.submission.CreateSubmission(f.ctx, c.ID, f.userID, payload)
		require.NoError(t, err)
	}
	_, err = f.submission.CreateSubmission(f.ctx, c.ID, f.userID, payload)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.Contains(t, err.Error(), "maximum attempts (2) reached")

	subs, err := f.submission.GetSubmissions(f.ctx, c.ID, f.userID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestCreateSubmission_InactiveAndForeign(t *testing.T) {
	f := newFixture(t)
	in := challengeInput("A", nil)
	in.IsActive = boolp(false)
	c, err := f.challenges.CreateChallenge(f.ctx, f.userID, in)
	require.NoError(t, err)

	_, err = f.submission.CreateSubmission(f.ctx, c.ID, f.userID, CreateSubmissionRequest{})
	assert.Equal(t, common.KindValidation, common.KindOf(err))

	other := f.newUser(t, "bob@example.com")
	_, err = f.submission.CreateSubmission(f.ctx, c.ID, other, CreateSubmissionRequest{})
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
	_, err = f.submission.GetSubmissions(f.ctx, c.ID, other)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	empty, err := f.submission.GetSubmissions(f.ctx, c.ID, f.userID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
