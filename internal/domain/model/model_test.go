package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalTagParsing(t *testing.T) {
	assert.Equal(t, "goal:12", GoalTag(12))

	id := GoalIDFromTags([]string{"go", "goal:abc", "goal:7"})
	require.NotNil(t, id)
	assert.Equal(t, int64(7), *id)

	assert.Nil(t, GoalIDFromTags([]string{"go", "goal:"}))
	assert.Nil(t, GoalIDFromTags(nil))
}

func TestWithGoalTagReplaces(t *testing.T) {
	g := int64(3)
	assert.Equal(t, []string{"go", "goal:3"}, WithGoalTag([]string{"goal:1", "go", "goal:2"}, &g))
	assert.Equal(t, []string{"go"}, WithGoalTag([]string{"goal:1", "go"}, nil))
}

func TestNormalizeLabels(t *testing.T) {
	out := NormalizeLabels([]string{"Data Structures", "data-structures", "goal:9", "  ", "Go!"})
	assert.Equal(t, []string{"data-structures", "go"}, out)
}

func TestIDListAcceptsNumbersAndStrings(t *testing.T) {
	var in struct {
		Prereqs IDList `json:"prerequisites"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"prerequisites":[1,"2"," 3 "]}`), &in))
	assert.Equal(t, IDList{1, 2, 3}, in.Prereqs)

	assert.Error(t, json.Unmarshal([]byte(`{"prerequisites":["x"]}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"prerequisites":[1.5]}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"prerequisites":[0]}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"prerequisites":[true]}`), &in))
}

func TestOptionalIDDistinguishesNullFromAbsent(t *testing.T) {
	var p ChallengePatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &p))
	assert.False(t, p.GoalID.Set)

	p = ChallengePatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"goalId":null}`), &p))
	assert.True(t, p.GoalID.Set)
	assert.Nil(t, p.GoalID.Value)

	p = ChallengePatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"goalId":"5"}`), &p))
	require.NotNil(t, p.GoalID.Value)
	assert.Equal(t, int64(5), *p.GoalID.Value)
}

func TestFlexibleTime(t *testing.T) {
	var in struct {
		At FlexibleTime `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2025-03-04"}`), &in))
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), in.At.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"at":"2025-03-04T10:00:00+02:00"}`), &in))
	assert.Equal(t, time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC), in.At.Time)

	assert.Error(t, json.Unmarshal([]byte(`{"at":"yesterday"}`), &in))
}

func TestPrerequisiteGraphWouldCycle(t *testing.T) {
	// B requires A, C requires B.
	g := PrerequisiteGraph{1: nil, 2: {1}, 3: {2}}

	assert.True(t, g.WouldCycle(1, []int64{2}), "A requiring B closes A->B->A")
	assert.True(t, g.WouldCycle(1, []int64{3}), "A requiring C closes a transitive loop")
	assert.True(t, g.WouldCycle(2, []int64{2}), "self reference")
	assert.False(t, g.WouldCycle(3, []int64{1}))
	assert.False(t, g.WouldCycle(4, []int64{1, 2, 3}))
}

func TestApplyProgressTracksCompletionDate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	g := &Goal{Status: GoalStatusActive}

	g.ApplyProgress(50, now)
	assert.False(t, g.IsCompleted)
	assert.Nil(t, g.CompletionDate)

	g.ApplyProgress(100, now)
	assert.True(t, g.IsCompleted)
	require.NotNil(t, g.CompletionDate)
	assert.Equal(t, GoalStatusCompleted, g.Status)

	later := now.Add(time.Hour)
	g.ApplyProgress(100, later)
	assert.Equal(t, now, *g.CompletionDate, "completion date is kept while completed")

	g.ApplyProgress(66, later)
	assert.False(t, g.IsCompleted)
	assert.Nil(t, g.CompletionDate)
	assert.Equal(t, GoalStatusActive, g.Status)

	g.Status = GoalStatusPaused
	g.ApplyProgress(10, later)
	assert.Equal(t, GoalStatusPaused, g.Status)
}

func TestRecomputeJobEncoding(t *testing.T) {
	raw, err := RecomputeJob{UserID: 1, GoalID: 2, Reason: RecomputeReasonCompletion}.Encode()
	require.NoError(t, err)

	job, err := DecodeRecomputeJob(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(2), job.GoalID)
	assert.Equal(t, "lock:goal_recompute:2", job.LockKey())

	_, err = DecodeRecomputeJob(`{"userId":1}`)
	assert.Error(t, err)
}
