package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecomputeJob asks the worker to re-derive one goal's progress from committed state.
type RecomputeJob struct {
	UserID     int64     `json:"userId"`
	GoalID     int64     `json:"goalId"`
	Reason     string    `json:"reason"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

const (
	RecomputeReasonCompletion      = "challenge_completed"
	RecomputeReasonChallengeCreate = "challenge_created"
	RecomputeReasonChallengeUpdate = "challenge_updated"
	RecomputeReasonChallengeDelete = "challenge_deleted"
)

func (j RecomputeJob) Encode() (string, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeRecomputeJob(raw string) (RecomputeJob, error) {
	var j RecomputeJob
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return j, fmt.Errorf("decode recompute job: %w", err)
	}
	if j.UserID <= 0 || j.GoalID <= 0 {
		return j, fmt.Errorf("decode recompute job: missing user or goal id")
	}
	return j, nil
}

// LockKey scopes the worker lock to one goal.
func (j RecomputeJob) LockKey() string {
	return fmt.Sprintf("lock:goal_recompute:%d", j.GoalID)
}
