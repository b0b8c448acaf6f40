package model

import (
	"strings"
	"time"
)

type ChallengeStatus string

const (
	ChallengeStatusTodo       ChallengeStatus = "todo"
	ChallengeStatusInProgress ChallengeStatus = "in_progress"
	ChallengeStatusCompleted  ChallengeStatus = "completed"
)

const (
	DefaultChallengePoints      = 10
	DefaultChallengeMaxAttempts = 3
)

type Challenge struct {
	ID                   int64      `json:"id"`
	CreatorID            int64      `json:"createdBy"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Instructions         string     `json:"instructions"`
	Category             *string    `json:"category,omitempty"`
	Difficulty           Difficulty `json:"difficulty"`
	EstimatedTimeMinutes *int       `json:"estimatedTimeMinutes,omitempty"`
	PointsReward         int        `json:"pointsReward"`
	MaxAttempts          int        `json:"maxAttempts"`
	IsActive             bool       `json:"isActive"`
	Tags                 []string   `json:"tags"`
	Prerequisites        []int64    `json:"prerequisites"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`

	// Derived on read.
	GoalID *int64          `json:"goalId"`
	Status ChallengeStatus `json:"status,omitempty"`
}

type ChallengeInput struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Instructions         string     `json:"instructions"`
	Category             *string    `json:"category"`
	Difficulty           string     `json:"difficulty"`
	EstimatedTimeMinutes *int       `json:"estimatedTimeMinutes"`
	PointsReward         *int       `json:"pointsReward"`
	MaxAttempts          *int       `json:"maxAttempts"`
	IsActive             *bool      `json:"isActive"`
	Tags                 []string   `json:"tags"`
	GoalID               OptionalID `json:"goalId"`
	Prerequisites        IDList     `json:"prerequisites"`
}

// ChallengePatch carries the fields a creator may change. Nil means untouched;
// GoalID set to null unlinks the challenge from its goal.
type ChallengePatch struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	Instructions         *string    `json:"instructions"`
	Category             *string    `json:"category"`
	Difficulty           *string    `json:"difficulty"`
	EstimatedTimeMinutes *int       `json:"estimatedTimeMinutes"`
	PointsReward         *int       `json:"pointsReward"`
	MaxAttempts          *int       `json:"maxAttempts"`
	IsActive             *bool      `json:"isActive"`
	Tags                 *[]string  `json:"tags"`
	GoalID               OptionalID `json:"goalId"`
	Prerequisites        *IDList    `json:"prerequisites"`
}

type ChallengeFilter struct {
	Category   string
	Difficulty Difficulty
	IsActive   *bool
	GoalID     *int64
}

// ParseChallengeDifficulty accepts any casing of Easy, Medium or Hard.
func ParseChallengeDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

// Decorate fills the fields derived from tags.
func (c *Challenge) Decorate() {
	c.GoalID = GoalIDFromTags(c.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Prerequisites == nil {
		c.Prerequisites = []int64{}
	}
}

// DeriveStatus resolves the per-user status of a challenge.
func DeriveStatus(completed, hasSubmission bool) ChallengeStatus {
	switch {
	case completed:
		return ChallengeStatusCompleted
	case hasSubmission:
		return ChallengeStatusInProgress
	}
	return ChallengeStatusTodo
}
