package model

import (
	"strings"
	"time"
)

type Difficulty string
type GoalStatus string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
	// DifficultyPaused is the legacy way of pausing a goal. It maps to GoalStatusPaused.
	DifficultyPaused Difficulty = "Paused"

	GoalStatusActive    GoalStatus = "active"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusArchived  GoalStatus = "archived"
)

const MaxGoalTitleLength = 255

type Goal struct {
	ID                   int64      `json:"id"`
	OwnerID              int64      `json:"userId"`
	Title                string     `json:"title"`
	Description          *string    `json:"description,omitempty"`
	Category             *string    `json:"category,omitempty"`
	Difficulty           Difficulty `json:"difficulty"`
	Status               GoalStatus `json:"status"`
	TargetCompletionDate *time.Time `json:"targetCompletionDate,omitempty"`
	IsCompleted          bool       `json:"isCompleted"`
	ProgressPercentage   int        `json:"progressPercentage"`
	PointsReward         int        `json:"pointsReward"`
	IsPublic             bool       `json:"isPublic"`
	CompletionDate       *time.Time `json:"completionDate,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

type GoalInput struct {
	Title                string        `json:"title"`
	Description          *string       `json:"description"`
	Category             *string       `json:"category"`
	Difficulty           string        `json:"difficulty"`
	TargetCompletionDate *FlexibleTime `json:"targetCompletionDate"`
	PointsReward         *int          `json:"pointsReward"`
	IsPublic             *bool         `json:"isPublic"`
}

// GoalPatch carries the fields a goal owner may change. Nil means untouched.
type GoalPatch struct {
	Title                *string       `json:"title"`
	Description          *string       `json:"description"`
	Category             *string       `json:"category"`
	Difficulty           *string       `json:"difficulty"`
	Status               *string       `json:"status"`
	TargetCompletionDate *FlexibleTime `json:"targetCompletionDate"`
	IsCompleted          *bool         `json:"isCompleted"`
	ProgressPercentage   *int          `json:"progressPercentage"`
	PointsReward         *int          `json:"pointsReward"`
	IsPublic             *bool         `json:"isPublic"`
}

// GoalProgress is the result of a recompute.
type GoalProgress struct {
	GoalID      int64 `json:"goalId"`
	Percentage  int   `json:"percentage"`
	IsCompleted bool  `json:"isCompleted"`
	Total       int   `json:"total"`
	Completed   int   `json:"completed"`
}

// ParseGoalDifficulty accepts any casing of Easy, Medium, Hard or Paused.
func ParseGoalDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	case "paused":
		return DifficultyPaused, true
	}
	return "", false
}

// ParseGoalStatus accepts the statuses an owner may set directly.
// Completed is reserved for recompute.
func ParseGoalStatus(s string) (GoalStatus, bool) {
	switch GoalStatus(strings.ToLower(strings.TrimSpace(s))) {
	case GoalStatusActive:
		return GoalStatusActive, true
	case GoalStatusPaused:
		return GoalStatusPaused, true
	case GoalStatusArchived:
		return GoalStatusArchived, true
	}
	return "", false
}

// ApplyProgress stores a recompute result on g, keeping completionDate
// non-null exactly while the goal is completed.
func (g *Goal) ApplyProgress(percentage int, now time.Time) {
	completed := percentage == 100
	switch {
	case completed && !g.IsCompleted:
		t := now
		g.CompletionDate = &t
	case !completed:
		g.CompletionDate = nil
	case g.CompletionDate == nil:
		t := now
		g.CompletionDate = &t
	}
	g.ProgressPercentage = percentage
	g.IsCompleted = completed

	switch {
	case completed:
		g.Status = GoalStatusCompleted
	case g.Status == GoalStatusCompleted || g.Status == "":
		g.Status = GoalStatusActive
	}
}
