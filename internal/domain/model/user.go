package model

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"` // Not exposed
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStats is the profile summary shown on the account page.
type UserStats struct {
	TotalGoals          int   `json:"totalGoals"`
	CompletedGoals      int   `json:"completedGoals"`
	CompletedChallenges int   `json:"completedChallenges"`
	TotalPoints         int64 `json:"totalPoints"`
}
