package model

import (
	"encoding/json"
	"time"
)

type Overview struct {
	OverallProgressPercentage int           `json:"overallProgressPercentage"`
	Totals                    OverviewTotal `json:"totals"`
	Goals                     []GoalSummary `json:"goals"`
}

type OverviewTotal struct {
	TotalPoints         int64 `json:"totalPoints"`
	CompletedChallenges int   `json:"completedChallenges"`
	CompletedGoals      int   `json:"completedGoals"`
	CurrentStreakDays   int   `json:"currentStreakDays"`
	LongestStreakDays   int   `json:"longestStreakDays"`
}

type GoalSummary struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	ProgressPercentage int    `json:"progressPercentage"`
	IsCompleted        bool   `json:"isCompleted"`
}

type ActivityItem struct {
	ID             int64           `json:"id"`
	Type           string          `json:"type"`
	Points         int             `json:"points"`
	Timestamp      time.Time       `json:"timestamp"`
	GoalID         *int64          `json:"goalId"`
	GoalTitle      *string         `json:"goalTitle"`
	ChallengeID    *int64          `json:"challengeId"`
	ChallengeTitle *string         `json:"challengeTitle"`
	Category       *string         `json:"category"`
	Data           json.RawMessage `json:"data,omitempty"`
}

type DayBucket struct {
	Date   string `json:"date"`
	Events int    `json:"events"`
	Points int    `json:"points"`
}

type Analytics struct {
	Timeframe int            `json:"timeframe"`
	Daily     []DayBucket    `json:"daily"`
	Breakdown map[string]int `json:"breakdown"`
	Totals    AnalyticsTotal `json:"totals"`
}

type AnalyticsTotal struct {
	Events int `json:"events"`
	Points int `json:"points"`
}

type SkillCount struct {
	Category  string `json:"category"`
	Completed int    `json:"completed"`
}

type Milestone struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Achieved bool   `json:"achieved"`
}

type ProgressSummary struct {
	Summary        *Overview      `json:"summary"`
	RecentActivity []ActivityItem `json:"recentActivity"`
}
