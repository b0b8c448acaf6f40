package model

import (
	"encoding/json"
	"time"
)

const (
	EventChallengeCompleted = "challenge_completed"
	EventChallengeStarted   = "challenge_started"
	EventGoalCreated        = "goal_created"
	EventGoalCompleted      = "goal_completed"
	EventSessionStart       = "session_start"
	EventSessionEnd         = "session_end"
	EventLessonViewed       = "lesson_viewed"
	EventMilestoneReached   = "milestone_reached"
)

// trackableEvents may be recorded by clients directly. Completions are not
// among them: they are admitted only by the completion engine.
var trackableEvents = map[string]bool{
	EventChallengeStarted: true,
	EventGoalCreated:      true,
	EventGoalCompleted:    true,
	EventSessionStart:     true,
	EventSessionEnd:       true,
	EventLessonViewed:     true,
	EventMilestoneReached: true,
}

func IsTrackableEvent(eventType string) bool {
	return trackableEvents[eventType]
}

type ProgressEvent struct {
	ID                  int64           `json:"id"`
	UserID              int64           `json:"userId"`
	EventType           string          `json:"eventType"`
	PointsEarned        int             `json:"pointsEarned"`
	RelatedGoalID       *int64          `json:"relatedGoalId,omitempty"`
	RelatedChallengeID  *int64          `json:"relatedChallengeId,omitempty"`
	RelatedSubmissionID *int64          `json:"relatedSubmissionId,omitempty"`
	SessionID           *string         `json:"sessionId,omitempty"`
	EventData           json.RawMessage `json:"eventData,omitempty"`
	OccurredAt          time.Time       `json:"timestampOccurred"`
}

// EventQuery selects a user's events. Zero values mean no constraint.
type EventQuery struct {
	EventType string
	Since     *time.Time
	Limit     int
}

type TrackEventInput struct {
	EventType           string          `json:"eventType"`
	PointsEarned        *int            `json:"pointsEarned"`
	RelatedGoalID       *int64          `json:"relatedGoalId"`
	RelatedChallengeID  *int64          `json:"relatedChallengeId"`
	RelatedSubmissionID *int64          `json:"relatedSubmissionId"`
	SessionID           *string         `json:"sessionId"`
	EventData           json.RawMessage `json:"eventData"`
	Timestamp           *FlexibleTime   `json:"timestamp"`
}
