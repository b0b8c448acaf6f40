package model

import (
	"encoding/json"
	"time"
)

// Submission records an attempt at a challenge. Its content is opaque here;
// only its existence and count matter.
type Submission struct {
	ID          int64           `json:"id"`
	ChallengeID int64           `json:"challengeId"`
	UserID      int64           `json:"userId"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
