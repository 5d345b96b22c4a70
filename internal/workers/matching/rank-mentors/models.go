// internal/workers/matching/rank-mentors/models.go
package rankmentors

import "mentor-match-workers/internal/models"

type Input struct {
	StudentID string              `json:"studentId"`
	Criteria  models.MatchRequest `json:"criteria"`
	// Persist records the request and its history. Nil uses the worker default.
	Persist *bool `json:"persist,omitempty"`
}

type Output struct {
	MatchRequestID string             `json:"matchRequestId,omitempty"`
	MatchCount     int                `json:"matchCount"`
	MentorIDs      []string           `json:"mentorIds"`
	TopScore       float64            `json:"topScore"`
	Matches        models.MatchResult `json:"matches"`
	Persisted      bool               `json:"persisted"`
}
