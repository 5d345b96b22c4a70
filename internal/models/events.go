// internal/models/events.go
package models

import "time"

const EventMatchCompleted = "match.completed"

// MatchCompletedEvent is published once a request's results are persisted.
type MatchCompletedEvent struct {
	Type        string    `json:"type"`
	RequestID   string    `json:"requestId"`
	StudentID   string    `json:"studentId"`
	MentorIDs   []string  `json:"mentorIds"`
	TopScore    float64   `json:"topScore"`
	CompletedAt time.Time `json:"completedAt"`
}
