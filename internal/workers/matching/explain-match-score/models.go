// internal/workers/matching/explain-match-score/models.go
package explainmatchscore

import "mentor-match-workers/internal/models"

type Input struct {
	MentorID string              `json:"mentorId"`
	Criteria models.MatchRequest `json:"criteria"`
}

type Output struct {
	MentorID   string                `json:"mentorId"`
	Score      models.ScoreBreakdown `json:"score"`
	TotalScore float64               `json:"totalScore"`
}
