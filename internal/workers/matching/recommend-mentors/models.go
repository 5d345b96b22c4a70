// internal/workers/matching/recommend-mentors/models.go
package recommendmentors

import "mentor-match-workers/internal/models"

// Input mirrors models.RecommendInput as job variables.
type Input = models.RecommendInput

type Output struct {
	Context models.RecommendContext   `json:"context"`
	Mentors []models.CandidateProfile `json:"mentors"`
	Count   int                       `json:"count"`
}
