// internal/workers/matching/search-mentors/models.go
package searchmentors

import "mentor-match-workers/internal/models"

type Input struct {
	Filters models.SearchFilters `json:"filters"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

type Output struct {
	Mentors []models.CandidateProfile `json:"mentors"`
	Count   int                       `json:"count"`
	Limit   int                       `json:"limit"`
	Offset  int                       `json:"offset"`
}
