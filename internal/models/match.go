// internal/models/match.go
package models

import "time"

// MatchRequest carries a student's target criteria. An empty field means
// "don't score on it", never "match everything".
type MatchRequest struct {
	TargetUniversities []string    `json:"targetUniversities,omitempty"`
	TargetMajors       []string    `json:"targetMajors,omitempty"`
	DegreeLevel        DegreeLevel `json:"degreeLevel,omitempty"`
	PreferredLanguages []string    `json:"preferredLanguages,omitempty"`
	ServiceCategories  []string    `json:"serviceCategories,omitempty"`
	BudgetMin          *float64    `json:"budgetMin,omitempty"`
	BudgetMax          *float64    `json:"budgetMax,omitempty"`
	Urgency            string      `json:"urgency,omitempty"`
}

// IsEmpty reports whether the request has no scored criteria at all.
func (r MatchRequest) IsEmpty() bool {
	return len(r.TargetUniversities) == 0 &&
		len(r.TargetMajors) == 0 &&
		r.DegreeLevel == "" &&
		len(r.PreferredLanguages) == 0 &&
		len(r.ServiceCategories) == 0
}

// ScoreBreakdown is the per-factor contribution for one candidate. TotalScore
// is the plain sum and is not normalized.
type ScoreBreakdown struct {
	UniversityMatch float64 `json:"universityMatch"`
	MajorMatch      float64 `json:"majorMatch"`
	DegreeMatch     float64 `json:"degreeMatch"`
	RatingScore     float64 `json:"ratingScore"`
	LanguageMatch   float64 `json:"languageMatch"`
	ExperienceBonus float64 `json:"experienceBonus"`
	SpecialtyBonus  float64 `json:"specialtyBonus"`
	TotalScore      float64 `json:"totalScore"`
}

type ScoredCandidate struct {
	Candidate CandidateProfile `json:"mentor"`
	Score     ScoreBreakdown   `json:"score"`
}

// MatchResult is ordered best first.
type MatchResult []ScoredCandidate

// Top returns at most n leading entries.
func (m MatchResult) Top(n int) MatchResult {
	if n < 0 || len(m) <= n {
		return m
	}
	return m[:n]
}

func (m MatchResult) MentorIDs() []string {
	ids := make([]string, 0, len(m))
	for _, sc := range m {
		ids = append(ids, sc.Candidate.ID)
	}
	return ids
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestCompleted RequestStatus = "completed"
)

type MatchRequestRecord struct {
	ID          string        `json:"id"`
	StudentID   string        `json:"studentId"`
	Criteria    MatchRequest  `json:"criteria"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// MatchHistoryEntry is one persisted (student, mentor, score) row.
type MatchHistoryEntry struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	StudentID string    `json:"studentId"`
	MentorID  string    `json:"mentorId"`
	Score     float64   `json:"score"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"createdAt"`
}
