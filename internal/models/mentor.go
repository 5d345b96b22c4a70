// internal/models/mentor.go
package models

type DegreeLevel string

const (
	DegreeBachelor DegreeLevel = "bachelor"
	DegreeMaster   DegreeLevel = "master"
	DegreePhD      DegreeLevel = "phd"
)

type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "verified"
	VerificationPending  VerificationStatus = "pending"
	VerificationRejected VerificationStatus = "rejected"
)

// CandidateProfile is a mentor as read from the candidate store. It is treated
// as an immutable snapshot for the duration of one ranking call.
type CandidateProfile struct {
	ID                 string             `json:"id"`
	University         string             `json:"university"`
	Major              string             `json:"major"`
	DegreeLevel        DegreeLevel        `json:"degreeLevel"`
	Rating             *float64           `json:"rating,omitempty"`
	TotalSessions      int                `json:"totalSessions"`
	Languages          []string           `json:"languages"`
	Specialties        []string           `json:"specialties"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	GraduationYear     *int               `json:"graduationYear,omitempty"`
}

// RatingValue returns the rating with a missing value treated as 0.
func (c CandidateProfile) RatingValue() float64 {
	if c.Rating == nil {
		return 0
	}
	return *c.Rating
}

func (c CandidateProfile) IsVerified() bool {
	return c.VerificationStatus == VerificationVerified
}
