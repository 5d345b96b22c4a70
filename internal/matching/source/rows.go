// internal/matching/source/rows.go
package source

import (
	"database/sql"
	"strings"

	"mentor-match-workers/internal/models"

	"github.com/lib/pq"
)

// CandidateColumns lists the mentors columns in scan order, qualified with
// alias m.
var CandidateColumns = []string{
	"m.id",
	"m.university",
	"m.major",
	"m.degree_level",
	"m.rating",
	"m.total_sessions",
	"m.languages",
	"m.specialties",
	"m.verification_status",
	"m.graduation_year",
}

// SelectList renders CandidateColumns for a SELECT clause.
func SelectList() string {
	return strings.Join(CandidateColumns, ", ")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ScanCandidate reads CandidateColumns followed by any extra destinations.
func ScanCandidate(row rowScanner, extra ...interface{}) (models.CandidateProfile, error) {
	var (
		c          models.CandidateProfile
		university sql.NullString
		major      sql.NullString
		degree     sql.NullString
		rating     sql.NullFloat64
		sessions   sql.NullInt64
		status     sql.NullString
		gradYear   sql.NullInt64
		languages  pq.StringArray
		specs      pq.StringArray
	)

	dest := []interface{}{
		&c.ID, &university, &major, &degree, &rating, &sessions,
		&languages, &specs, &status, &gradYear,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return c, err
	}

	c.University = university.String
	c.Major = major.String
	c.DegreeLevel = models.DegreeLevel(degree.String)
	if rating.Valid {
		r := rating.Float64
		c.Rating = &r
	}
	c.TotalSessions = int(sessions.Int64)
	c.Languages = []string(languages)
	c.Specialties = []string(specs)
	c.VerificationStatus = models.VerificationStatus(status.String)
	if gradYear.Valid {
		y := int(gradYear.Int64)
		c.GraduationYear = &y
	}
	return c, nil
}

// ScanCandidates drains rows into profiles.
func ScanCandidates(rows *sql.Rows) ([]models.CandidateProfile, error) {
	defer rows.Close()
	var out []models.CandidateProfile
	for rows.Next() {
		c, err := ScanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
