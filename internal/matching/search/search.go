// internal/matching/search/search.go
package search

import (
	"context"
	"fmt"
	"strings"

	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/validation"
	"mentor-match-workers/internal/models"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Searcher applies hard filters only. A candidate either satisfies every
// supplied filter or is excluded, and only verified mentors are returned.
type Searcher interface {
	Name() string
	Search(ctx context.Context, filters models.SearchFilters, page models.Page) ([]models.CandidateProfile, error)
}

// NormalizePage fills a zero limit with defaultLimit and clamps the rest.
func NormalizePage(page models.Page, defaultLimit int) models.Page {
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageLimit
	}
	if page.Limit <= 0 {
		page.Limit = defaultLimit
	}
	if page.Limit > MaxPageLimit {
		page.Limit = MaxPageLimit
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page
}

// ValidateFilters checks struct tags and the graduation year window.
func ValidateFilters(filters models.SearchFilters) error {
	var problems []string
	if res := validation.ValidateStruct(filters); res != nil {
		problems = append(problems, res.GetErrorMessages()...)
	}
	if filters.GraduationYearMin != nil && filters.GraduationYearMax != nil &&
		*filters.GraduationYearMin > *filters.GraduationYearMax {
		problems = append(problems, fmt.Sprintf("graduationYearMin: %d is after graduationYearMax %d",
			*filters.GraduationYearMin, *filters.GraduationYearMax))
	}
	if len(problems) > 0 {
		return errors.NewInvalidSearchFiltersError(strings.Join(problems, "; "))
	}
	return nil
}
