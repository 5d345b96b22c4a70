// internal/matching/search/static.go
package search

import (
	"context"
	"sort"

	"mentor-match-workers/internal/matching/similarity"
	"mentor-match-workers/internal/models"
)

// StaticSearcher filters a fixed candidate snapshot in memory with the same
// predicates the database searcher pushes down.
type StaticSearcher struct {
	candidates []models.CandidateProfile
}

func NewStaticSearcher(candidates []models.CandidateProfile) *StaticSearcher {
	sorted := make([]models.CandidateProfile, 0, len(candidates))
	for _, c := range candidates {
		if c.IsVerified() {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if (a.Rating == nil) != (b.Rating == nil) {
			return a.Rating != nil
		}
		if a.RatingValue() != b.RatingValue() {
			return a.RatingValue() > b.RatingValue()
		}
		if a.TotalSessions != b.TotalSessions {
			return a.TotalSessions > b.TotalSessions
		}
		return a.ID < b.ID
	})
	return &StaticSearcher{candidates: sorted}
}

func (s *StaticSearcher) Name() string { return "static" }

func (s *StaticSearcher) Search(ctx context.Context, filters models.SearchFilters, page models.Page) ([]models.CandidateProfile, error) {
	page = NormalizePage(page, DefaultPageLimit)
	out := make([]models.CandidateProfile, 0, page.Limit)
	skipped := 0
	for _, c := range s.candidates {
		if len(out) == page.Limit {
			break
		}
		if !Matches(filters, c) {
			continue
		}
		if skipped < page.Offset {
			skipped++
			continue
		}
		out = append(out, c)
	}
	return out, ctx.Err()
}

// Matches reports whether c satisfies every supplied filter.
func Matches(f models.SearchFilters, c models.CandidateProfile) bool {
	if len(f.Universities) > 0 && !inSet(c.University, f.Universities) {
		return false
	}
	if len(f.Majors) > 0 && !inSet(c.Major, f.Majors) {
		return false
	}
	if len(f.DegreeLevels) > 0 {
		levels := make([]string, 0, len(f.DegreeLevels))
		for _, d := range f.DegreeLevels {
			levels = append(levels, string(d))
		}
		if !inSet(string(c.DegreeLevel), levels) {
			return false
		}
	}
	if f.GraduationYearMin != nil && (c.GraduationYear == nil || *c.GraduationYear < *f.GraduationYearMin) {
		return false
	}
	if f.GraduationYearMax != nil && (c.GraduationYear == nil || *c.GraduationYear > *f.GraduationYearMax) {
		return false
	}
	if f.MinRating != nil && (c.Rating == nil || *c.Rating < *f.MinRating) {
		return false
	}
	if f.MinSessions != nil && c.TotalSessions < *f.MinSessions {
		return false
	}
	if len(f.Specialties) > 0 && !overlaps(c.Specialties, f.Specialties) {
		return false
	}
	if len(f.Languages) > 0 && !overlaps(c.Languages, f.Languages) {
		return false
	}
	return true
}

func inSet(v string, set []string) bool {
	v = similarity.Normalize(v)
	for _, s := range similarity.NormalizeAll(set) {
		if s == v {
			return true
		}
	}
	return false
}

func overlaps(have, want []string) bool {
	for _, h := range have {
		if inSet(h, want) {
			return true
		}
	}
	return false
}
