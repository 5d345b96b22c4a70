// internal/matching/search/document.go
package search

import (
	"context"

	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/metrics"
	"mentor-match-workers/internal/matching/similarity"
	"mentor-match-workers/internal/matching/source"
	"mentor-match-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

type DocumentSearcher struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewDocumentSearcher(client *elasticsearch.Client, index string, log logger.Logger) *DocumentSearcher {
	if index == "" {
		index = "mentors"
	}
	return &DocumentSearcher{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"searcher": "elasticsearch"}),
	}
}

func (s *DocumentSearcher) Name() string { return "elasticsearch" }

func terms(field string, values []string) map[string]interface{} {
	return map[string]interface{}{"terms": map[string]interface{}{field: similarity.NormalizeAll(values)}}
}

func rangeFilter(field string, bounds map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"range": map[string]interface{}{field: bounds}}
}

// BuildFilterClauses maps filters onto bool/filter clauses. Keyword fields
// use a lowercase normalizer, so values are normalized before matching.
func BuildFilterClauses(filters models.SearchFilters) []map[string]interface{} {
	var clauses []map[string]interface{}
	if len(filters.Universities) > 0 {
		clauses = append(clauses, terms("university", filters.Universities))
	}
	if len(filters.Majors) > 0 {
		clauses = append(clauses, terms("major", filters.Majors))
	}
	if len(filters.DegreeLevels) > 0 {
		levels := make([]string, 0, len(filters.DegreeLevels))
		for _, d := range filters.DegreeLevels {
			levels = append(levels, string(d))
		}
		clauses = append(clauses, terms("degreeLevel", levels))
	}
	if filters.GraduationYearMin != nil || filters.GraduationYearMax != nil {
		bounds := map[string]interface{}{}
		if filters.GraduationYearMin != nil {
			bounds["gte"] = *filters.GraduationYearMin
		}
		if filters.GraduationYearMax != nil {
			bounds["lte"] = *filters.GraduationYearMax
		}
		clauses = append(clauses, rangeFilter("graduationYear", bounds))
	}
	if filters.MinRating != nil {
		clauses = append(clauses, rangeFilter("rating", map[string]interface{}{"gte": *filters.MinRating}))
	}
	if filters.MinSessions != nil {
		clauses = append(clauses, rangeFilter("totalSessions", map[string]interface{}{"gte": *filters.MinSessions}))
	}
	if len(filters.Specialties) > 0 {
		clauses = append(clauses, terms("specialties", filters.Specialties))
	}
	if len(filters.Languages) > 0 {
		clauses = append(clauses, terms("languages", filters.Languages))
	}
	return clauses
}

func (s *DocumentSearcher) Search(ctx context.Context, filters models.SearchFilters, page models.Page) ([]models.CandidateProfile, error) {
	page = NormalizePage(page, DefaultPageLimit)
	body := source.VerifiedQuery(BuildFilterClauses(filters), page.Limit, page.Offset)

	out, err := source.SearchCandidates(ctx, s.client, s.index, body)
	if err != nil {
		metrics.SearchRequests.WithLabelValues(s.Name(), metrics.OutcomeError).Inc()
		s.logger.Error("mentor search failed, returning no mentors", map[string]interface{}{
			"backend": s.Name(),
			"error":   err,
		})
		return []models.CandidateProfile{}, nil
	}
	metrics.SearchRequests.WithLabelValues(s.Name(), metrics.Outcome(len(out), nil)).Inc()
	return out, nil
}
