// internal/matching/search/postgres.go
package search

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/metrics"
	"mentor-match-workers/internal/matching/similarity"
	"mentor-match-workers/internal/matching/source"
	"mentor-match-workers/internal/models"

	"github.com/lib/pq"
)

type PostgresSearcher struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresSearcher(db *sql.DB, log logger.Logger) *PostgresSearcher {
	return &PostgresSearcher{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"searcher": "postgres"}),
	}
}

func (s *PostgresSearcher) Name() string { return "postgres" }

// whereBuilder collects predicates and their bind values in order.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) add(clause string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func normalizedArray(col string) string {
	return "ARRAY(SELECT lower(btrim(x)) FROM unnest(COALESCE(" + col + ", '{}'::text[])) AS x)"
}

// BuildSearchQuery renders the filtered listing for filters and page.
func BuildSearchQuery(filters models.SearchFilters, page models.Page) (string, []interface{}) {
	w := &whereBuilder{}
	w.add("m.verification_status = ?", string(models.VerificationVerified))

	if len(filters.Universities) > 0 {
		w.add("lower(btrim(m.university)) = ANY(?::text[])", pq.Array(similarity.NormalizeAll(filters.Universities)))
	}
	if len(filters.Majors) > 0 {
		w.add("lower(btrim(m.major)) = ANY(?::text[])", pq.Array(similarity.NormalizeAll(filters.Majors)))
	}
	if len(filters.DegreeLevels) > 0 {
		levels := make([]string, 0, len(filters.DegreeLevels))
		for _, d := range filters.DegreeLevels {
			levels = append(levels, string(d))
		}
		w.add("lower(btrim(m.degree_level)) = ANY(?::text[])", pq.Array(similarity.NormalizeAll(levels)))
	}
	if filters.GraduationYearMin != nil {
		w.add("m.graduation_year >= ?", *filters.GraduationYearMin)
	}
	if filters.GraduationYearMax != nil {
		w.add("m.graduation_year <= ?", *filters.GraduationYearMax)
	}
	if filters.MinRating != nil {
		w.add("m.rating >= ?", *filters.MinRating)
	}
	if filters.MinSessions != nil {
		w.add("COALESCE(m.total_sessions, 0) >= ?", *filters.MinSessions)
	}
	if len(filters.Specialties) > 0 {
		w.add(normalizedArray("m.specialties")+" && ?::text[]", pq.Array(similarity.NormalizeAll(filters.Specialties)))
	}
	if len(filters.Languages) > 0 {
		w.add(normalizedArray("m.languages")+" && ?::text[]", pq.Array(similarity.NormalizeAll(filters.Languages)))
	}

	args := append(w.args, page.Limit, page.Offset)
	query := fmt.Sprintf(`SELECT %s FROM mentors m
WHERE %s
ORDER BY m.rating DESC NULLS LAST, COALESCE(m.total_sessions, 0) DESC, m.id ASC
LIMIT $%d OFFSET $%d`,
		source.SelectList(), strings.Join(w.clauses, "\n\tAND "), len(args)-1, len(args))
	return query, args
}

func (s *PostgresSearcher) Search(ctx context.Context, filters models.SearchFilters, page models.Page) ([]models.CandidateProfile, error) {
	page = NormalizePage(page, DefaultPageLimit)
	query, args := BuildSearchQuery(filters, page)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return s.unavailable(err), nil
	}

	candidates, err := source.ScanCandidates(rows)
	if err != nil {
		return s.unavailable(err), nil
	}

	out := make([]models.CandidateProfile, 0, len(candidates))
	for _, c := range candidates {
		if c.IsVerified() {
			out = append(out, c)
		}
	}
	metrics.SearchRequests.WithLabelValues(s.Name(), metrics.Outcome(len(out), nil)).Inc()
	return out, nil
}

// unavailable logs a data-layer failure and degrades the search to no results.
func (s *PostgresSearcher) unavailable(err error) []models.CandidateProfile {
	metrics.SearchRequests.WithLabelValues(s.Name(), metrics.OutcomeError).Inc()
	s.logger.Error("mentor search failed, returning no mentors", map[string]interface{}{
		"backend": s.Name(),
		"error":   err,
	})
	return []models.CandidateProfile{}
}
