// internal/matching/recommend/strategies.go
package recommend

import (
	"context"
	"database/sql"
	"fmt"

	"mentor-match-workers/internal/matching/source"
	"mentor-match-workers/internal/matching/similarity"
	"mentor-match-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/lib/pq"
)

// PopularityStrategy lists verified mentors by rating then session count.
type PopularityStrategy struct {
	db *sql.DB
}

func NewPopularityStrategy(db *sql.DB) *PopularityStrategy {
	return &PopularityStrategy{db: db}
}

func (s *PopularityStrategy) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM mentors m
WHERE m.verification_status = $1 AND NOT (m.id = ANY($2::text[]))
ORDER BY m.rating DESC NULLS LAST, COALESCE(m.total_sessions, 0) DESC, m.id ASC
LIMIT $3`, source.SelectList())

	rows, err := s.db.QueryContext(ctx, query, string(models.VerificationVerified), pq.Array(excludeArg(in.ExcludeIDs)), in.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: popularity: %v", source.ErrCandidateFetchFailed, err)
	}
	out, err := source.ScanCandidates(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: popularity scan: %v", source.ErrCandidateFetchFailed, err)
	}
	return out, nil
}

// DocumentPopularityStrategy is PopularityStrategy against Elasticsearch.
type DocumentPopularityStrategy struct {
	client *elasticsearch.Client
	index  string
}

func NewDocumentPopularityStrategy(client *elasticsearch.Client, index string) *DocumentPopularityStrategy {
	if index == "" {
		index = "mentors"
	}
	return &DocumentPopularityStrategy{client: client, index: index}
}

func (s *DocumentPopularityStrategy) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	body := source.VerifiedQuery(nil, in.Limit+len(in.ExcludeIDs), 0)
	if len(in.ExcludeIDs) > 0 {
		boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
		boolQuery["must_not"] = []map[string]interface{}{
			{"ids": map[string]interface{}{"values": in.ExcludeIDs}},
		}
	}
	return source.SearchCandidates(ctx, s.client, s.index, body)
}

// PreferenceStrategy ranks with the caller's preferences as a match request.
type PreferenceStrategy struct {
	ranker Ranker
}

func NewPreferenceStrategy(r Ranker) *PreferenceStrategy {
	return &PreferenceStrategy{ranker: r}
}

func (s *PreferenceStrategy) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	var req models.MatchRequest
	if in.Preferences != nil {
		req = *in.Preferences
	}
	result, err := s.ranker.Rank(ctx, req)
	if err != nil {
		return nil, err
	}
	return candidatesOf(result), nil
}

// ServiceStrategy lists mentors offering a service category, ordered by
// mentor rating then service rating. An empty category falls back.
type ServiceStrategy struct {
	db       *sql.DB
	fallback Strategy
}

func NewServiceStrategy(db *sql.DB, fallback Strategy) *ServiceStrategy {
	return &ServiceStrategy{db: db, fallback: fallback}
}

func (s *ServiceStrategy) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	category := similarity.Normalize(in.ServiceCategory)
	if category == "" {
		return s.fallback.Recommend(ctx, in)
	}

	query := fmt.Sprintf(`SELECT %s FROM mentors m
JOIN mentor_services s ON s.mentor_id = m.id
WHERE m.verification_status = $1 AND lower(btrim(s.category)) = $2 AND NOT (m.id = ANY($3::text[]))
ORDER BY m.rating DESC NULLS LAST, s.rating DESC NULLS LAST, m.id ASC
LIMIT $4`, source.SelectList())

	rows, err := s.db.QueryContext(ctx, query,
		string(models.VerificationVerified), category, pq.Array(excludeArg(in.ExcludeIDs)), in.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: service %s: %v", source.ErrCandidateFetchFailed, category, err)
	}
	out, err := source.ScanCandidates(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: service %s scan: %v", source.ErrCandidateFetchFailed, category, err)
	}
	return out, nil
}
