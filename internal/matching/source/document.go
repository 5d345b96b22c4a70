// internal/matching/source/document.go
package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	json "github.com/goccy/go-json"
)

// DocumentSource fetches a rating-ordered window of verified candidates from
// Elasticsearch and scores them in-process.
type DocumentSource struct {
	client      *elasticsearch.Client
	scorer      *scoring.Scorer
	logger      logger.Logger
	index       string
	fetchLimit  int
	limit       int
	concurrency int
}

type DocumentOptions struct {
	Index       string
	FetchLimit  int
	Limit       int
	Concurrency int
}

func NewDocumentSource(client *elasticsearch.Client, scorer *scoring.Scorer, log logger.Logger, opts DocumentOptions) *DocumentSource {
	if opts.Index == "" {
		opts.Index = "mentors"
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 100
	}
	if opts.Limit <= 0 || opts.Limit > DefaultLimit {
		opts.Limit = DefaultLimit
	}
	if scorer == nil {
		scorer = scoring.NewScorer()
	}
	return &DocumentSource{
		client:      client,
		scorer:      scorer,
		logger:      log.WithFields(map[string]interface{}{"source": "elasticsearch"}),
		index:       opts.Index,
		fetchLimit:  opts.FetchLimit,
		limit:       opts.Limit,
		concurrency: opts.Concurrency,
	}
}

func (s *DocumentSource) Name() string { return "elasticsearch" }

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                  `json:"_id"`
			Source models.CandidateProfile `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	Found  bool                    `json:"found"`
	Source models.CandidateProfile `json:"_source"`
}

// VerifiedQuery is the body shared by the ranking fetch and popularity
// listings: verified only, best rated first.
func VerifiedQuery(filters []map[string]interface{}, size, from int) map[string]interface{} {
	all := append([]map[string]interface{}{
		{"term": map[string]interface{}{"verificationStatus": string(models.VerificationVerified)}},
	}, filters...)
	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": all},
		},
		"sort": []map[string]interface{}{
			{"rating": map[string]interface{}{"order": "desc", "missing": "_last"}},
			{"totalSessions": map[string]interface{}{"order": "desc"}},
			{"id": map[string]interface{}{"order": "asc"}},
		},
	}
	if from > 0 {
		body["from"] = from
	}
	return body
}

// SearchCandidates runs body against index and decodes the hits. Documents
// that are not verified are dropped even if the query let them through.
func SearchCandidates(ctx context.Context, client *elasticsearch.Client, index string, body map[string]interface{}) ([]models.CandidateProfile, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(payload),
	}
	res, err := req.Do(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCandidateFetchFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: elasticsearch status %s", ErrCandidateFetchFailed, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCandidateFetchFailed, err)
	}

	out := make([]models.CandidateProfile, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		c := hit.Source
		if c.ID == "" {
			c.ID = hit.ID
		}
		if !c.IsVerified() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *DocumentSource) FetchScoredCandidates(ctx context.Context, req models.MatchRequest) ([]models.ScoredCandidate, error) {
	candidates, err := SearchCandidates(ctx, s.client, s.index, VerifiedQuery(nil, s.fetchLimit, 0))
	if err != nil {
		return nil, err
	}

	scored, err := s.scorer.ScoreMany(ctx, candidates, req, s.concurrency)
	if err != nil {
		return nil, err
	}
	scoring.SortScored(scored)
	if len(scored) > s.limit {
		scored = scored[:s.limit]
	}

	s.logger.Debug("candidates scored in-process", map[string]interface{}{
		"fetched":  len(candidates),
		"returned": len(scored),
	})
	return scored, nil
}

func (s *DocumentSource) GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error) {
	req := esapi.GetRequest{Index: s.index, DocumentID: id}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCandidateFetchFailed, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: elasticsearch status %s", ErrCandidateFetchFailed, res.Status())
	}

	var parsed getResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCandidateFetchFailed, err)
	}
	if !parsed.Found || !parsed.Source.IsVerified() {
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	c := parsed.Source
	if c.ID == "" {
		c.ID = id
	}
	return &c, nil
}
