// internal/matching/source/static.go
package source

import (
	"context"
	"fmt"
	"os"

	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/models"

	json "github.com/goccy/go-json"
)

// StaticSource scores a fixed candidate snapshot in-process. matchctl uses
// it to rank an exported candidate file without a database.
type StaticSource struct {
	candidates  []models.CandidateProfile
	byID        map[string]int
	scorer      *scoring.Scorer
	limit       int
	concurrency int
}

func NewStaticSource(candidates []models.CandidateProfile, scorer *scoring.Scorer, concurrency int) *StaticSource {
	if scorer == nil {
		scorer = scoring.NewScorer()
	}
	verified := make([]models.CandidateProfile, 0, len(candidates))
	byID := make(map[string]int, len(candidates))
	for _, c := range candidates {
		if !c.IsVerified() {
			continue
		}
		byID[c.ID] = len(verified)
		verified = append(verified, c)
	}
	return &StaticSource{
		candidates:  verified,
		byID:        byID,
		scorer:      scorer,
		limit:       DefaultLimit,
		concurrency: concurrency,
	}
}

// LoadCandidatesFile reads a JSON array of candidate profiles.
func LoadCandidatesFile(path string) ([]models.CandidateProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []models.CandidateProfile
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) FetchScoredCandidates(ctx context.Context, req models.MatchRequest) ([]models.ScoredCandidate, error) {
	scored, err := s.scorer.ScoreMany(ctx, s.candidates, req, s.concurrency)
	if err != nil {
		return nil, err
	}
	scoring.SortScored(scored)
	if len(scored) > s.limit {
		scored = scored[:s.limit]
	}
	return scored, nil
}

func (s *StaticSource) GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	c := s.candidates[i]
	return &c, nil
}
