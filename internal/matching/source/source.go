// internal/matching/source/source.go
package source

import (
	"context"
	stderrors "errors"

	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/models"
)

var (
	ErrCandidateFetchFailed = errors.ErrCandidateFetchFailed
	ErrCandidateNotFound    = stderrors.New("CANDIDATE_NOT_FOUND")
)

// DefaultLimit caps every scored candidate list.
const DefaultLimit = 50

// Source returns verified candidates already scored, sorted best first and
// truncated to the configured limit.
type Source interface {
	Name() string
	FetchScoredCandidates(ctx context.Context, req models.MatchRequest) ([]models.ScoredCandidate, error)
}

// CandidateLookup loads a single verified candidate by id.
type CandidateLookup interface {
	GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error)
}
