// internal/matching/source/resilient.go
package source

import (
	"context"

	"mentor-match-workers/internal/common/breaker"
	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/models"
)

// Resilient guards a Source with a circuit breaker and turns every failure
// into an empty candidate list plus a log line, so a ranking call degrades to
// "no matches" instead of failing.
type Resilient struct {
	inner   Source
	breaker *breaker.Breaker[[]models.ScoredCandidate]
	logger  logger.Logger
}

func NewResilient(inner Source, cfg config.BreakerConfig, log logger.Logger) *Resilient {
	return &Resilient{
		inner:   inner,
		breaker: breaker.New[[]models.ScoredCandidate]("source-"+inner.Name(), cfg, log),
		logger:  log,
	}
}

func (r *Resilient) Name() string { return r.inner.Name() }

func (r *Resilient) FetchScoredCandidates(ctx context.Context, req models.MatchRequest) ([]models.ScoredCandidate, error) {
	result, err := r.breaker.Execute(func() ([]models.ScoredCandidate, error) {
		return r.inner.FetchScoredCandidates(ctx, req)
	})
	if err != nil {
		r.logger.Error("candidate fetch failed, returning no matches", map[string]interface{}{
			"backend":  r.inner.Name(),
			"rejected": breaker.IsRejection(err),
			"error":    err,
		})
		return []models.ScoredCandidate{}, nil
	}
	return result, nil
}

// GetCandidate delegates when the wrapped source also supports lookups.
func (r *Resilient) GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error) {
	lookup, ok := r.inner.(CandidateLookup)
	if !ok {
		return nil, ErrCandidateNotFound
	}
	return lookup.GetCandidate(ctx, id)
}
