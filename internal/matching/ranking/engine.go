// internal/matching/ranking/engine.go
package ranking

import (
	"context"
	stderrors "errors"
	"time"

	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/metrics"
	"mentor-match-workers/internal/common/observability"
	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/matching/source"
	"mentor-match-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Engine is the single entry point for "recommend mentors for me". It hides
// which backend produced the scores.
type Engine struct {
	source        source.Source
	lookup        source.CandidateLookup
	scorer        *scoring.Scorer
	obs           *observability.Observability
	logger        logger.Logger
	backend       string
	maxResults    int
	slowThreshold time.Duration
}

type Options struct {
	Backend       string
	MaxResults    int
	SlowThreshold time.Duration
}

func NewEngine(src source.Source, lookup source.CandidateLookup, scorer *scoring.Scorer, obs *observability.Observability, log logger.Logger, opts Options) *Engine {
	if opts.MaxResults <= 0 || opts.MaxResults > source.DefaultLimit {
		opts.MaxResults = source.DefaultLimit
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = 500 * time.Millisecond
	}
	if opts.Backend == "" {
		opts.Backend = src.Name()
	}
	if scorer == nil {
		scorer = scoring.NewScorer()
	}
	return &Engine{
		source:        src,
		lookup:        lookup,
		scorer:        scorer,
		obs:           obs,
		logger:        log.WithFields(map[string]interface{}{"component": "ranking"}),
		backend:       opts.Backend,
		maxResults:    opts.MaxResults,
		slowThreshold: opts.SlowThreshold,
	}
}

func (e *Engine) Backend() string { return e.backend }

// Rank returns at most MaxResults candidates, best first. Backend failures
// yield an empty result; only cancellation of ctx is reported as an error.
func (e *Engine) Rank(ctx context.Context, req models.MatchRequest) (models.MatchResult, error) {
	ctx, span := e.obs.StartSpan(ctx, "mentor.rank", attribute.String("backend", e.backend))
	defer span.End()
	start := time.Now()

	scored, err := e.source.FetchScoredCandidates(ctx, req)
	if cerr := ctx.Err(); cerr != nil {
		span.SetStatus(codes.Error, cerr.Error())
		e.record(ctx, 0, cerr, start)
		return nil, errors.NewMatchTimeoutError("rank", cerr)
	}
	if err != nil {
		e.logger.Error("candidate source failed", map[string]interface{}{
			"backend": e.backend,
			"error":   err,
		})
		span.RecordError(err)
		scored = nil
	}

	result := models.MatchResult(scored)
	if result == nil {
		result = models.MatchResult{}
	}
	result = result.Top(e.maxResults)

	span.SetAttributes(attribute.Int("results", len(result)))
	e.record(ctx, len(result), nil, start)
	return result, nil
}

func (e *Engine) record(ctx context.Context, n int, err error, start time.Time) {
	elapsed := time.Since(start)
	outcome := metrics.Outcome(n, err)

	metrics.RankRequests.WithLabelValues(e.backend, outcome).Inc()
	metrics.RankDuration.WithLabelValues(e.backend).Observe(elapsed.Seconds())
	metrics.CandidatesScored.WithLabelValues(e.backend).Add(float64(n))
	e.obs.RecordRanking(ctx, e.backend, outcome, n, elapsed)

	if elapsed > e.slowThreshold {
		e.logger.Warn("slow ranking", map[string]interface{}{
			"backend":    e.backend,
			"durationMs": elapsed.Milliseconds(),
			"results":    n,
		})
	}
}

// Explain scores one verified candidate against req with the in-process
// scorer.
func (e *Engine) Explain(ctx context.Context, candidateID string, req models.MatchRequest) (*models.ScoredCandidate, error) {
	ctx, span := e.obs.StartSpan(ctx, "mentor.explain", attribute.String("candidateId", candidateID))
	defer span.End()

	if e.lookup == nil {
		return nil, errors.NewMentorNotFoundError(candidateID)
	}
	c, err := e.lookup.GetCandidate(ctx, candidateID)
	if err != nil {
		if stderrors.Is(err, source.ErrCandidateNotFound) {
			return nil, errors.NewMentorNotFoundError(candidateID)
		}
		span.RecordError(err)
		return nil, errors.NewCandidateFetchFailedError(e.backend, err)
	}
	if !c.IsVerified() {
		return nil, errors.NewMentorNotFoundError(candidateID)
	}

	return &models.ScoredCandidate{Candidate: *c, Score: e.scorer.Score(*c, req)}, nil
}
