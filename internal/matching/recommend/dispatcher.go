// internal/matching/recommend/dispatcher.go
package recommend

import (
	"context"
	stderrors "errors"
	"strings"

	"mentor-match-workers/internal/common/breaker"
	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/metrics"
	"mentor-match-workers/internal/common/validation"
	"mentor-match-workers/internal/models"
)

const MaxLimit = 100

// Strategy produces an ordered candidate list for one context. Limit in the
// input is already normalized when a strategy sees it.
type Strategy interface {
	Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error)

func (f StrategyFunc) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	return f(ctx, in)
}

// Ranker is the slice of the ranking engine the strategies need.
type Ranker interface {
	Rank(ctx context.Context, req models.MatchRequest) (models.MatchResult, error)
}

type Dispatcher struct {
	strategies   map[models.RecommendContext]Strategy
	defaultLimit int
	logger       logger.Logger
}

func NewDispatcher(log logger.Logger, defaultLimit int) *Dispatcher {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &Dispatcher{
		strategies:   make(map[models.RecommendContext]Strategy),
		defaultLimit: defaultLimit,
		logger:       log.WithFields(map[string]interface{}{"component": "recommend"}),
	}
}

// Register binds s to a context, replacing any earlier binding.
func (d *Dispatcher) Register(c models.RecommendContext, s Strategy) *Dispatcher {
	d.strategies[c] = s
	return d
}

func (d *Dispatcher) Contexts() []models.RecommendContext {
	out := make([]models.RecommendContext, 0, len(d.strategies))
	for c := range d.strategies {
		out = append(out, c)
	}
	return out
}

// Recommend dispatches on in.Context. Exclusions, the verified check and the
// limit are enforced here whatever the strategy returned. A data-layer failure
// or an abandoned call yields an empty list and a log line, not an error.
func (d *Dispatcher) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	if res := validation.ValidateStruct(in); res != nil {
		if res.HasErrors("context") {
			return nil, errors.NewInvalidRecommendContextError(string(in.Context))
		}
		return nil, errors.NewInputValidationFailedError(strings.Join(res.GetErrorMessages(), "; "))
	}
	strategy, ok := d.strategies[in.Context]
	if !ok {
		return nil, errors.NewInvalidRecommendContextError(string(in.Context))
	}
	if in.Limit <= 0 {
		in.Limit = d.defaultLimit
	}
	if in.Limit > MaxLimit {
		in.Limit = MaxLimit
	}

	found, err := strategy.Recommend(ctx, in)
	if err != nil {
		metrics.RecommendRequests.WithLabelValues(string(in.Context), metrics.OutcomeError).Inc()
		d.logger.Error("recommendation strategy failed", map[string]interface{}{
			"context":  in.Context,
			"callerId": in.CallerID,
			"error":    err,
		})
		if stderrors.Is(err, errors.ErrCandidateFetchFailed) || breaker.IsCallerAbort(err) {
			return []models.CandidateProfile{}, nil
		}
		return nil, err
	}

	out := finalize(found, in.ExcludeIDs, in.Limit)
	metrics.RecommendRequests.WithLabelValues(string(in.Context), metrics.Outcome(len(out), nil)).Inc()
	return out, nil
}

func finalize(found []models.CandidateProfile, exclude []string, limit int) []models.CandidateProfile {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]models.CandidateProfile, 0, min(len(found), limit))
	for _, c := range found {
		if len(out) == limit {
			break
		}
		if !c.IsVerified() {
			continue
		}
		if _, excluded := skip[c.ID]; excluded {
			continue
		}
		skip[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// candidatesOf flattens a ranking into profiles, best first.
func candidatesOf(result models.MatchResult) []models.CandidateProfile {
	out := make([]models.CandidateProfile, 0, len(result))
	for _, sc := range result {
		out = append(out, sc.Candidate)
	}
	return out
}

func excludeArg(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
