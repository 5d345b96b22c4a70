// internal/matching/source/resilient_test.go
package source

import (
	"context"
	"errors"
	"testing"

	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name   string
	result []models.ScoredCandidate
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchScoredCandidates(ctx context.Context, req models.MatchRequest) ([]models.ScoredCandidate, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.result, s.err
}

func breakerConfig() config.BreakerConfig {
	return config.BreakerConfig{MaxRequests: 1, Interval: 60, Timeout: 60, FailureRatio: 0.5, MinRequests: 2}
}

func TestResilient_PassesResultsThrough(t *testing.T) {
	inner := &stubSource{name: "stub-ok", result: []models.ScoredCandidate{{Candidate: models.CandidateProfile{ID: "m-1"}}}}
	r := NewResilient(inner, breakerConfig(), logger.NewTestLogger(t))

	got, err := r.FetchScoredCandidates(context.Background(), models.MatchRequest{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestResilient_ErrorBecomesEmptyList(t *testing.T) {
	inner := &stubSource{name: "stub-fail", err: errors.New("connection refused")}
	r := NewResilient(inner, breakerConfig(), logger.NewTestLogger(t))

	got, err := r.FetchScoredCandidates(context.Background(), models.MatchRequest{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResilient_OpenBreakerSkipsBackend(t *testing.T) {
	inner := &stubSource{name: "stub-open", err: errors.New("timeout")}
	r := NewResilient(inner, breakerConfig(), logger.NewNoOpLogger())

	for i := 0; i < 5; i++ {
		got, err := r.FetchScoredCandidates(context.Background(), models.MatchRequest{})
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestResilient_CallerCancellationDoesNotOpenBreaker(t *testing.T) {
	inner := &stubSource{name: "stub-cancel", result: []models.ScoredCandidate{{Candidate: models.CandidateProfile{ID: "m-1"}}}}
	r := NewResilient(inner, breakerConfig(), logger.NewNoOpLogger())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 10; i++ {
		got, err := r.FetchScoredCandidates(cancelled, models.MatchRequest{})
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	got, err := r.FetchScoredCandidates(context.Background(), models.MatchRequest{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m-1", got[0].Candidate.ID)
	assert.Equal(t, 11, inner.calls)
}

func TestResilient_LookupRequiresCapableSource(t *testing.T) {
	r := NewResilient(&stubSource{name: "stub-lookup"}, breakerConfig(), logger.NewNoOpLogger())
	_, err := r.GetCandidate(context.Background(), "m-1")
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}
