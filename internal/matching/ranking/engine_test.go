// internal/matching/ranking/engine_test.go
package ranking

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/matching/source"
	"mentor-match-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	result []models.ScoredCandidate
	err    error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchScoredCandidates(ctx context.Context, req models.MatchRequest) ([]models.ScoredCandidate, error) {
	return s.result, s.err
}

func ptr[T any](v T) *T { return &v }

func syntheticCandidates(n int, seed int64) []models.CandidateProfile {
	rng := rand.New(rand.NewSource(seed))
	unis := []string{"Stanford University", "MIT", "Harvard University", "UC Berkeley", "Oxford", "ETH Zurich"}
	majors := []string{"Computer Science", "Economics", "Physics", "Software Engineering", "History", "Biology"}
	degrees := []models.DegreeLevel{models.DegreeBachelor, models.DegreeMaster, models.DegreePhD}
	langs := []string{"English", "Mandarin", "Spanish", "Hindi"}

	out := make([]models.CandidateProfile, 0, n)
	for i := 0; i < n; i++ {
		c := models.CandidateProfile{
			ID:                 fmt.Sprintf("m-%04d", i),
			University:         unis[rng.Intn(len(unis))],
			Major:              majors[rng.Intn(len(majors))],
			DegreeLevel:        degrees[rng.Intn(len(degrees))],
			Rating:             ptr(float64(rng.Intn(51)) / 10),
			TotalSessions:      rng.Intn(120),
			Languages:          []string{langs[rng.Intn(len(langs))]},
			VerificationStatus: models.VerificationVerified,
		}
		// roughly 3% are exact matches on every scored field
		if i%33 == 0 {
			c.University = "Imperial College London"
			c.Major = "Data Science"
			c.DegreeLevel = models.DegreeMaster
		}
		if i%10 == 7 {
			c.VerificationStatus = models.VerificationPending
		}
		out = append(out, c)
	}
	return out
}

func TestEngine_Rank_ThousandCandidates(t *testing.T) {
	candidates := syntheticCandidates(1000, 42)
	src := source.NewStaticSource(candidates, scoring.NewScorer(), 4)
	engine := NewEngine(src, src, nil, nil, logger.NewTestLogger(t), Options{})

	req := models.MatchRequest{
		TargetUniversities: []string{"Imperial College London"},
		TargetMajors:       []string{"Data Science"},
		DegreeLevel:        models.DegreeMaster,
	}

	start := time.Now()
	result, err := engine.Rank(context.Background(), req)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.Len(t, result, 50)
	for i := 1; i < len(result); i++ {
		prev, cur := result[i-1], result[i]
		assert.GreaterOrEqual(t, prev.Score.TotalScore, cur.Score.TotalScore)
		if prev.Score.TotalScore == cur.Score.TotalScore {
			assert.GreaterOrEqual(t, prev.Candidate.RatingValue(), cur.Candidate.RatingValue())
		}
	}
	for _, sc := range result {
		assert.True(t, sc.Candidate.IsVerified())
	}
	// every exact match outranks every non-match
	assert.Equal(t, "Imperial College London", result[0].Candidate.University)
	assert.InDelta(t, 0.75, result[0].Score.UniversityMatch+result[0].Score.MajorMatch+result[0].Score.DegreeMatch, 1e-9)
}

func TestEngine_Rank_TruncatesToMaxResults(t *testing.T) {
	var scored []models.ScoredCandidate
	for i := 0; i < 80; i++ {
		scored = append(scored, models.ScoredCandidate{Candidate: models.CandidateProfile{ID: fmt.Sprint(i)}})
	}
	engine := NewEngine(&stubSource{result: scored}, nil, nil, nil, logger.NewNoOpLogger(), Options{MaxResults: 200})

	result, err := engine.Rank(context.Background(), models.MatchRequest{})
	require.NoError(t, err)
	assert.Len(t, result, 50)
}

func TestEngine_Rank_SourceErrorYieldsEmpty(t *testing.T) {
	engine := NewEngine(&stubSource{err: stderrors.New("connection reset")}, nil, nil, nil, logger.NewTestLogger(t), Options{})

	result, err := engine.Rank(context.Background(), models.MatchRequest{TargetMajors: []string{"Physics"}})
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestEngine_Rank_CancelledContext(t *testing.T) {
	engine := NewEngine(&stubSource{}, nil, nil, nil, logger.NewNoOpLogger(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Rank(ctx, models.MatchRequest{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMatchTimeout))
}

func TestEngine_Rank_EmptyRequestStillRanks(t *testing.T) {
	src := source.NewStaticSource([]models.CandidateProfile{
		{ID: "a", Rating: ptr(3.0), VerificationStatus: models.VerificationVerified},
		{ID: "b", Rating: ptr(4.5), VerificationStatus: models.VerificationVerified},
	}, nil, 0)
	engine := NewEngine(src, src, nil, nil, logger.NewNoOpLogger(), Options{})

	result, err := engine.Rank(context.Background(), models.MatchRequest{})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, []string{"b", "a"}, result.MentorIDs())
	assert.Equal(t, 0.0, result[0].Score.UniversityMatch)
}

func TestEngine_Explain(t *testing.T) {
	src := source.NewStaticSource([]models.CandidateProfile{
		{
			ID: "m-1", University: "Stanford University", Major: "Computer Science",
			DegreeLevel: models.DegreeMaster, Rating: ptr(4.8), TotalSessions: 45,
			VerificationStatus: models.VerificationVerified,
		},
	}, nil, 0)
	engine := NewEngine(src, src, nil, nil, logger.NewNoOpLogger(), Options{})

	got, err := engine.Explain(context.Background(), "m-1", models.MatchRequest{
		TargetUniversities: []string{"Stanford"},
		TargetMajors:       []string{"Software Engineering"},
		DegreeLevel:        models.DegreePhD,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.20, got.Score.UniversityMatch)
	assert.Equal(t, 0.18, got.Score.MajorMatch)
	assert.Equal(t, 0.10, got.Score.DegreeMatch)

	_, err = engine.Explain(context.Background(), "m-404", models.MatchRequest{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMentorNotFound))
}

func TestEngine_ExplainWithoutLookup(t *testing.T) {
	engine := NewEngine(&stubSource{}, nil, nil, nil, logger.NewNoOpLogger(), Options{})
	_, err := engine.Explain(context.Background(), "m-1", models.MatchRequest{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMentorNotFound))
}
