// internal/matching/recommend/profile.go
package recommend

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/models"

	json "github.com/goccy/go-json"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const learningNeedsKeyPrefix = "mentor-match:learning-needs:"

// ErrNoLearningNeeds means the caller has no stored profile.
var ErrNoLearningNeeds = stderrors.New("no learning needs on record")

// LearningNeedsStore reads a student's stored learning needs through a Redis
// read-through cache. A nil redis client disables caching.
type LearningNeedsStore struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewLearningNeedsStore(db *sql.DB, rdb *redis.Client, ttl time.Duration, log logger.Logger) *LearningNeedsStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LearningNeedsStore{
		db:     db,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "learning-needs"}),
	}
}

func cacheKey(studentID string) string {
	return learningNeedsKeyPrefix + studentID
}

// Get returns the learning needs of studentID as a match request.
func (s *LearningNeedsStore) Get(ctx context.Context, studentID string) (*models.MatchRequest, error) {
	if cached, ok := s.fromCache(ctx, studentID); ok {
		return cached, nil
	}

	var (
		req      models.MatchRequest
		unis     pq.StringArray
		majors   pq.StringArray
		langs    pq.StringArray
		services pq.StringArray
		degree   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT target_universities, target_majors, degree_level, preferred_languages, service_categories
		FROM mentee_learning_needs WHERE student_id = $1`, studentID,
	).Scan(&unis, &majors, &degree, &langs, &services)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoLearningNeeds
	}
	if err != nil {
		return nil, fmt.Errorf("load learning needs for %s: %w", studentID, err)
	}
	req.TargetUniversities = listOrNil(unis)
	req.TargetMajors = listOrNil(majors)
	req.DegreeLevel = models.DegreeLevel(degree.String)
	req.PreferredLanguages = listOrNil(langs)
	req.ServiceCategories = listOrNil(services)

	s.toCache(ctx, studentID, &req)
	return &req, nil
}

// listOrNil maps an empty array to nil, the shape a cached copy decodes to.
func listOrNil(a pq.StringArray) []string {
	if len(a) == 0 {
		return nil
	}
	return []string(a)
}

func (s *LearningNeedsStore) fromCache(ctx context.Context, studentID string) (*models.MatchRequest, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, cacheKey(studentID)).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			s.logger.Warn("learning needs cache read failed", map[string]interface{}{
				"studentId": studentID,
				"error":     err,
			})
		}
		return nil, false
	}
	var req models.MatchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, false
	}
	return &req, true
}

func (s *LearningNeedsStore) toCache(ctx context.Context, studentID string, req *models.MatchRequest) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(studentID), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("learning needs cache write failed", map[string]interface{}{
			"studentId": studentID,
			"error":     err,
		})
	}
}

// Invalidate drops the cached profile after the student edits it.
func (s *LearningNeedsStore) Invalidate(ctx context.Context, studentID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, cacheKey(studentID)).Err()
}

// ProfileStrategy ranks against the caller's stored learning needs and
// falls back when the caller is anonymous or has none.
type ProfileStrategy struct {
	needs    *LearningNeedsStore
	ranker   Ranker
	fallback Strategy
	logger   logger.Logger
}

func NewProfileStrategy(needs *LearningNeedsStore, ranker Ranker, fallback Strategy, log logger.Logger) *ProfileStrategy {
	return &ProfileStrategy{needs: needs, ranker: ranker, fallback: fallback, logger: log}
}

func (s *ProfileStrategy) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	if in.CallerID == "" {
		return s.fallback.Recommend(ctx, in)
	}
	req, err := s.needs.Get(ctx, in.CallerID)
	if err != nil {
		if !stderrors.Is(err, ErrNoLearningNeeds) {
			s.logger.Warn("learning needs unavailable, using popularity", map[string]interface{}{
				"callerId": in.CallerID,
				"error":    err,
			})
		}
		return s.fallback.Recommend(ctx, in)
	}
	result, err := s.ranker.Rank(ctx, *req)
	if err != nil {
		return nil, err
	}
	return candidatesOf(result), nil
}
