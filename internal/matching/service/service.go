// internal/matching/service/service.go
package service

import (
	"context"
	"time"

	"mentor-match-workers/internal/common/aws"
	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/observability"
	"mentor-match-workers/internal/matching/lifecycle"
	"mentor-match-workers/internal/matching/ranking"
	"mentor-match-workers/internal/matching/recommend"
	"mentor-match-workers/internal/matching/search"
	"mentor-match-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Service is constructed once at start-up and shared by the workers, the
// HTTP API and the CLI.
type Service struct {
	engine      *ranking.Engine
	store       *lifecycle.Store
	searcher    search.Searcher
	recommender *recommend.Dispatcher
	publisher   aws.EventPublisher
	obs         *observability.Observability
	logger      logger.Logger
	timeout     time.Duration
	now         func() time.Time
}

type Deps struct {
	Engine      *ranking.Engine
	Store       *lifecycle.Store
	Searcher    search.Searcher
	Recommender *recommend.Dispatcher
	Publisher   aws.EventPublisher
	Obs         *observability.Observability
	Logger      logger.Logger
	// Timeout bounds the create, rank and save sequence of Match.
	Timeout time.Duration
}

func New(d Deps) *Service {
	if d.Publisher == nil {
		d.Publisher = aws.NoopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}
	return &Service{
		engine:      d.Engine,
		store:       d.Store,
		searcher:    d.Searcher,
		recommender: d.Recommender,
		publisher:   d.Publisher,
		obs:         d.Obs,
		logger:      d.Logger.WithFields(map[string]interface{}{"component": "matching-service"}),
		timeout:     d.Timeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// MatchOutcome is what a caller gets back from Match.
type MatchOutcome struct {
	RequestID string             `json:"requestId"`
	Results   models.MatchResult `json:"results"`
	Saved     int                `json:"saved"`
	Persisted bool               `json:"persisted"`
}

// Match records the request, ranks candidates and persists the top rows.
// Nothing is persisted when the deadline passes before saving starts.
func (s *Service) Match(ctx context.Context, studentID string, req models.MatchRequest) (*MatchOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := s.obs.StartSpan(ctx, "mentor.match", attribute.String("studentId", studentID))
	defer span.End()

	requestID, err := s.store.CreateRequest(ctx, studentID, req)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithFields(map[string]interface{}{"requestId": requestID, "studentId": studentID})

	result, err := s.engine.Rank(ctx, req)
	if err != nil {
		log.Warn("ranking did not finish, request left pending", map[string]interface{}{"error": err})
		return nil, err
	}
	if cerr := ctx.Err(); cerr != nil {
		log.Warn("deadline passed before saving, request left pending", map[string]interface{}{"error": cerr})
		return nil, errors.NewMatchTimeoutError("save", cerr)
	}

	out := &MatchOutcome{RequestID: requestID, Results: result}
	out.Saved, err = s.store.SaveResults(ctx, requestID, studentID, result)
	if err != nil {
		log.Error("match results not fully persisted", map[string]interface{}{"error": err})
		return out, nil
	}
	out.Persisted = true

	s.publish(ctx, log, requestID, studentID, result)
	return out, nil
}

func (s *Service) publish(ctx context.Context, log logger.Logger, requestID, studentID string, result models.MatchResult) {
	event := models.MatchCompletedEvent{
		Type:        models.EventMatchCompleted,
		RequestID:   requestID,
		StudentID:   studentID,
		MentorIDs:   result.MentorIDs(),
		CompletedAt: s.now(),
	}
	if len(result) > 0 {
		event.TopScore = result[0].Score.TotalScore
	}
	if err := s.publisher.PublishMatchCompleted(ctx, event); err != nil {
		log.Warn("match completed event not published", map[string]interface{}{"error": err})
	}
}

// Rank ranks without recording a request.
func (s *Service) Rank(ctx context.Context, req models.MatchRequest) (models.MatchResult, error) {
	return s.engine.Rank(ctx, req)
}

func (s *Service) Explain(ctx context.Context, mentorID string, req models.MatchRequest) (*models.ScoredCandidate, error) {
	return s.engine.Explain(ctx, mentorID, req)
}

func (s *Service) Search(ctx context.Context, filters models.SearchFilters, page models.Page) ([]models.CandidateProfile, error) {
	if err := search.ValidateFilters(filters); err != nil {
		return nil, err
	}
	return s.searcher.Search(ctx, filters, page)
}

func (s *Service) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	return s.recommender.Recommend(ctx, in)
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (*models.MatchRequestRecord, error) {
	return s.store.GetRequest(ctx, requestID)
}

func (s *Service) History(ctx context.Context, studentID string, limit int) ([]models.MatchHistoryEntry, error) {
	return s.store.History(ctx, studentID, limit)
}

// Backend names the candidate backend behind the engine.
func (s *Service) Backend() string {
	return s.engine.Backend()
}
