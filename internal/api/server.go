// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/internal/common/database"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/matching/service"
	"mentor-match-workers/internal/models"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MatchService is the part of service.Service the HTTP layer calls.
type MatchService interface {
	Match(ctx context.Context, studentID string, req models.MatchRequest) (*service.MatchOutcome, error)
	Rank(ctx context.Context, req models.MatchRequest) (models.MatchResult, error)
	Explain(ctx context.Context, mentorID string, req models.MatchRequest) (*models.ScoredCandidate, error)
	Search(ctx context.Context, filters models.SearchFilters, page models.Page) ([]models.CandidateProfile, error)
	Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error)
	GetRequest(ctx context.Context, requestID string) (*models.MatchRequestRecord, error)
	History(ctx context.Context, studentID string, limit int) ([]models.MatchHistoryEntry, error)
	Backend() string
}

type Options struct {
	ServiceName  string
	Version      string
	DefaultLimit int
	// RateLimit is requests per minute per client IP. 0 disables limiting.
	RateLimit int
	// ProbesOnly serves /health, /ready and /metrics without the /api/v1 routes.
	ProbesOnly bool
	// Dependencies are pinged by /ready.
	Dependencies []database.Pinger
	ReadyTimeout time.Duration
}

type Server struct {
	svc    MatchService
	opts   Options
	logger logger.Logger
	http   *http.Server
}

func NewServer(cfg config.APIConfig, svc MatchService, log logger.Logger, opts Options) *Server {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	s := &Server{
		svc:    svc,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "http-api"}),
	}
	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Routes(),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

// Routes builds the router. Exposed for httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	if s.opts.ProbesOnly {
		return r
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Post("/matches", s.handleMatch)
		r.Get("/matches/{requestID}", s.handleGetRequest)
		r.Get("/students/{studentID}/history", s.handleHistory)
		r.Post("/mentors/{mentorID}/explain", s.handleExplain)
		r.Post("/search", s.handleSearch)
		r.Post("/recommendations", s.handleRecommend)
	})
	return r
}

func (s *Server) Start() error {
	s.logger.Info("http api listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  chimiddleware.GetReqID(r.Context()),
		})
	})
}
