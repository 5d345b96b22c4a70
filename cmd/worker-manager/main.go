// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mentor-match-workers/internal/api"
	"mentor-match-workers/internal/common/aws"
	"mentor-match-workers/internal/common/camunda"
	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/internal/common/database"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/observability"
	"mentor-match-workers/internal/matching/lifecycle"
	"mentor-match-workers/internal/matching/ranking"
	"mentor-match-workers/internal/matching/recommend"
	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/matching/search"
	"mentor-match-workers/internal/matching/service"
	"mentor-match-workers/internal/matching/source"
	"mentor-match-workers/internal/models"

	ems "mentor-match-workers/internal/workers/matching/explain-match-score"
	rkm "mentor-match-workers/internal/workers/matching/rank-mentors"
	rcm "mentor-match-workers/internal/workers/matching/recommend-mentors"
	srm "mentor-match-workers/internal/workers/matching/search-mentors"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// backends holds the opened connections so they can be probed and closed.
type backends struct {
	pg    *database.PostgresClient
	es    *database.ElasticsearchClient
	redis *database.RedisClient
}

func (b *backends) pingers() []database.Pinger {
	deps := []database.Pinger{b.pg}
	if b.es != nil {
		deps = append(deps, b.es)
	}
	if b.redis != nil {
		deps = append(deps, b.redis)
	}
	return deps
}

func (b *backends) close(log logger.Logger) {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			log.Error("error closing redis", map[string]interface{}{"error": err})
		}
	}
	if err := b.pg.Close(); err != nil {
		log.Error("error closing postgres", map[string]interface{}{"error": err})
	}
}

func main() {
	boot := logger.New("info", "console")
	defer boot.Sync()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	serviceName := cfg.App.Name
	if serviceName == "" {
		serviceName = "mentor-match-workers"
	}
	log.Info("starting worker manager", map[string]interface{}{
		"service": serviceName,
		"version": cfg.App.Version,
		"backend": cfg.Matching.Backend,
	})

	obs := observability.New(serviceName, log)
	defer obs.Shutdown()

	ctx := context.Background()

	conns, err := openBackends(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("backend initialization failed", zap.Error(err))
	}
	defer conns.close(log)

	svc, err := buildService(ctx, cfg, conns, obs, log)
	if err != nil {
		zapLog.Fatal("matching service initialization failed", zap.Error(err))
	}

	// --- Zeebe workers ---
	var (
		zeebe   *camunda.Client
		workers *camunda.WorkerSet
	)
	if cfg.Camunda.BrokerAddress != "" {
		zeebe, err = camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		}, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		workers = camunda.NewWorkerSet(zeebe.GetClient(), log)
		registerWorkers(workers, cfg, svc, log)
		log.Info("workers registered", map[string]interface{}{"count": workers.Len()})
	} else {
		log.Warn("camunda.broker_address not set, running without job workers", nil)
	}

	// --- HTTP API, probes and metrics ---
	deps := conns.pingers()
	if zeebe != nil {
		deps = append(deps, zeebe)
	}
	server := api.NewServer(cfg.API, svc, log, api.Options{
		ServiceName:  serviceName,
		Version:      cfg.App.Version,
		DefaultLimit: cfg.Matching.DefaultLimit,
		RateLimit:    cfg.API.RateLimit,
		ProbesOnly:   !cfg.API.Enabled,
		Dependencies: deps,
	})
	go func() {
		if err := server.Start(); err != nil {
			log.Error("http server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if workers != nil {
		workers.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping http server", map[string]interface{}{"error": err})
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("error closing zeebe client", map[string]interface{}{"error": err})
		}
	}

	log.Info("worker manager stopped gracefully", nil)
}

func openBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}

	err := retryWithBackoff(func() error {
		var err error
		b.pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return b.pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)
	if err := b.pg.RegisterPoolMetrics(prometheus.DefaultRegisterer, cfg.Database.Postgres.Database); err != nil {
		log.Warn("postgres pool metrics not registered", map[string]interface{}{"error": err})
	}

	if cfg.Database.Elasticsearch.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			b.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return b.es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		if cfg.Matching.Backend == config.BackendDocument {
			created, err := b.es.EnsureIndex(ctx, cfg.Matching.CandidateIndex, database.MentorIndexMapping)
			if err != nil {
				return nil, err
			}
			log.Info("Elasticsearch connected successfully", map[string]interface{}{
				"index":        cfg.Matching.CandidateIndex,
				"indexCreated": created,
			})
		}
	}

	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			b.redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return b.redis.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			return nil, err
		}
		log.Info("Redis connected successfully", nil)
	}

	return b, nil
}

func buildService(ctx context.Context, cfg *config.Config, b *backends, obs *observability.Observability, log logger.Logger) (*service.Service, error) {
	m := cfg.Matching

	scorerOpts := []scoring.Option{scoring.WithFuzzyThreshold(m.FuzzyThreshold)}
	if m.UseAuxiliaryTables {
		tables, err := source.LoadTables(ctx, b.pg.DB)
		if err != nil {
			return nil, err
		}
		scorerOpts = append(scorerOpts, scoring.WithTables(tables))
	}
	scorer := scoring.NewScorer(scorerOpts...)

	var (
		inner    source.Source
		searcher search.Searcher
		homepage recommend.Strategy
	)
	switch m.Backend {
	case config.BackendDocument:
		inner = source.NewDocumentSource(b.es.Client, scorer, log, source.DocumentOptions{
			Index:       m.CandidateIndex,
			FetchLimit:  m.DocumentFetchLimit,
			Limit:       m.MaxResults,
			Concurrency: m.ScoringConcurrency,
		})
		searcher = search.NewDocumentSearcher(b.es.Client, m.CandidateIndex, log)
		homepage = recommend.NewDocumentPopularityStrategy(b.es.Client, m.CandidateIndex)
	default:
		inner = source.NewPostgresSource(b.pg.DB, log, source.PostgresOptions{
			Weights:            scorer.Weights(),
			UseAuxiliaryTables: m.UseAuxiliaryTables,
			Limit:              m.MaxResults,
		})
		searcher = search.NewPostgresSearcher(b.pg.DB, log)
		homepage = recommend.NewPopularityStrategy(b.pg.DB)
	}

	candidates := source.NewResilient(inner, m.Breaker, log)
	engine := ranking.NewEngine(candidates, candidates, scorer, obs, log, ranking.Options{
		Backend:       m.Backend,
		MaxResults:    m.MaxResults,
		SlowThreshold: config.GetDuration(m.SlowThreshold),
	})

	var rdb *redis.Client
	if b.redis != nil {
		rdb = b.redis.Client
	}
	needs := recommend.NewLearningNeedsStore(b.pg.DB, rdb, time.Duration(m.ProfileCacheTTL)*time.Second, log)

	dispatcher := recommend.NewDispatcher(log, m.DefaultLimit).
		Register(models.ContextHomepage, homepage).
		Register(models.ContextSearch, recommend.NewPreferenceStrategy(engine)).
		Register(models.ContextProfile, recommend.NewProfileStrategy(needs, engine, homepage, log)).
		Register(models.ContextService, recommend.NewServiceStrategy(b.pg.DB, homepage))

	var publisher aws.EventPublisher = aws.NoopPublisher{}
	if cfg.Events.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Events.Region, cfg.Events.TopicArn)
		if err != nil {
			return nil, err
		}
		publisher = sns
	}

	return service.New(service.Deps{
		Engine:      engine,
		Store:       lifecycle.NewStore(b.pg.DB, log, m.HistoryLimit),
		Searcher:    searcher,
		Recommender: dispatcher,
		Publisher:   publisher,
		Obs:         obs,
		Logger:      log,
		Timeout:     config.GetDuration(m.Timeout),
	}), nil
}

func registerWorkers(set *camunda.WorkerSet, cfg *config.Config, svc *service.Service, log logger.Logger) {
	if c := rkm.ConfigFromApp(cfg); c.Enabled {
		set.Start(rkm.TaskType, config.GetWorkerConfig(cfg, rkm.TaskType), rkm.NewHandler(c, svc, log).Handle)
	}
	if c := srm.ConfigFromApp(cfg); c.Enabled {
		set.Start(srm.TaskType, config.GetWorkerConfig(cfg, srm.TaskType), srm.NewHandler(c, svc, log).Handle)
	}
	if c := rcm.ConfigFromApp(cfg); c.Enabled {
		set.Start(rcm.TaskType, config.GetWorkerConfig(cfg, rcm.TaskType), rcm.NewHandler(c, svc, log).Handle)
	}
	if c := ems.ConfigFromApp(cfg); c.Enabled {
		set.Start(ems.TaskType, config.GetWorkerConfig(cfg, ems.TaskType), ems.NewHandler(c, svc, log).Handle)
	}
}
