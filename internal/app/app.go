// Package app assembles the evaluation pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingocache/internal/adjust"
	"lingocache/internal/cache"
	"lingocache/internal/config"
	"lingocache/internal/gateway"
	"lingocache/internal/repository"
	"lingocache/internal/rules"
	"lingocache/internal/selector"
	"lingocache/internal/service"
	"lingocache/internal/similarity"
	"lingocache/internal/store"
	"lingocache/internal/telemetry"
	"lingocache/internal/transport/rest"
	"lingocache/internal/transport/ws"
)

// App holds the wired service and the resources it must release
type App struct {
	Evaluations *service.EvaluationService
	Tracker     *telemetry.Tracker
	Hub         *ws.Hub
	Handler     http.Handler
	Registry    *prometheus.Registry
	Backend     string
	Provider    string

	mongo *mongo.Client
	redis *redis.Client
}

// Build connects the configured backends and wires every component
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Backend: cfg.Store.Backend}

	if cfg.NeedsMongo() {
		client, err := connectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		logger.Info("connected to MongoDB", "database", cfg.Mongo.Database)
	}
	if cfg.NeedsRedis() {
		client, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.redis = client
		logger.Info("connected to Redis", "addr", cfg.Redis.Addr)
	}

	backend, err := a.persistence(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	content, err := a.contentSource(ctx, cfg, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Hub = ws.NewHub(logger)
	sinks := []telemetry.Sink{
		telemetry.NewPrometheusSink(a.Registry),
		service.NewBroadcastSink(a.Hub),
	}
	if cfg.Telemetry.Persist && a.mongo != nil {
		sinks = append(sinks, repository.NewTelemetryRepo(a.mongo.Database(cfg.Mongo.Database)))
	}
	a.Tracker = telemetry.NewTracker(cfg.Telemetry.BufferSize, logger, sinks...)

	evaluator, err := gateway.NewEvaluator(cfg.Gateway)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Provider = evaluator.Name()
	if a.Provider == gateway.MockProvider && cfg.Gateway.Provider != gateway.MockProvider {
		logger.Warn("no API key for evaluator provider, falling back to the mock evaluator; its results are served as degraded and not cached",
			"provider", cfg.Gateway.Provider,
		)
	}
	var budget gateway.Budget
	if b := telemetry.NewBudget(cfg.Budget.UnitsPerSecond, cfg.Budget.Burst); b != nil {
		budget = b
	}
	gwOpts := gateway.DefaultOptions()
	gwOpts.SoftTimeout = cfg.Gateway.SoftTimeout()
	gwOpts.HardTimeout = cfg.Gateway.HardTimeout()
	gwOpts.MinRetryBudget = cfg.Gateway.MinRetryBudget()
	gw := gateway.New(evaluator, budget, gwOpts, logger)

	synonyms := similarity.DefaultSynonyms()
	scorer := similarity.NewCachedScorer(similarity.NewScorer(synonyms), similarity.NewCache(cfg.Similarity.CacheSize))

	a.Evaluations = service.NewEvaluationService(service.Deps{
		Exact:    store.NewExactStore(backend),
		Selector: selector.New(backend, scorer, cfg.Similarity.CandidateLimit),
		Adjuster: adjust.New(adjust.Config{
			PenaltyScale:    cfg.Scoring.PenaltyScale,
			Floor:           cfg.Scoring.Floor,
			AcceptThreshold: cfg.Scoring.AcceptThreshold,
		}),
		Templates: rules.New(nil, synonyms, rules.Config{
			Floor:           cfg.Scoring.Floor,
			AcceptThreshold: cfg.Scoring.AcceptThreshold,
		}),
		External: gw,
		Content:  content,
		Writer:   service.NewCacheWriter(backend, a.Tracker, logger),
	}, service.Options{
		Threshold:       cfg.Similarity.Threshold,
		MaxInputRunes:   cfg.Scoring.MaxInputRunes,
		AcceptThreshold: cfg.Scoring.AcceptThreshold,
	}, logger)

	var authSvc *service.AuthService
	if cfg.AuthEnabled() {
		authSvc = service.NewAuthService(cfg.Auth)
	}
	a.Handler = rest.NewRouter(&rest.Container{
		Evaluations: a.Evaluations,
		AuthService: authSvc,
		Telemetry:   a.Tracker,
		Scorer:      scorer,
		WSHub:       a.Hub,
		Metrics:     a.Registry,
		Provider:    a.Provider,
		Backend:     a.Backend,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	logger.Info("evaluation pipeline ready",
		"backend", a.Backend,
		"content", cfg.Store.Content,
		"provider", a.Provider,
		"auth", authSvc != nil,
		"budget", budget != nil,
	)
	return a, nil
}

func (a *App) persistence(ctx context.Context, cfg *config.Config) (store.Persistence, error) {
	switch cfg.Store.Backend {
	case "redis":
		return cache.NewEvaluationCache(a.redis, time.Duration(cfg.Redis.TTLHours)*time.Hour), nil
	case "mongo":
		repo := repository.NewEvaluationRepo(a.mongo.Database(cfg.Mongo.Database))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to create evaluation indexes: %w", err)
		}
		return repo, nil
	default:
		return store.NewMemory(), nil
	}
}

func (a *App) contentSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.ContentSource, error) {
	if cfg.Store.Content != "mongo" {
		return service.NewStaticContent(service.SampleContent()...), nil
	}
	repo := repository.NewContentRepo(a.mongo.Database(cfg.Mongo.Database))
	if !cfg.Store.CacheContent || a.redis == nil {
		return repo, nil
	}
	return cache.NewContentCache(a.redis, repo, logger), nil
}

// Close stops the telemetry pipeline and disconnects backends
func (a *App) Close(ctx context.Context) {
	if a.Tracker != nil {
		a.Tracker.Close(ctx)
	}
	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.mongo != nil {
		a.mongo.Disconnect(ctx)
	}
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return rdb, nil
}
