package main

import (
	"context"
	"fmt"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/db"
	"github.com/jonathan/job-matcher/internal/db/mongostore"
	"github.com/jonathan/job-matcher/internal/fetch"
	"github.com/jonathan/job-matcher/internal/hotjobs"
	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/platforms"
	"github.com/jonathan/job-matcher/internal/query"
	"github.com/jonathan/job-matcher/internal/scoring"
	"go.uber.org/zap"
)

// jobStore is a store backend that can also create its indexes.
type jobStore interface {
	query.Store
	EnsureIndexes(ctx context.Context) error
}

// app holds the wired service and the resources to release on exit.
type app struct {
	svc     *pipeline.Service
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openStore connects the configured job store. It returns nil when the
// driver is "none".
func openStore(ctx context.Context, cfg config.StoreConfig) (jobStore, func(), error) {
	switch cfg.Driver {
	case config.StorePostgres:
		pg, err := db.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pg.WithTable(cfg.Postgres.Table), pg.Close, nil
	case config.StoreMongo:
		m, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close(context.Background()) }, nil
	default:
		return nil, func() {}, nil
	}
}

// buildRouter registers the configured live sources in merge order:
// Greenhouse, Lever, then feeds as listed.
func buildRouter(cfg config.Config, log *zap.Logger) (*platforms.Router, error) {
	limiter := fetch.NewHostLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst)
	client := fetch.NewClient(cfg.Fetch.Options(), limiter)

	var adapters []platforms.Adapter
	if len(cfg.Adapters.Greenhouse.Boards) > 0 {
		adapters = append(adapters, platforms.NewGreenhouse(cfg.Adapters.Greenhouse.BaseURL, cfg.Adapters.Greenhouse.Boards, client, log))
	}
	if len(cfg.Adapters.Lever.Boards) > 0 {
		adapters = append(adapters, platforms.NewLever(cfg.Adapters.Lever.BaseURL, cfg.Adapters.Lever.Boards, client, log))
	}
	for _, f := range cfg.Adapters.Feeds {
		adapters = append(adapters, platforms.NewFeed(f, client))
	}
	return platforms.NewRouter(cfg.Adapters.Options(), log, adapters...)
}

// buildApp wires every collaborator of the search pipeline from cfg.
func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger, onProgress pipeline.ProgressCallback) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var model llm.Client
	if cfg.LLM.APIKey == "" {
		log.Warn("no llm api key configured, every job will receive fallback scores")
	} else {
		c, err := llm.NewClient(ctx, cfg.LLM.ModelConfig(), cfg.LLM.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		model = llm.NewBreakerClient(c, cfg.LLM.BreakerOpenFor)
	}

	router, err := buildRouter(*cfg, log.Named("platforms"))
	if err != nil {
		return nil, fmt.Errorf("failed to register job sources: %w", err)
	}

	deps := pipeline.Deps{
		Classifier: hotjobs.NewClassifier(cfg.HotJobs),
		Fetcher:    router,
		Scorer:     scoring.NewScorer(model, log.Named("scoring"), cfg.Scoring.Concurrency),
		Logger:     log.Named("pipeline"),
		Timeout:    cfg.Pipeline.Timeout,
		OnProgress: onProgress,
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}
	a.closers = append(a.closers, closeStore)
	if store != nil {
		exec := query.NewExecutor(store, log.Named("query"))
		deps.Expander = hotjobs.NewExpander(model, exec, log.Named("hotjobs"))
	}

	switch cfg.Cache.Backend {
	case config.CacheMemory:
		deps.Cache = cache.NewMemory[pipeline.Snapshot]()
	case config.CacheRedis:
		rc, err := cache.DialRedis(ctx, cfg.Cache.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		deps.Cache = cache.NewRedis[pipeline.Snapshot](rc, cfg.Cache.Redis.Prefix, log.Named("cache"))
	}

	svc, err := pipeline.New(deps)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	ok = true

	log.Info("pipeline ready",
		zap.Strings("sources", router.Names()),
		zap.String("store", cfg.Store.Driver),
		zap.String("cache", cfg.Cache.Backend))
	return a, nil
}
