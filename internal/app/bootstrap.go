package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/clipper"
	"github.com/bradenpan/whisk-ai-prototype/internal/config"
	"github.com/bradenpan/whisk-ai-prototype/internal/database"
	"github.com/bradenpan/whisk-ai-prototype/internal/generation"
	"github.com/bradenpan/whisk-ai-prototype/internal/llm"
	"github.com/bradenpan/whisk-ai-prototype/internal/metrics"
	"github.com/bradenpan/whisk-ai-prototype/internal/planner"
	"github.com/bradenpan/whisk-ai-prototype/internal/storage"
)

// Runtime holds every long-lived dependency built from configuration.
type Runtime struct {
	Config     *config.Config
	Logger     *zap.Logger
	Service    *Service
	Generator  *generation.Client
	Prometheus *metrics.Prometheus
	// MetricsStore is nil with the memory backend.
	MetricsStore *metrics.Store
	DB           *database.DB
	Redis        *redis.Client

	closers []func() error
}

type bootstrapOptions struct {
	invoker llm.Invoker
}

type BootstrapOption func(*bootstrapOptions)

// WithInvoker skips provider construction and uses inv for every model call.
func WithInvoker(inv llm.Invoker) BootstrapOption {
	return func(o *bootstrapOptions) { o.invoker = inv }
}

// Bootstrap wires storage, metrics, the model client and the service.
// On failure everything opened so far is closed.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...BootstrapOption) (_ *Runtime, err error) {
	var o bootstrapOptions
	for _, opt := range opts {
		opt(&o)
	}

	rt := &Runtime{Config: cfg, Logger: logger, Prometheus: metrics.NewPrometheus()}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	if cfg.Storage.Backend == config.BackendRedis || cfg.Cache.Enabled {
		url := cfg.Storage.RedisURL
		if url == "" {
			url = cfg.Cache.RedisURL
		}
		rt.Redis, err = database.NewRedisClient(ctx, url, logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, rt.Redis.Close)
	}

	if cfg.Storage.Backend != config.BackendMemory {
		rt.DB, err = database.NewDB(cfg.Storage.DatabasePath, logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, rt.DB.Close)
		rt.MetricsStore = metrics.NewStore(rt.DB.SQL, logger)
	}

	store, err := rt.newStore()
	if err != nil {
		return nil, err
	}

	invoker := o.invoker
	if invoker == nil {
		var rdb redis.Cmdable
		if rt.Redis != nil {
			rdb = rt.Redis
		}
		var closer llm.Closer
		invoker, closer, err = llm.NewFromConfig(ctx, cfg, rdb, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		rt.closers = append(rt.closers, closer.Close)
	}

	recorders := metrics.Fanout{rt.Prometheus}
	if rt.MetricsStore != nil {
		recorders = append(recorders, rt.MetricsStore)
	}
	rt.Generator = generation.New(invoker,
		generation.WithModel(cfg.LLM.Model),
		generation.WithLogger(logger),
		generation.WithRecorder(recorders),
	)

	allocator := planner.NewAllocator(rt.Generator, planner.WithLogger(logger))
	clip := clipper.NewClipper(rt.Generator,
		clipper.WithLogger(logger),
		clipper.WithPrivateNetworks(cfg.Clipper.AllowPrivateNetworks),
		clipper.WithMaxPageBytes(cfg.Clipper.MaxPageBytes),
	)

	rt.Service, err = NewService(ctx,
		storage.NewSessionRepository(store, logger),
		rt.Generator,
		allocator,
		WithImporter(clip),
		WithLogger(logger),
		WithDefaults(Defaults{
			Servings:      cfg.Planner.Servings,
			FavoriteCount: cfg.Planner.Favorites,
			MaxMinutes:    cfg.Planner.MaxMinutes,
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("runtime ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("provider", cfg.LLM.Provider),
	)
	return rt, nil
}

func (rt *Runtime) newStore() (storage.Store, error) {
	cfg := rt.Config.Storage
	switch cfg.Backend {
	case config.BackendFile:
		return storage.NewFileStore(cfg.Dir)
	case config.BackendSQLite:
		return storage.NewSQLiteStore(rt.DB.SQL), nil
	case config.BackendRedis:
		return storage.NewRedisStore(rt.Redis, cfg.KeyPrefix), nil
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// DataDir is the directory whose size is reported as disk usage.
func (rt *Runtime) DataDir() string {
	if rt.Config.Storage.Backend == config.BackendFile {
		return rt.Config.Storage.Dir
	}
	return filepath.Dir(rt.Config.Storage.DatabasePath)
}

// Close releases resources in reverse order of creation.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
