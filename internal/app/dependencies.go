package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/livvitt-quotes/internal/config"
	"github.com/noah-isme/livvitt-quotes/internal/lock"
	"github.com/noah-isme/livvitt-quotes/internal/numbering"
	"github.com/noah-isme/livvitt-quotes/internal/pipeline"
	"github.com/noah-isme/livvitt-quotes/internal/quote"
	"github.com/noah-isme/livvitt-quotes/internal/ratelimit"
	"github.com/noah-isme/livvitt-quotes/internal/store"
)

// Dependencies holds the services shared by the HTTP server and the
// command-line tools.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Redis    *redis.Client
	Store    *store.Store
	Numbers  numbering.Sequencer
	Quotes   *quote.Service
	Pipeline *pipeline.Service
	Limiter  *limiter.Limiter
}

// NewDependencies connects the configured backends and builds the services.
// Callers own the result and must Close it.
func NewDependencies(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	deps := &Dependencies{Config: cfg, Logger: logger}

	if cfg.RedisURL != "" {
		client, err := OpenRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
		if err != nil {
			return nil, err
		}
		deps.Redis = client
	}

	locker := lock.Locker{TTL: cfg.LockTTL, RetryBackoff: cfg.LockRetryBackoff}
	if deps.Redis != nil {
		locker.R = deps.Redis
	}
	kv, err := store.NewKV(store.Backend{
		Driver: cfg.StoreDriver,
		Path:   cfg.StorePath,
		Redis:  deps.Redis,
		Locker: locker,
	})
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("app: open store: %w", err)
	}
	deps.Store = store.New(kv, cfg.StorePrefix, store.WithLogger(logger.With().Str("component", "store").Logger()))
	deps.Numbers = numbering.Sequencer{Counters: deps.Store, Now: time.Now}

	deps.Quotes, err = quote.NewService(quote.ServiceConfig{
		Store:   deps.Store,
		Numbers: deps.Numbers,
		NewID:   uuid.NewString,
		Logger:  logger.With().Str("component", "quote").Logger(),
	})
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Pipeline, err = pipeline.NewService(pipeline.ServiceConfig{
		Source: deps.Store,
		Logger: logger.With().Str("component", "pipeline").Logger(),
	})
	if err != nil {
		deps.Close()
		return nil, err
	}

	if cfg.RateLimit != "" {
		deps.Limiter, err = ratelimit.New(cfg.RateLimit, deps.Redis)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("app: rate limit %q: %w", cfg.RateLimit, err)
		}
	}
	return deps, nil
}

// OpenRedis parses url, instruments the client and checks the connection.
func OpenRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("app: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("app: ping redis: %w", err)
	}
	return client, nil
}

// Close releases the Redis connection, if any.
func (d *Dependencies) Close() {
	if d == nil || d.Redis == nil {
		return
	}
	if err := d.Redis.Close(); err != nil {
		d.Logger.Error().Err(err).Msg("close redis")
	}
	d.Redis = nil
}
