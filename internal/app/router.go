package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/livvitt-quotes/internal/common"
	"github.com/noah-isme/livvitt-quotes/internal/health"
	"github.com/noah-isme/livvitt-quotes/internal/obs"
	"github.com/noah-isme/livvitt-quotes/internal/pipeline"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/quote"
	"github.com/noah-isme/livvitt-quotes/internal/ratelimit"
	"github.com/noah-isme/livvitt-quotes/internal/render"
	"github.com/noah-isme/livvitt-quotes/internal/security"
)

// RouterOptions toggles the observability middleware.
type RouterOptions struct {
	HTTPMetrics *obs.HTTPMetrics
	Tracing     bool
	Metrics     bool
}

// NewRouter mounts every endpoint of the service.
func NewRouter(deps *Dependencies, opts RouterOptions) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if opts.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Probes:  map[string]health.Pinger{"store": deps.Store},
		Timeout: cfg.ReadyTimeout,
	}
	if deps.Redis != nil {
		rdb := deps.Redis
		healthHandler.Probes["redis"] = health.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	idem := common.Idem{TTL: cfg.IdempotencyTTL, Prefix: cfg.StorePrefix}
	if deps.Redis != nil {
		idem.R = deps.Redis
	}
	limit := ratelimit.Handler{
		Key:     common.ClientIP,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}
	if deps.Limiter != nil {
		limit.Limiter = deps.Limiter
	}

	quoteHandler := quote.NewHandler(quote.HandlerConfig{
		Service: deps.Quotes,
		Money:   render.NewFormatter(cfg.CurrencyCode),
		Company: render.Company{
			Name:    cfg.Company.Name,
			Address: cfg.Company.Address,
			Email:   cfg.Company.Email,
			Phone:   cfg.Company.Phone,
		},
	})
	pipelineHandler := pipeline.NewHandler(deps.Pipeline)
	priceBookHandler := pricebook.NewHandler(deps.Store, logger.With().Str("component", "pricebook").Logger())

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limit.Middleware)
		v.Use(security.BodyLimit{Max: cfg.HTTPBodyLimitBytes}.Middleware)
		quoteHandler.Routes(v, idem.Middleware)
		pipelineHandler.Routes(v)
		priceBookHandler.Routes(v)
	})

	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
