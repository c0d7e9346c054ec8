package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/soufiangit/supplementer.ai/internal/cache"
	"github.com/soufiangit/supplementer.ai/internal/catalog"
	"github.com/soufiangit/supplementer.ai/internal/config"
	"github.com/soufiangit/supplementer.ai/internal/database"
	"github.com/soufiangit/supplementer.ai/internal/generator"
	"github.com/soufiangit/supplementer.ai/internal/history"
	"github.com/soufiangit/supplementer.ai/internal/httpapi"
	"github.com/soufiangit/supplementer.ai/internal/httpapi/handlers"
	httpmiddleware "github.com/soufiangit/supplementer.ai/internal/httpapi/middleware"
	"github.com/soufiangit/supplementer.ai/internal/metrics"
	"github.com/soufiangit/supplementer.ai/internal/services/recommend"
	"go.uber.org/zap"
)

// App wires core dependencies and exposes server lifecycle controls.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	httpServer *http.Server
}

// New constructs the application. PostgreSQL and Redis are optional; the
// features that depend on them are disabled when they are not configured.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	supplements, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", zap.String("path", cfg.Catalog.Path), zap.Int("supplements", supplements.Len()))

	gen, err := generator.New(cfg.LLM)
	if err != nil {
		return nil, err
	}
	logger.Info("language model configured", zap.String("provider", gen.Name()))

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool != nil && cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	redisClient, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	m := metrics.New()
	deps := recommend.Dependencies{
		Catalog:   supplements,
		Generator: gen,
		Observer:  m,
		Logger:    logger,
	}

	var (
		historyLister handlers.HistoryLister
		rateLimit     func(http.Handler) http.Handler
	)
	if pool != nil {
		recorder := history.New(pool, logger)
		deps.Recorder = recorder
		historyLister = recorder
	} else {
		logger.Info("request history disabled: SUPP_DB_URL not set")
	}
	if redisClient != nil {
		deps.Cache = cache.NewGenerationCache(redisClient, cfg.Redis.Namespace, cfg.Redis.GenerationTTL)
		limiter := httpmiddleware.NewRateLimiter(redisClient, cfg.Redis.Namespace, logger)
		rateLimit = limiter.Limit("recommend", cfg.HTTP.RateLimit, cfg.HTTP.RateWindow, httpapi.RateLimitKey)
	} else {
		logger.Info("generation cache and rate limiting disabled: SUPP_REDIS_ADDR not set")
	}

	recommendHandler := handlers.NewRecommendHandler(recommend.New(deps), logger)
	historyHandler := handlers.NewHistoryHandler(historyLister, logger)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		HealthHandler:      handlers.Health(supplements.Len()),
		MetricsHandler:     m.Handler(),
		MetricsMiddleware:  m.Middleware,
		RateLimitRecommend: rateLimit,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RequestTimeout:     cfg.HTTP.WriteTimeout,
		Handlers: httpapi.Handlers{
			Index:     recommendHandler.Index,
			Recommend: recommendHandler.Recommend,
			History:   historyHandler.List,
			OpenAPI:   handlers.OpenAPIJSON,
			Docs:      handlers.SwaggerUI,
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		httpServer: server,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run() error {
	a.logger.Info("starting HTTP server", zap.String("addr", a.httpServer.Addr))
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and closes resources.
func (a *App) Shutdown(ctx context.Context) error {
	shutdownErr := a.httpServer.Shutdown(ctx)

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}
	return shutdownErr
}
