package di

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"text-summarizer-app/internal/config"
	"text-summarizer-app/internal/logging"
	sharedAI "text-summarizer-app/internal/modules/shared/infrastructure/ai"
	sharedCache "text-summarizer-app/internal/modules/shared/infrastructure/cache"
	"text-summarizer-app/internal/modules/shared/infrastructure/metrics"
	summaryHandler "text-summarizer-app/internal/modules/summary/presentation/handler"
	summaryUsecase "text-summarizer-app/internal/modules/summary/usecase"
	"text-summarizer-app/internal/modules/summary/view"
	"text-summarizer-app/internal/presentation/http/handler"
	"text-summarizer-app/internal/presentation/http/middleware"
)

// Container DIコンテナ
type Container struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	recorder *metrics.PrometheusRecorder
	limiter  *rate.Limiter

	// Shared Infrastructure
	aiRepo    *sharedAI.EndpointRepository
	cacheRepo *sharedCache.RedisRepository

	// Summary Module
	summarizeUseCase *summaryUsecase.SummarizeUseCase
	store            *view.Store
	webHandler       *summaryHandler.WebHandler
	apiHandler       *summaryHandler.APIHandler
	healthHandler    *handler.HealthHandler
}

// NewContainer 新しいContainerを作成
func NewContainer(cfg *config.Config) (*Container, error) {
	return newContainer(cfg, logging.NewLogger(&cfg.Log))
}

func newContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{logger: logger}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.registry = registry
	container.recorder = metrics.NewPrometheusRecorder(registry)

	// Shared Infrastructure: AI Repository
	aiRepo := sharedAI.NewEndpointRepository(&cfg.Summarizer)
	container.aiRepo = aiRepo

	opts := []summaryUsecase.Option{
		summaryUsecase.WithSanitize(cfg.Summarizer.Sanitize),
		summaryUsecase.WithMetrics(container.recorder),
		summaryUsecase.WithLogger(logger),
	}

	// Shared Infrastructure: Cache Repository（任意）
	if cfg.Redis.Enabled {
		cacheRepo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			// キャッシュなしでも要約はできる
			logger.Warn("Redis cache unavailable, continuing without cache", "error", err)
		} else {
			container.cacheRepo = cacheRepo
			opts = append(opts, summaryUsecase.WithCache(cacheRepo, cfg.Redis.TTL))
		}
	}

	// Summary Module: UseCase
	container.summarizeUseCase = summaryUsecase.NewSummarizeUseCase(aiRepo, opts...)

	// Summary Module: View sessions
	store := view.NewStore(container.summarizeUseCase, view.StoreConfig{
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepSchedule: cfg.Session.SweepSchedule,
		SessionOpts: []view.SessionOption{
			view.WithCopiedReset(cfg.Session.CopiedReset),
			view.WithLogger(logger),
		},
		Metrics: container.recorder,
		Logger:  logger,
	})
	if err := store.Start(); err != nil {
		_ = container.closeCache()
		return nil, fmt.Errorf("failed to start session sweeper: %w", err)
	}
	container.store = store

	// Summary Module: Handlers
	webHandler, err := summaryHandler.NewWebHandler(store, logger)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize web handler: %w", err)
	}
	webHandler.SetSecureCookie(cfg.Session.SecureCookie)
	container.webHandler = webHandler
	container.apiHandler = summaryHandler.NewAPIHandler(container.summarizeUseCase, logger)

	var pinger handler.Pinger
	if container.cacheRepo != nil {
		pinger = container.cacheRepo
	}
	container.healthHandler = handler.NewHealthHandler(pinger, store.Len)

	container.limiter = middleware.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	return container, nil
}

// Logger アプリケーションのロガーを取得
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Registry メトリクスのレジストリを取得
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Limiter 要約リクエストのレートリミッターを取得（無制限ならnil）
func (c *Container) Limiter() *rate.Limiter {
	return c.limiter
}

// SummarizeUseCase 要約ユースケースを取得
func (c *Container) SummarizeUseCase() *summaryUsecase.SummarizeUseCase {
	return c.summarizeUseCase
}

// Store 画面セッションストアを取得
func (c *Container) Store() *view.Store {
	return c.store
}

// WebHandler Web UIハンドラーを取得
func (c *Container) WebHandler() *summaryHandler.WebHandler {
	return c.webHandler
}

// APIHandler 要約APIハンドラーを取得
func (c *Container) APIHandler() *summaryHandler.APIHandler {
	return c.apiHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *handler.HealthHandler {
	return c.healthHandler
}

// CacheEnabled キャッシュが有効か
func (c *Container) CacheEnabled() bool {
	return c.cacheRepo != nil
}

// Close リソースをクローズ
func (c *Container) Close() error {
	if c.store != nil {
		c.store.Close()
		c.store = nil
	}
	return c.closeCache()
}

func (c *Container) closeCache() error {
	if c.cacheRepo == nil {
		return nil
	}
	err := c.cacheRepo.Close()
	c.cacheRepo = nil
	if err != nil {
		return fmt.Errorf("failed to close cache repository: %w", err)
	}
	return nil
}
