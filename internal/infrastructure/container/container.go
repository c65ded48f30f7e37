// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"errors"
	"net/http"

	"github.com/platewise/v2/internal/application/generation"
	"github.com/platewise/v2/internal/application/nutrition"
	"github.com/platewise/v2/internal/infrastructure/ai/openai"
	"github.com/platewise/v2/internal/infrastructure/cache"
	"github.com/platewise/v2/internal/infrastructure/config"
	"github.com/platewise/v2/internal/infrastructure/http/apiserver"
	"github.com/platewise/v2/internal/infrastructure/monitoring"
	"github.com/platewise/v2/internal/infrastructure/nutrition/fdc"
	"github.com/platewise/v2/internal/ports/inbound"
	"github.com/platewise/v2/internal/ports/outbound"
	"github.com/platewise/v2/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	CacheModule,
	ClientModule,
	ServiceModule,
	MonitoringModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// CacheModule provides the optional nutrient summary cache. When caching is
// disabled or Redis is unreachable the gateway runs without one.
var CacheModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.CacheRepository {
		if !cfg.Nutrition.EnableCache {
			return nil
		}
		repo, err := cache.NewRedis(context.Background(), cfg.Redis, cfg.RedisAddr(), log)
		if err != nil {
			log.Warn("redis unavailable, nutrient summary cache disabled", zap.Error(err))
			return nil
		}
		return repo
	},
)

// ClientModule provides the upstream service clients
var ClientModule = fx.Provide(
	func(cfg *config.Config, collector *monitoring.MetricsCollector, log *zap.Logger) outbound.TextGenerator {
		return openai.NewClient(cfg.AI, collector, log)
	},
	func(cfg *config.Config, collector *monitoring.MetricsCollector, log *zap.Logger) outbound.NutrientAPI {
		return fdc.NewClient(cfg.Nutrition, collector, log)
	},
)

// ServiceModule provides the application services
var ServiceModule = fx.Provide(
	func(api outbound.NutrientAPI, cacheRepo outbound.CacheRepository, cfg *config.Config, log *zap.Logger) *nutrition.Gateway {
		return nutrition.NewGateway(api, cacheRepo, cfg.Nutrition.CacheTTL, log)
	},
	func(cfg *config.Config) *generation.Composer {
		return generation.NewComposer(cfg.RulesPolicy())
	},
	func() *generation.Parser {
		return generation.NewParser()
	},
	func(gateway *nutrition.Gateway, cfg *config.Config, log *zap.Logger) *generation.Validator {
		return generation.NewValidator(gateway, cfg.RulesPolicy(), log)
	},
	func(
		textGen outbound.TextGenerator,
		composer *generation.Composer,
		parser *generation.Parser,
		validator *generation.Validator,
		metrics generation.Metrics,
		log *zap.Logger,
	) inbound.MealService {
		return generation.NewService(textGen, composer, parser, validator, metrics, log)
	},
)

// MonitoringModule provides metrics collection
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(collector *monitoring.MetricsCollector) generation.Metrics {
		return collector
	},
)

// HTTPModule provides the API server
var HTTPModule = fx.Provide(
	apiserver.NewAPIServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.APIServer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Platewise application",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Platewise application")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
