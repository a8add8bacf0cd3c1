package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"
	"golang.org/x/time/rate"

	pricingapp "github.com/wyfcoding/optionstrategy/internal/pricing/application"
	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
	pricinghttp "github.com/wyfcoding/optionstrategy/internal/pricing/interfaces/http"
	"github.com/wyfcoding/optionstrategy/internal/strategy/application"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
	"github.com/wyfcoding/optionstrategy/internal/strategy/infrastructure/messaging"
	"github.com/wyfcoding/optionstrategy/internal/strategy/infrastructure/quote"
	strategyhttp "github.com/wyfcoding/optionstrategy/internal/strategy/interfaces/http"
	"github.com/wyfcoding/optionstrategy/pkg/cache"
	"github.com/wyfcoding/optionstrategy/pkg/config"
	"github.com/wyfcoding/optionstrategy/pkg/metrics"
	"github.com/wyfcoding/optionstrategy/pkg/middleware"
	"github.com/wyfcoding/optionstrategy/pkg/mq"
)

// AppContext 服务依赖
type AppContext struct {
	Config       *config.Config
	Metrics      *metrics.Metrics
	Calculator   *application.StrategyCalculator
	PricingQuery *pricingapp.PricingQueryService
	Limiter      *rate.Limiter
}

func initService(cfg *config.Config) (*AppContext, func(), error) {
	slog.Info("initializing service dependencies...", "service", cfg.ServiceName, "environment", cfg.Environment)

	var cleanups []func()
	cleanup := func() {
		slog.Info("cleaning up resources...")
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	m := metrics.New(cfg.ServiceName)

	var source domain.QuoteSource
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = redisCache.Close() })
		source = quote.NewRedisQuoteSource(redisCache, cfg.Redis.QuotePrefix, quote.WithMaxAge(cfg.Redis.QuoteMaxAge))
	} else {
		slog.Warn("redis disabled, using in-memory quote source; all legs will be estimated")
		source = quote.NewMemoryQuoteSource()
	}
	source = quote.NewBreakerQuoteSource("quote_source", source, cfg.Breaker, m.Base())

	pricer := pricing.NewPricer(cfg.Pricing.RiskFreeRate)
	opts := []application.Option{
		application.WithCacheTTL(cfg.Strategy.CacheTTL),
		application.WithMaxCacheEntries(cfg.Strategy.MaxCacheEntries),
		application.WithQuoteTimeout(cfg.Strategy.QuoteTimeout),
		application.WithMaxConcurrentLegs(cfg.Strategy.MaxConcurrentLegs),
		application.WithDefaultVolatility(cfg.Pricing.DefaultVolatility),
		application.WithDividendYield(cfg.Pricing.DividendYield),
		application.WithContractMultiplier(int64(cfg.Pricing.ContractMultiplier)),
		application.WithMetrics(m),
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = producer.Close() })
		opts = append(opts, application.WithEventPublisher(messaging.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)))
	}

	return &AppContext{
		Config:       cfg,
		Metrics:      m,
		Calculator:   application.NewStrategyCalculator(pricer, source, opts...),
		PricingQuery: pricingapp.NewPricingQueryService(pricer, cfg.Pricing.DividendYield, cfg.Pricing.DefaultVolatility),
		Limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit.Rate), cfg.RateLimit.Burst),
	}, cleanup, nil
}

func registerGin(e *gin.Engine, appCtx *AppContext) {
	e.Use(middleware.GinRecoveryMiddleware(), middleware.GinLoggingMiddleware(appCtx.Metrics))

	e.GET("/health", func(c *gin.Context) {
		response.SuccessWithRawData(c, gin.H{
			"status":    "healthy",
			"service":   appCtx.Config.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})
	if appCtx.Config.Metrics.Enabled {
		e.GET(appCtx.Config.Metrics.Path, gin.WrapH(appCtx.Metrics.Handler()))
	}

	api := e.Group("", middleware.GinRateLimitMiddleware(appCtx.Limiter))
	strategyhttp.NewStrategyHandler(appCtx.Calculator).RegisterRoutes(api)
	pricinghttp.NewPricingHandler(appCtx.PricingQuery).RegisterRoutes(api)
	slog.Default().Info("HTTP routes registered", "service", appCtx.Config.ServiceName)
}

func serve(cfg *config.Config) error {
	appCtx, cleanup, err := initService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	registerGin(engine, appCtx)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down application", "name", cfg.ServiceName)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("application shut down gracefully")
	return nil
}
