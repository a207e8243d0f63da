package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/adsync/backend/internal/application/sync"
	"github.com/adsync/backend/internal/infrastructure/adplatform"
	"github.com/adsync/backend/internal/infrastructure/cache"
	"github.com/adsync/backend/internal/infrastructure/config"
	"github.com/adsync/backend/internal/infrastructure/logger"
	"github.com/adsync/backend/internal/infrastructure/persistence"
	"github.com/adsync/backend/internal/infrastructure/resilience"
	"github.com/adsync/backend/internal/infrastructure/scheduler"
	"github.com/adsync/backend/internal/infrastructure/telemetry"
	"github.com/adsync/backend/internal/interfaces/http/handler"
	"github.com/adsync/backend/internal/interfaces/http/middleware"
	"github.com/adsync/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting AdSync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// OpenTelemetry tracer provider (no-op unless telemetry.enabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Campaign repository with retry backoff bookkeeping
	campaignRepo, err := persistence.NewGormCampaignRepository(db.DB, resilience.BackoffConfig{
		BaseDelay:    cfg.Backoff.BaseDelay,
		MaxDelay:     cfg.Backoff.MaxDelay,
		Multiplier:   cfg.Backoff.Multiplier,
		JitterFactor: cfg.Backoff.JitterFactor,
	})
	if err != nil {
		log.Fatal("Failed to create campaign repository", zap.Error(err))
	}

	// Per-platform circuit breakers shared by all resilient adapters
	breakers, err := resilience.NewBreakerRegistry(resilience.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Breaker.ResetTimeout,
		HalfOpenMaxCalls: cfg.Breaker.HalfOpenMaxCalls,
	}, log)
	if err != nil {
		log.Fatal("Failed to create breaker registry", zap.Error(err))
	}

	// Register platform adapters for every enabled platform, each wrapped
	// with the circuit breaker and per-call timeout
	adapters, err := buildAdapterRegistry(cfg, breakers, log)
	if err != nil {
		log.Fatal("Failed to configure platform adapters", zap.Error(err))
	}

	// Distributed sync lock (Redis, with in-memory fallback outside production)
	lockFactory := cache.NewSyncLockFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	syncLock, err := lockFactory.CreateLock()
	if err != nil {
		log.Fatal("Failed to create sync lock", zap.Error(err))
	}
	defer func() {
		if err := syncLock.Close(); err != nil {
			log.Error("Error closing sync lock", zap.Error(err))
		}
	}()

	// Application services
	orchestrator := appsync.NewOrchestrator(campaignRepo, adapters, log)
	diffApplier := appsync.NewDiffApplier(campaignRepo, adapters, log)
	retryService := appsync.NewRetryService(campaignRepo, orchestrator, cfg.Sync.MaxRetries, log)
	poller := appsync.NewPlatformPoller(campaignRepo, adapters, log)

	// Background scheduler: retry sweeps and drift polls
	schedulerConfig := scheduler.DefaultSyncSchedulerConfig()
	schedulerConfig.Workers = cfg.Sync.RetryWorkers
	schedulerConfig.RetryInterval = cfg.Sync.RetryInterval
	schedulerConfig.PollInterval = cfg.Sync.PollInterval
	syncScheduler, err := scheduler.NewSyncScheduler(schedulerConfig, campaignRepo, retryService, poller, log)
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}
	defer func() {
		if err := syncScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping sync scheduler", zap.Error(err))
		}
	}()
	log.Info("Sync scheduler started",
		zap.Int("workers", schedulerConfig.Workers),
		zap.Duration("retry_interval", schedulerConfig.RetryInterval),
		zap.Duration("poll_interval", schedulerConfig.PollInterval),
	)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// HTTP handlers and router
	syncHandler := handler.NewSyncHandler(
		orchestrator, diffApplier, retryService, poller, campaignRepo,
		syncLock, cfg.Sync.LockTTL, log,
	)
	engine := router.New(router.Dependencies{
		Logger:    log,
		HTTP:      cfg.HTTP,
		Telemetry: cfg.Telemetry,
		System:    handler.NewSystemHandler(),
		Sync:      syncHandler,
	})

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildAdapterRegistry registers a resilient adapter for every platform
// enabled in the configuration
func buildAdapterRegistry(cfg *config.Config, breakers *resilience.BreakerRegistry, log *zap.Logger) (*adplatform.Registry, error) {
	registry := adplatform.NewRegistry()
	timeout := cfg.Sync.AdapterTimeout

	if cfg.Platforms.Reddit.Enabled {
		redditCfg := adplatform.NewRedditConfig(
			cfg.Platforms.Reddit.ClientID,
			cfg.Platforms.Reddit.ClientSecret,
			cfg.Platforms.Reddit.AccessToken,
		)
		redditCfg.IsSandbox = cfg.Platforms.Reddit.IsSandbox
		if redditCfg.IsSandbox {
			redditCfg.APIBaseURL = adplatform.RedditSandboxAPIURL
		}
		if cfg.Platforms.Reddit.APIBaseURL != "" {
			redditCfg.APIBaseURL = cfg.Platforms.Reddit.APIBaseURL
		}
		reddit, err := adplatform.NewRedditAdapter(redditCfg)
		if err != nil {
			return nil, err
		}
		registry.Register(adplatform.NewResilientAdapter(reddit, breakers, timeout))
		log.Info("Platform adapter registered", zap.String("platform", "REDDIT"), zap.Bool("sandbox", redditCfg.IsSandbox))
	}

	if cfg.Platforms.Google.Enabled {
		google, err := adplatform.NewGoogleAdapter(&adplatform.GoogleConfig{
			DeveloperToken: cfg.Platforms.Google.DeveloperToken,
			AccessToken:    cfg.Platforms.Google.AccessToken,
			APIBaseURL:     cfg.Platforms.Google.APIBaseURL,
		})
		if err != nil {
			return nil, err
		}
		registry.Register(adplatform.NewResilientAdapter(google, breakers, timeout))
		log.Info("Platform adapter registered", zap.String("platform", "GOOGLE"))
	}

	if cfg.Platforms.Facebook.Enabled {
		facebook, err := adplatform.NewFacebookAdapter(&adplatform.FacebookConfig{
			AccessToken: cfg.Platforms.Facebook.AccessToken,
			APIBaseURL:  cfg.Platforms.Facebook.APIBaseURL,
		})
		if err != nil {
			return nil, err
		}
		registry.Register(adplatform.NewResilientAdapter(facebook, breakers, timeout))
		log.Info("Platform adapter registered", zap.String("platform", "FACEBOOK"))
	}

	if len(registry.ListAdapters()) == 0 {
		log.Warn("No platform adapters enabled; sync operations will fail until one is configured")
	}

	return registry, nil
}
