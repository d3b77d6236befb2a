package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobradar/search-service/internal/cache"
	"github.com/jobradar/search-service/internal/config"
	"github.com/jobradar/search-service/internal/dispatch"
	"github.com/jobradar/search-service/internal/export"
	"github.com/jobradar/search-service/internal/handler"
	"github.com/jobradar/search-service/internal/history"
	"github.com/jobradar/search-service/internal/provider"
	"github.com/jobradar/search-service/internal/scheduler"
	"github.com/jobradar/search-service/internal/service"
	"github.com/jobradar/search-service/internal/usage"
	pkglog "github.com/jobradar/search-service/pkg/log"
	"github.com/jobradar/search-service/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "search-service",
	})
	logger := pkglog.L()

	if cfg.Provider.APIKey == "" {
		logger.Warn().Msg("JSEARCH_API_KEY is not set, upstream calls will fail with auth errors")
	}

	// Upstream provider client
	jsearch := provider.NewJSearchClient(cfg.Provider)
	logger.Info().Str("api_host", cfg.Provider.APIHost).Msg("jsearch provider configured")

	// Usage tracker (Redis-backed monthly quota)
	var tracker usage.Tracker = usage.Disabled{}
	if cfg.Usage.Enabled {
		rt, err := usage.NewRedisTracker(cfg.Redis, "jobradar:usage", cfg.Usage.Limits)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis for usage tracking")
		}
		defer rt.Close()
		tracker = rt
		logger.Info().
			Str("addr", cfg.Redis.Address).
			Int64("monthly_limit", cfg.Usage.Limits.Monthly).
			Msg("usage tracking enabled")
	}

	// Run history (SQLite)
	var histStore *history.Store
	if cfg.History.Enabled {
		histStore, err = history.Open(cfg.History.Path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.History.Path).Msg("failed to open history database")
		}
		logger.Info().Str("path", cfg.History.Path).Msg("run history enabled")
	}

	// Services
	jobSvc := service.NewJobService(jsearch, tracker)
	salarySvc := service.NewSalaryService(jsearch, tracker)

	// Cache store and dispatcher
	store := cache.NewStore(cfg.Cache.TTL)

	var recorder dispatch.RunRecorder
	if histStore != nil {
		recorder = histStore
	}
	dispatcher := dispatch.New(store, jobSvc, recorder, cfg.Cache.SearchTimeout)
	logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("cache store initialized")

	// Export storage backend
	var exportStore storage.Storage
	switch cfg.Storage.Driver {
	case "s3":
		exportStore, err = storage.NewS3Storage(context.Background(), cfg.Storage.S3)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize s3 storage")
		}
		logger.Info().Str("bucket", cfg.Storage.S3.Bucket).Msg("s3 export storage initialized")
	default:
		exportStore, err = storage.NewLocalStorage(cfg.Storage.Local)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize local storage")
		}
		logger.Info().Str("path", cfg.Storage.Local.BasePath).Msg("local export storage initialized")
	}
	exporter := export.New(exportStore)

	// Cache-warm scheduler
	var schedInfo handler.SchedulerInfo
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(dispatcher, cfg.Scheduler.IntervalHours)
		if err := sched.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start scheduler")
		}
		defer sched.Stop()
		schedInfo = sched
	}

	// HTTP handler
	var historyReader handler.HistoryReader
	if histStore != nil {
		historyReader = histStore
	}
	httpHandler := handler.NewHandler(dispatcher, jobSvc, salarySvc, exporter, tracker, historyReader, schedInfo)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Register routes
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("search-service starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down search-service")

	// In-flight search goroutines run to completion on their own timeout; only
	// the HTTP surface drains here.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("search-service stopped")
}
