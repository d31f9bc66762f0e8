package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/infrastructure/cache"
	"github.com/olist/dashboard/internal/infrastructure/config"
	"github.com/olist/dashboard/internal/infrastructure/logger"
	"github.com/olist/dashboard/internal/infrastructure/scheduler"
	"github.com/olist/dashboard/internal/infrastructure/telemetry"
	"github.com/olist/dashboard/internal/interfaces/http/handler"
	"github.com/olist/dashboard/internal/interfaces/http/middleware"
	"github.com/olist/dashboard/internal/interfaces/http/router"
	"go.uber.org/zap"
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
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Olist dashboard",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("source", cfg.Dataset.Source),
	)

	ctx := context.Background()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	pipelineMetrics, err := telemetry.NewPipelineMetrics(mp.Meter("olist.dashboard"))
	if err != nil {
		log.Fatal("Failed to create pipeline metrics", zap.Error(err))
	}

	// Dataset loader and cache
	src, err := newLoader(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize dataset loader", zap.Error(err))
	}
	defer src.close()

	datasetCache, err := cache.NewDatasetCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateCache(ctx)
	if err != nil {
		log.Fatal("Failed to initialize dataset cache", zap.Error(err))
	}
	defer func() {
		if err := datasetCache.Close(); err != nil {
			log.Error("Error closing dataset cache", zap.Error(err))
		}
	}()
	if rc, ok := datasetCache.(*cache.RedisDatasetCache); ok {
		src.checks["redis"] = func(ctx context.Context) error {
			return rc.GetClient().Ping(ctx).Err()
		}
	}

	opts := []dashboard.Option{
		dashboard.WithConfig(dashboard.Config{
			PreviewRows:   cfg.Dataset.PreviewRows,
			TopCategories: cfg.Dataset.TopN,
		}),
		dashboard.WithMetrics(pipelineMetrics),
	}
	if cfg.Dataset.ModelFile != "" {
		graph, facets, err := config.LoadModel(cfg.Dataset.ModelFile)
		if err != nil {
			log.Fatal("Failed to load dataset model", zap.String("file", cfg.Dataset.ModelFile), zap.Error(err))
		}
		opts = append(opts, dashboard.WithModel(graph, facets))
		log.Info("Dataset model loaded", zap.String("file", cfg.Dataset.ModelFile))
	}
	svc := dashboard.NewService(src.loader, datasetCache, log, opts...)

	if cfg.Dataset.LoadOnStart {
		res, err := svc.Reload(ctx)
		switch {
		case err != nil && cfg.Dataset.FailOnSchema:
			log.Fatal("Initial dataset build failed", zap.Error(err))
		case err != nil:
			log.Warn("Initial dataset build failed, serving without data until reload", zap.Error(err))
		default:
			log.Info("Initial dataset built",
				zap.String("fingerprint", res.Fingerprint),
				zap.Int("orders", res.Orders),
				zap.Bool("from_cache", res.FromCache),
				zap.Duration("duration", res.Duration),
			)
		}
	}

	if cfg.Dataset.RefreshInterval > 0 {
		refresher, err := scheduler.NewRefreshTrigger(scheduler.RefreshTriggerConfig{
			Interval: cfg.Dataset.RefreshInterval,
		}, svc, log)
		if err != nil {
			log.Fatal("Failed to create refresh trigger", zap.Error(err))
		}
		if err := refresher.Start(ctx); err != nil {
			log.Fatal("Failed to start refresh trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := refresher.Stop(stopCtx); err != nil {
				log.Error("Error stopping refresh trigger", zap.Error(err))
			}
		}()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:  mp,
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, svc)
	for name, check := range src.checks {
		systemHandler.AddCheck(name, check)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.DashboardRoutes(handler.NewDashboardHandler(svc))).
		Register(router.SystemRoutes(systemHandler))
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
