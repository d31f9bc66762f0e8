package main

import (
	"context"
	"fmt"

	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/infrastructure/config"
	"github.com/olist/dashboard/internal/infrastructure/logger"
	"github.com/olist/dashboard/internal/infrastructure/persistence"
	"github.com/olist/dashboard/internal/infrastructure/source"
	"github.com/olist/dashboard/internal/infrastructure/storage"
	"github.com/olist/dashboard/internal/infrastructure/telemetry"
	"github.com/olist/dashboard/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

// datasetSource is the configured loader plus the health checks and
// cleanup of whatever backs it
type datasetSource struct {
	loader dashboard.Loader
	checks map[string]handler.HealthCheck
	close  func()
}

func newLoader(ctx context.Context, cfg *config.Config, log *zap.Logger) (*datasetSource, error) {
	ds := &datasetSource{
		checks: map[string]handler.HealthCheck{},
		close:  func() {},
	}

	switch cfg.Dataset.Source {
	case config.SourceCSV:
		ds.loader = source.NewCSVLoader(source.NewDirSource(cfg.Dataset.Dir), log)
		log.Info("Reading dataset from directory", zap.String("dir", cfg.Dataset.Dir))

	case config.SourceS3:
		s3, err := storage.NewS3Source(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("s3 source: %w", err)
		}
		ds.loader = source.NewCSVLoader(s3, log)
		ds.checks["s3"] = func(ctx context.Context) error {
			_, err := s3.List(ctx)
			return err
		}
		log.Info("Reading dataset from object storage", zap.String("source", s3.String()))

	case config.SourceDatabase:
		db, err := persistence.NewDatabase(&cfg.Database,
			persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
			persistence.WithTracing(telemetry.DBTracingConfig{
				Enabled:    cfg.Telemetry.DBTraceEnabled,
				LogFullSQL: cfg.Telemetry.DBLogFullSQL,
			}),
		)
		if err != nil {
			return nil, err
		}
		// Postgres schemas are owned by cmd/migrate
		if db.Driver() == config.DriverSQLite {
			if err := db.AutoMigrate(); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		repo := persistence.NewGormStagingRepository(db.DB, cfg.Database.BatchSize)
		ds.loader = persistence.NewDatabaseLoader(repo, log)
		ds.checks["database"] = db.Ping
		ds.close = func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}
		log.Info("Reading dataset from staging database", zap.String("driver", db.Driver()))

	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
	}
	return ds, nil
}
