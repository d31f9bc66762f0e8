package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/infrastructure/config"
	"github.com/olist/dashboard/internal/infrastructure/logger"
	"github.com/olist/dashboard/internal/infrastructure/migration"
	"github.com/olist/dashboard/internal/infrastructure/persistence"
	"github.com/olist/dashboard/internal/infrastructure/source"
	"github.com/olist/dashboard/internal/infrastructure/storage"
	"github.com/olist/dashboard/migrations"
	"go.uber.org/zap"
)

func main() {
	// Parse flags
	var (
		logLevel string
		dir      string
		fromS3   bool
		publish  bool
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&dir, "dir", "", "ingest: directory holding the olist_*.csv files (default: dataset.dir)")
	flag.BoolVar(&fromS3, "s3", false, "ingest: read the CSVs from the configured bucket and prefix")
	flag.BoolVar(&publish, "publish", false, "ingest: make the new ingest the active one")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Database.Driver),
	)

	// list needs no database
	if command == "list" {
		versions, err := migration.Versions(migrations.FS)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		log.Info("Available migrations", zap.Int("count", len(versions)))
		for _, v := range versions {
			fmt.Println("  -", v)
		}
		return
	}

	ctx := context.Background()

	switch command {
	case "up", "down", "step", "version", "force":
		if err := runSchema(cfg, log, command, args[1:]); err != nil {
			log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
		}
		return
	case "ingest", "publish", "ingests", "prune":
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log, logger.MapGormLogLevel(logLevel)),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create staging tables", zap.Error(err))
		}
	}
	repo := persistence.NewGormStagingRepository(db.DB, cfg.Database.BatchSize)

	switch command {
	case "ingest":
		var src source.Source = source.NewDirSource(cfg.Dataset.Dir)
		if dir != "" {
			src = source.NewDirSource(dir)
		}
		if fromS3 {
			s3, err := storage.NewS3Source(ctx, &cfg.Storage, storage.WithLogger(log))
			if err != nil {
				log.Fatal("Failed to open object storage", zap.Error(err))
			}
			src = s3
		}
		ing, err := dashboard.NewIngester(repo, log).Run(ctx, source.NewCSVLoader(src, log), src.String(), publish)
		if err != nil {
			log.Fatal("Ingest failed", zap.Error(err))
		}
		fmt.Println(ing.ID)

	case "publish":
		if len(args) < 2 {
			log.Fatal("Ingest id required. Usage: migrate publish <id>")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			log.Fatal("Invalid ingest id", zap.String("value", args[1]))
		}
		if err := repo.Publish(ctx, id); err != nil {
			log.Fatal("Publish failed", zap.Error(err))
		}
		log.Info("Ingest published", zap.String("ingest_id", id.String()))

	case "ingests":
		ingests, err := repo.FindAll(ctx, 50)
		if err != nil {
			log.Fatal("Failed to list ingests", zap.Error(err))
		}
		for _, ing := range ingests {
			active := ""
			if ing.Active {
				active = " (active)"
			}
			fmt.Printf("  - %s %s %s rows=%d%s\n",
				ing.ID, ing.CreatedAt.Format("2006-01-02 15:04:05"), ing.Source, ing.Rows, active)
		}

	case "prune":
		if len(args) < 2 {
			log.Fatal("Count required. Usage: migrate prune <keep>")
		}
		keep, err := strconv.Atoi(args[1])
		if err != nil || keep < 0 {
			log.Fatal("Invalid count", zap.String("value", args[1]))
		}
		n, err := repo.Prune(ctx, keep)
		if err != nil {
			log.Fatal("Prune failed", zap.Error(err))
		}
		log.Info("Ingests pruned", zap.Int("deleted", n), zap.Int("kept", keep))
	}
}

// runSchema drives the versioned postgres migrations
func runSchema(cfg *config.Config, log *zap.Logger, command string, args []string) error {
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("versioned migrations need postgres, got %q; sqlite tables are created on connect", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := migration.New(db, migrations.FS, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(args) < 1 {
			return errors.New("step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
		return nil

	case "force":
		if len(args) < 1 {
			return errors.New("version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version number %q", args[0])
		}
		log.Warn("Forcing migration version - use with caution!")
		return m.Force(version)
	}
	return nil
}

func printUsage() {
	fmt.Println(`Olist Dashboard Staging Tool

Usage:
  migrate [flags] <command> [arguments]

Schema commands (postgres):
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  list                  List embedded migrations

Staging commands:
  ingest                Copy the CSV dataset into the staging tables
  publish <id>          Make a staged ingest the one the server loads
  ingests               List staged ingests, newest first
  prune <keep>          Delete all but the newest <keep> inactive ingests

Flags:
  -log-level string     Log level: debug, info, warn, error (default: info)
  -dir string           ingest: CSV directory (default: dataset.dir)
  -s3                   ingest: read from the configured bucket instead
  -publish              ingest: publish the new ingest

Environment Variables:
  OLIST_DATABASE_DRIVER, OLIST_DATABASE_HOST, OLIST_DATABASE_PORT,
  OLIST_DATABASE_USER, OLIST_DATABASE_PASSWORD, OLIST_DATABASE_DBNAME

Examples:
  # Apply all pending migrations
  migrate up

  # Stage and publish a fresh copy of the dataset
  migrate -dir ./data -publish ingest

  # Keep only the last three ingests
  migrate prune 3`)
}
