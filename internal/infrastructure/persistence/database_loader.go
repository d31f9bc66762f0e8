package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/olist/dashboard/internal/domain/shared"
	"go.uber.org/zap"
)

// DatabaseLoader serves the active ingest of the staging database
type DatabaseLoader struct {
	repo   *GormStagingRepository
	logger *zap.Logger
}

var _ dashboard.Loader = (*DatabaseLoader)(nil)

// NewDatabaseLoader creates a DatabaseLoader
func NewDatabaseLoader(repo *GormStagingRepository, logger *zap.Logger) *DatabaseLoader {
	return &DatabaseLoader{repo: repo, logger: logger.Named("database_loader")}
}

// Fingerprint returns the fingerprint recorded with the active ingest
func (l *DatabaseLoader) Fingerprint(ctx context.Context) (string, error) {
	ing, err := l.active(ctx)
	if err != nil {
		return "", err
	}
	return ing.Fingerprint, nil
}

// Load reads the active ingest's tables
func (l *DatabaseLoader) Load(ctx context.Context) (dataset.RawTableSet, error) {
	ing, err := l.active(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := l.repo.LoadTables(ctx, ing.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: ingest %s has no tables", shared.ErrNoDataAvailable, ing.ID)
		}
		return nil, err
	}
	l.logger.Debug("Ingest loaded",
		zap.String("ingest_id", ing.ID.String()),
		zap.Int("tables", len(raw)),
	)
	return raw, nil
}

func (l *DatabaseLoader) active(ctx context.Context) (*dashboard.Ingest, error) {
	ing, err := l.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: no published ingest", shared.ErrNoDataAvailable)
		}
		return nil, err
	}
	return ing, nil
}

// String names the loader in logs
func (l *DatabaseLoader) String() string {
	return "database"
}
