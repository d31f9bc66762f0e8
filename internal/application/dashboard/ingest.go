package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/olist/dashboard/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Ingest is one raw table set copied into the staging database
type Ingest struct {
	ID          uuid.UUID
	Source      string
	Fingerprint string
	Tables      int
	Rows        int64
	Active      bool
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// IngestStore persists raw table sets. At most one ingest is active and
// that is the one a database loader serves.
type IngestStore interface {
	Stage(ctx context.Context, source, fingerprint string, raw dataset.RawTableSet) (*Ingest, error)
	Publish(ctx context.Context, id uuid.UUID) error
}

// Ingester copies a loader's input into an IngestStore
type Ingester struct {
	store  IngestStore
	logger *zap.Logger
}

// NewIngester creates an Ingester
func NewIngester(store IngestStore, log *zap.Logger) *Ingester {
	return &Ingester{store: store, logger: log.Named("ingest")}
}

// Run loads from src, checks that the tables normalize, stages them and,
// when publish is set, makes the new ingest the active one. Input that does
// not normalize is never staged.
func (i *Ingester) Run(ctx context.Context, src Loader, name string, publish bool) (*Ingest, error) {
	runID := uuid.New()
	ctx, log := logger.WithRunID(ctx, i.logger, runID.String())

	fp, err := src.Fingerprint(ctx)
	if err != nil {
		return nil, noData(err)
	}
	raw, err := src.Load(ctx)
	if err != nil {
		return nil, noData(err)
	}
	if _, err := dataset.Normalize(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", StageNormalize, err)
	}

	ing, err := i.store.Stage(ctx, name, fp, raw)
	if err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}
	log.Info("Dataset staged",
		zap.String("ingest_id", ing.ID.String()),
		zap.String("source", name),
		zap.String("fingerprint", fp),
		zap.Int("tables", ing.Tables),
		zap.Int64("rows", ing.Rows),
	)

	if !publish {
		return ing, nil
	}
	if err := i.store.Publish(ctx, ing.ID); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	ing.Active = true
	log.Info("Ingest published", zap.String("ingest_id", ing.ID.String()))
	return ing, nil
}
