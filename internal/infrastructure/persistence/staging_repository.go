package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/olist/dashboard/internal/domain/shared"
	"github.com/olist/dashboard/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// DefaultBatchSize is the number of rows per INSERT when staging
const DefaultBatchSize = 1000

// GormStagingRepository stores raw table sets in the staging tables
type GormStagingRepository struct {
	db        *gorm.DB
	batchSize int
	now       func() time.Time
}

var _ dashboard.IngestStore = (*GormStagingRepository)(nil)

// NewGormStagingRepository creates a staging repository. A batch size of
// zero or less uses DefaultBatchSize.
func NewGormStagingRepository(db *gorm.DB, batchSize int) *GormStagingRepository {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &GormStagingRepository{db: db, batchSize: batchSize, now: time.Now}
}

// WithTx returns a repository bound to tx
func (r *GormStagingRepository) WithTx(tx *gorm.DB) *GormStagingRepository {
	return &GormStagingRepository{db: tx, batchSize: r.batchSize, now: r.now}
}

// Stage writes raw as a new inactive ingest in one transaction
func (r *GormStagingRepository) Stage(ctx context.Context, source, fingerprint string, raw dataset.RawTableSet) (*dashboard.Ingest, error) {
	if len(raw) == 0 {
		return nil, shared.ErrNoDataAvailable
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	ingest := models.IngestModel{
		Source:      source,
		Fingerprint: fingerprint,
		TableCount:  len(names),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ingest).Error; err != nil {
			return fmt.Errorf("create ingest: %w", err)
		}

		for _, name := range names {
			t := raw[name]
			table := models.StagedTableModel{
				IngestID: ingest.ID,
				Name:     name,
				Header:   t.Columns,
				RowCount: len(t.Rows),
			}
			if err := tx.Create(&table).Error; err != nil {
				return fmt.Errorf("create table %s: %w", name, err)
			}
			if len(t.Rows) == 0 {
				continue
			}

			rows := make([]models.StagedRowModel, len(t.Rows))
			for i, cells := range t.Rows {
				rows[i] = models.StagedRowModel{TableID: table.ID, RowNum: i + 1, Cells: cells}
			}
			if err := tx.CreateInBatches(rows, r.batchSize).Error; err != nil {
				return fmt.Errorf("insert rows of %s: %w", name, err)
			}
			ingest.RowCount += int64(len(rows))
		}

		return tx.Model(&ingest).Update("row_count", ingest.RowCount).Error
	})
	if err != nil {
		return nil, err
	}
	return ingest.ToDomain(), nil
}

// Publish makes id the only active ingest
func (r *GormStagingRepository) Publish(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ingest models.IngestModel
		if err := tx.Where("id = ?", id).First(&ingest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := tx.Model(&models.IngestModel{}).
			Where("active = ? AND id <> ?", true, id).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Model(&ingest).Updates(map[string]any{
			"active":       true,
			"published_at": r.now().UTC(),
		}).Error
	})
}

// FindActive returns the active ingest, or shared.ErrNotFound
func (r *GormStagingRepository) FindActive(ctx context.Context) (*dashboard.Ingest, error) {
	var model models.IngestModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns the most recent ingests first. A limit of zero or less returns all.
func (r *GormStagingRepository) FindAll(ctx context.Context, limit int) ([]*dashboard.Ingest, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var list []models.IngestModel
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]*dashboard.Ingest, len(list))
	for i := range list {
		out[i] = list[i].ToDomain()
	}
	return out, nil
}

// LoadTables reads every table of an ingest back into a raw table set.
// Rows are inserted in order within one transaction, so primary key order
// is row order; RowNum is checked to catch gaps.
func (r *GormStagingRepository) LoadTables(ctx context.Context, ingestID uuid.UUID) (dataset.RawTableSet, error) {
	db := r.db.WithContext(ctx)

	var tables []models.StagedTableModel
	if err := db.Where("ingest_id = ?", ingestID).Order("name").Find(&tables).Error; err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, shared.ErrNotFound
	}

	out := make(dataset.RawTableSet, len(tables))
	for i := range tables {
		t := tables[i].ToRawTable()
		var batch []models.StagedRowModel
		res := db.Where("table_id = ?", tables[i].ID).
			FindInBatches(&batch, r.batchSize, func(_ *gorm.DB, _ int) error {
				for _, row := range batch {
					if row.RowNum != len(t.Rows)+1 {
						return fmt.Errorf("expected row %d, got %d", len(t.Rows)+1, row.RowNum)
					}
					t.Rows = append(t.Rows, row.Cells)
				}
				return nil
			})
		if res.Error != nil {
			return nil, fmt.Errorf("read rows of %s: %w", t.Name, res.Error)
		}
		if len(t.Rows) != tables[i].RowCount {
			return nil, fmt.Errorf("table %s: staged %d rows, read %d", t.Name, tables[i].RowCount, len(t.Rows))
		}
		out[t.Name] = t
	}
	return out, nil
}

// Delete removes an inactive ingest and its rows
func (r *GormStagingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ingest models.IngestModel
		if err := tx.Where("id = ?", id).First(&ingest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if ingest.Active {
			return fmt.Errorf("%w: ingest %s is active", shared.ErrInvalidInput, id)
		}

		tableIDs := tx.Model(&models.StagedTableModel{}).Select("id").Where("ingest_id = ?", id)
		if err := tx.Where("table_id IN (?)", tableIDs).Delete(&models.StagedRowModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ingest_id = ?", id).Delete(&models.StagedTableModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ingest).Error
	})
}

// Prune deletes inactive ingests beyond the keep most recent and reports how many went
func (r *GormStagingRepository) Prune(ctx context.Context, keep int) (int, error) {
	var stale []models.IngestModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", false).
		Order("created_at DESC").
		Offset(keep).
		Find(&stale).Error; err != nil {
		return 0, err
	}
	for _, ing := range stale {
		if err := r.Delete(ctx, ing.ID); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
