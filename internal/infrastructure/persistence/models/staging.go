package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/domain/dataset"
)

// IngestModel is one staged copy of the raw input
type IngestModel struct {
	BaseModel
	Source      string     `gorm:"type:varchar(512);not null"`
	Fingerprint string     `gorm:"type:varchar(64);not null;index"`
	TableCount  int        `gorm:"not null;default:0"`
	RowCount    int64      `gorm:"not null;default:0"`
	Active      bool       `gorm:"not null;default:false"`
	PublishedAt *time.Time
}

// TableName returns the table name for GORM
func (IngestModel) TableName() string {
	return "dataset_ingests"
}

// ToDomain converts the model to an Ingest
func (m *IngestModel) ToDomain() *dashboard.Ingest {
	return &dashboard.Ingest{
		ID:          m.ID,
		Source:      m.Source,
		Fingerprint: m.Fingerprint,
		Tables:      m.TableCount,
		Rows:        m.RowCount,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		PublishedAt: m.PublishedAt,
	}
}

// StagedTableModel is the header of one source table within an ingest
type StagedTableModel struct {
	BaseModel
	IngestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dataset_tables_ingest_name"`
	Name     string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_dataset_tables_ingest_name"`
	Header   []string  `gorm:"type:text;serializer:json;not null"`
	RowCount int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StagedTableModel) TableName() string {
	return "dataset_tables"
}

// StagedRowModel is one data row. RowNum is 1-indexed within its table.
type StagedRowModel struct {
	ID      int64     `gorm:"primaryKey;autoIncrement"`
	TableID uuid.UUID `gorm:"type:uuid;not null;index:idx_dataset_rows_table,priority:1"`
	RowNum  int       `gorm:"not null;index:idx_dataset_rows_table,priority:2"`
	Cells   []string  `gorm:"type:text;serializer:json;not null"`
}

// TableName returns the table name for GORM
func (StagedRowModel) TableName() string {
	return "dataset_rows"
}

// ToRawTable returns an empty raw table with this header
func (m *StagedTableModel) ToRawTable() *dataset.RawTable {
	return &dataset.RawTable{
		Name:    m.Name,
		Columns: append([]string(nil), m.Header...),
		Rows:    make([][]string, 0, m.RowCount),
	}
}

// All returns every staging model, parents first
func All() []any {
	return []any{&IngestModel{}, &StagedTableModel{}, &StagedRowModel{}}
}
