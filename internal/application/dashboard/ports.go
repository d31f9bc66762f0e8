// Package dashboard builds the enriched dataset snapshot and computes
// filtered dashboards over it.
package dashboard

import (
	"context"

	"github.com/olist/dashboard/internal/domain/dataset"
)

// Loader supplies the raw tables of one dataset.
// Fingerprint identifies the current raw input without reading it in full.
type Loader interface {
	Load(ctx context.Context) (dataset.RawTableSet, error)
	Fingerprint(ctx context.Context) (string, error)
}

// DatasetCache memoizes enriched table sets by loader fingerprint
type DatasetCache interface {
	Get(ctx context.Context, key string) (*dataset.TableSet, bool, error)
	Set(ctx context.Context, key string, ts *dataset.TableSet) error
	Delete(ctx context.Context, key string) error
	Backend() string
	Close() error
}
