package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/olist/dashboard/internal/domain/analytics"
	"github.com/olist/dashboard/internal/domain/dataset"
)

// Result is one complete dashboard computed for a selection
type Result struct {
	RunID                uuid.UUID
	Fingerprint          string
	GeneratedAt          time.Time
	Selection            analytics.Selection
	Tables               *analytics.FilteredTables
	KPIs                 analytics.KPIs
	MonthlyRevenue       []analytics.MonthlyRevenuePoint
	ScoreDistribution    []analytics.ScoreCount
	DeliveryByScore      []analytics.ScoreDeliveryTime
	GeoDensity           []analytics.GeoDensityPoint
	DeliveryStatusCounts map[dataset.DeliveryStatus]int
	RevenueByCategory    []analytics.CategoryRevenue
	Preview              []dataset.Order
}

// FacetOptions lists the selectable values of one facet
type FacetOptions struct {
	Facet  analytics.Facet
	Values []string
}

// ReloadResult describes what a reload did
type ReloadResult struct {
	RunID       uuid.UUID
	Fingerprint string
	Changed     bool
	FromCache   bool
	Orders      int
	Duration    time.Duration
}

// Status reports the snapshot the service is serving
type Status struct {
	Ready       bool
	Fingerprint string
	LoadedAt    time.Time
	Orders      int
	Error       string
}
