package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const pipelineMeterName = "olist-dashboard/pipeline"

// PipelineMetrics instruments dataset builds and dashboard recomputation.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	builds         *Counter
	buildDuration  *Histogram
	computes       *Counter
	computeLatency *Histogram
	cacheLookups   *Counter
	filteredOrders *Gauge
	datasetOrders  *Gauge
}

// NewPipelineMetrics registers the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)
	if m.builds, err = NewCounter(meter, "dataset_builds_total", "Dataset builds by outcome", "{build}"); err != nil {
		return nil, err
	}
	if m.buildDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "dataset_build_duration_seconds",
		Description: "Time spent loading, normalizing and enriching the dataset, by stage",
		Unit:        "s",
		Boundaries:  PipelineDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.computes, err = NewCounter(meter, "dashboard_computations_total", "Dashboard recomputations by outcome", "{computation}"); err != nil {
		return nil, err
	}
	if m.computeLatency, err = NewHistogram(meter, HistogramOpts{
		Name:        "dashboard_compute_duration_seconds",
		Description: "Time to filter and aggregate one dashboard",
		Unit:        "s",
		Boundaries:  PipelineDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = NewCounter(meter, "dataset_cache_lookups_total", "Dataset cache lookups by result", "{lookup}"); err != nil {
		return nil, err
	}
	if m.filteredOrders, err = NewGauge(meter, "dashboard_filtered_orders", "Orders left after the last facet selection", "{order}"); err != nil {
		return nil, err
	}
	if m.datasetOrders, err = NewGauge(meter, "dataset_orders", "Orders in the current snapshot", "{order}"); err != nil {
		return nil, err
	}
	return &m, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordStage records the duration of one build stage
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.buildDuration.RecordDuration(ctx, d, AttrStage.String(stage))
}

// RecordBuild records a finished dataset build
func (m *PipelineMetrics) RecordBuild(ctx context.Context, orders int, err error) {
	if m == nil {
		return
	}
	m.builds.Inc(ctx, AttrOutcome.String(outcome(err)))
	if err == nil {
		m.datasetOrders.Record(ctx, int64(orders))
	}
}

// RecordCompute records a finished recomputation
func (m *PipelineMetrics) RecordCompute(ctx context.Context, d time.Duration, filtered int, err error) {
	if m == nil {
		return
	}
	m.computes.Inc(ctx, AttrOutcome.String(outcome(err)))
	m.computeLatency.RecordDuration(ctx, d)
	if err == nil {
		m.filteredOrders.Record(ctx, int64(filtered))
	}
}

// RecordCacheLookup records a dataset cache hit or miss
func (m *PipelineMetrics) RecordCacheLookup(ctx context.Context, backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrBackend.String(backend), AttrResult.String(result))
}
