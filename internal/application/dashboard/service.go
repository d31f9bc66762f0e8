package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/olist/dashboard/internal/domain/analytics"
	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/olist/dashboard/internal/domain/shared"
	"github.com/olist/dashboard/internal/infrastructure/logger"
	"github.com/olist/dashboard/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Build stages, used for spans and the stage duration histogram
const (
	StageFingerprint = "fingerprint"
	StageLoad        = "load"
	StageNormalize   = "normalize"
	StageEnrich      = "enrich"
	StageFilter      = "filter"
	StageAggregate   = "aggregate"
)

const component = "pipeline"

// Config tunes the result shape
type Config struct {
	PreviewRows   int
	TopCategories int
}

// DefaultConfig returns the dashboard defaults
func DefaultConfig() Config {
	return Config{PreviewRows: 5, TopCategories: 10}
}

// snapshot is an enriched table set with what is derived from it once
type snapshot struct {
	fingerprint string
	tables      *dataset.TableSet
	options     []FacetOptions
	loadedAt    time.Time
}

// state is what Compute sees: a snapshot, or the error of the last build
type state struct {
	snap *snapshot
	err  error
}

// Service holds the current snapshot and computes dashboards from it.
// Compute is safe for concurrent use; reloads are serialized and publish
// a new snapshot atomically.
type Service struct {
	loader  Loader
	cache   DatasetCache
	graph   *analytics.Graph
	facets  []analytics.Facet
	cfg     Config
	metrics *telemetry.PipelineMetrics
	logger  *zap.Logger
	now     func() time.Time

	current  atomic.Pointer[state]
	reloadMu sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithModel replaces the default graph and facets
func WithModel(g *analytics.Graph, facets []analytics.Facet) Option {
	return func(s *Service) {
		s.graph = g
		s.facets = slices.Clone(facets)
	}
}

// WithConfig sets the result shape
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithMetrics records pipeline metrics
func WithMetrics(m *telemetry.PipelineMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service with no snapshot. Call Reload before Compute.
func NewService(loader Loader, cache DatasetCache, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		loader: loader,
		cache:  cache,
		graph:  analytics.DefaultGraph(),
		facets: slices.Clone(analytics.DefaultFacets),
		cfg:    DefaultConfig(),
		logger: log.Named("dashboard"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Facets returns the configured facets
func (s *Service) Facets() []analytics.Facet {
	return slices.Clone(s.facets)
}

// Reload re-fingerprints the raw input. An unchanged fingerprint keeps the
// current snapshot. Otherwise the old cache entry is invalidated and the
// snapshot is rebuilt, from the cache when it holds the new fingerprint.
func (s *Service) Reload(ctx context.Context) (*ReloadResult, error) {
	return s.reload(ctx, false)
}

// Rebuild drops the cached entry for the current input and rebuilds from the loader
func (s *Service) Rebuild(ctx context.Context) (*ReloadResult, error) {
	return s.reload(ctx, true)
}

func (s *Service) reload(ctx context.Context, force bool) (res *ReloadResult, err error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := s.now()
	runID := uuid.New()
	ctx, log := logger.WithRunID(ctx, s.logger, runID.String())
	ctx, span := telemetry.StartSpan(ctx, component+".reload",
		telemetry.WithAttribute(telemetry.SpanAttrRunID, runID.String()),
		telemetry.WithAttribute("reload.force", force),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	fp, err := s.fingerprint(ctx)
	if err != nil {
		s.fail(ctx, log, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrFingerprint, fp)

	res = &ReloadResult{RunID: runID, Fingerprint: fp}
	prev := s.current.Load()
	if !force && prev != nil && prev.snap != nil && prev.snap.fingerprint == fp {
		res.Orders = len(prev.snap.tables.Orders)
		res.Duration = s.now().Sub(start)
		log.Info("Dataset unchanged", zap.String("fingerprint", fp))
		return res, nil
	}

	if prev != nil && prev.snap != nil && prev.snap.fingerprint != fp {
		s.invalidate(ctx, log, prev.snap.fingerprint)
	}
	if force {
		s.invalidate(ctx, log, fp)
	}

	tables, fromCache := s.cached(ctx, log, fp)
	if !fromCache {
		tables, err = s.build(ctx)
		if err != nil {
			s.metrics.RecordBuild(ctx, 0, err)
			s.fail(ctx, log, err)
			return nil, err
		}
		if err := s.cache.Set(ctx, fp, tables); err != nil {
			log.Warn("Failed to cache dataset", zap.String("fingerprint", fp), zap.Error(err))
		}
	}

	snap := &snapshot{
		fingerprint: fp,
		tables:      tables,
		options:     s.options(tables),
		loadedAt:    s.now(),
	}
	s.current.Store(&state{snap: snap})
	s.metrics.RecordBuild(ctx, len(tables.Orders), nil)

	res.Changed = prev == nil || prev.snap == nil || prev.snap.fingerprint != fp
	res.FromCache = fromCache
	res.Orders = len(tables.Orders)
	res.Duration = s.now().Sub(start)

	log.Info("Dataset snapshot published",
		zap.String("fingerprint", fp),
		zap.Bool("from_cache", fromCache),
		zap.Int("orders", res.Orders),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// fingerprint asks the loader for the input identity. Any failure means there is no data.
func (s *Service) fingerprint(ctx context.Context) (string, error) {
	ctx, span := telemetry.StartStageSpan(ctx, component, StageFingerprint)
	defer span.End()

	fp, err := s.loader.Fingerprint(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", noData(err)
	}
	if fp == "" {
		return "", shared.ErrNoDataAvailable
	}
	return fp, nil
}

// cached looks fp up. Cache failures are logged and read as a miss.
func (s *Service) cached(ctx context.Context, log *zap.Logger, fp string) (*dataset.TableSet, bool) {
	tables, ok, err := s.cache.Get(ctx, fp)
	if err != nil {
		log.Warn("Dataset cache lookup failed", zap.String("backend", s.cache.Backend()), zap.Error(err))
		ok = false
	}
	s.metrics.RecordCacheLookup(ctx, s.cache.Backend(), ok)
	return tables, ok && tables != nil
}

func (s *Service) invalidate(ctx context.Context, log *zap.Logger, fp string) {
	if err := s.cache.Delete(ctx, fp); err != nil {
		log.Warn("Failed to invalidate cached dataset", zap.String("fingerprint", fp), zap.Error(err))
		return
	}
	log.Debug("Cached dataset invalidated", zap.String("fingerprint", fp))
}

// build runs load, normalize and enrich
func (s *Service) build(ctx context.Context) (*dataset.TableSet, error) {
	var raw dataset.RawTableSet
	err := s.stage(ctx, StageLoad, func(ctx context.Context) error {
		var err error
		raw, err = s.loader.Load(ctx)
		if err != nil {
			return noData(err)
		}
		if len(raw) == 0 {
			return shared.ErrNoDataAvailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var ts *dataset.TableSet
	if err := s.stage(ctx, StageNormalize, func(context.Context) error {
		var err error
		ts, err = dataset.Normalize(raw)
		return err
	}); err != nil {
		return nil, err
	}

	if err := s.stage(ctx, StageEnrich, func(context.Context) error {
		var err error
		ts, err = dataset.Enrich(ts)
		return err
	}); err != nil {
		return nil, err
	}
	return ts, nil
}

// stage runs fn inside a stage span and records its duration
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := telemetry.StartStageSpan(ctx, component, name)
	defer span.End()

	start := s.now()
	err := fn(ctx)
	s.metrics.RecordStage(ctx, name, s.now().Sub(start))
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// fail publishes the error so that no stale dashboard is served
func (s *Service) fail(ctx context.Context, log *zap.Logger, err error) {
	s.current.Store(&state{err: err})
	switch {
	case errors.Is(err, shared.ErrNoDataAvailable):
		log.Warn("No data available", zap.Error(err))
	default:
		log.Error("Dataset build failed", zap.Error(err))
	}
}

func (s *Service) options(ts *dataset.TableSet) []FacetOptions {
	tables := analytics.TablesOf(ts)
	out := make([]FacetOptions, 0, len(s.facets))
	for _, f := range s.facets {
		out = append(out, FacetOptions{Facet: f, Values: analytics.Options(tables, f)})
	}
	return out
}

// snapshot returns the published snapshot or the error that replaced it
func (s *Service) snapshot() (*snapshot, error) {
	st := s.current.Load()
	if st == nil {
		return nil, shared.ErrNoDataAvailable
	}
	if st.err != nil {
		return nil, st.err
	}
	return st.snap, nil
}

// Options returns the selectable values of every facet
func (s *Service) Options(ctx context.Context) ([]FacetOptions, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]FacetOptions, len(snap.options))
	for i, o := range snap.options {
		out[i] = FacetOptions{Facet: o.Facet, Values: slices.Clone(o.Values)}
	}
	return out, nil
}

// Status describes the snapshot being served
func (s *Service) Status() Status {
	st := s.current.Load()
	switch {
	case st == nil:
		return Status{Error: shared.ErrNoDataAvailable.Error()}
	case st.err != nil:
		return Status{Error: st.err.Error()}
	default:
		return Status{
			Ready:       true,
			Fingerprint: st.snap.fingerprint,
			LoadedAt:    st.snap.loadedAt,
			Orders:      len(st.snap.tables.Orders),
		}
	}
}

// NormalizeSelection drops empty values and duplicates, sorts each facet's
// values and rejects facet names that are not configured.
func (s *Service) NormalizeSelection(sel analytics.Selection) (analytics.Selection, error) {
	out := make(analytics.Selection, len(sel))
	for name, values := range sel {
		if _, ok := analytics.FacetByName(s.facets, name); !ok {
			return nil, fmt.Errorf("%w: unknown facet '%s'", shared.ErrInvalidInput, name)
		}
		clean := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				clean = append(clean, v)
			}
		}
		slices.Sort(clean)
		clean = slices.Compact(clean)
		if len(clean) > 0 {
			out[name] = clean
		}
	}
	return out, nil
}

// Compute filters the snapshot by sel and builds every aggregate. The result
// is assembled from one snapshot and returned whole.
func (s *Service) Compute(ctx context.Context, sel analytics.Selection) (res *Result, err error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	sel, err = s.NormalizeSelection(sel)
	if err != nil {
		return nil, err
	}

	start := s.now()
	runID := uuid.New()
	ctx, log := logger.WithRunID(ctx, s.logger, runID.String())
	ctx, span := telemetry.StartSpan(ctx, component+".compute",
		telemetry.WithAttribute(telemetry.SpanAttrRunID, runID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrFingerprint, snap.fingerprint),
	)
	defer func() {
		filtered := 0
		if res != nil {
			filtered = res.Tables.OrderIDs.Len()
		}
		s.metrics.RecordCompute(ctx, s.now().Sub(start), filtered, err)
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	for name, values := range sel {
		telemetry.AddEvent(span, "facet.selected",
			telemetry.SpanAttrFacet, name,
			telemetry.SpanAttrSelected, values,
		)
	}

	var ft *analytics.FilteredTables
	if err := s.stage(ctx, StageFilter, func(context.Context) error {
		var err error
		ft, err = analytics.Filter(snap.tables, s.graph, s.facets, sel)
		return err
	}); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrMatched, ft.OrderIDs.Len())

	res = &Result{
		RunID:       runID,
		Fingerprint: snap.fingerprint,
		GeneratedAt: s.now().UTC(),
		Selection:   sel,
		Tables:      ft,
	}
	_ = s.stage(ctx, StageAggregate, func(context.Context) error {
		res.KPIs = analytics.ComputeKPIs(ft)
		res.MonthlyRevenue = analytics.MonthlyRevenue(ft)
		res.ScoreDistribution = analytics.ReviewScoreDistribution(ft)
		res.DeliveryByScore = analytics.DeliveryTimeByScore(ft)
		res.GeoDensity = analytics.GeoDensity(ft, snap.tables.Geolocation)
		res.DeliveryStatusCounts = analytics.DeliveryStatusCounts(ft)
		res.RevenueByCategory = analytics.RevenueByCategory(ft, s.cfg.TopCategories)
		res.Preview = analytics.PreviewOrders(ft, s.cfg.PreviewRows)
		return nil
	})

	log.Debug("Dashboard computed",
		zap.Int("matched_orders", ft.OrderIDs.Len()),
		zap.Int("facets_constrained", len(sel)),
		zap.Duration("duration", s.now().Sub(start)),
	)
	return res, nil
}

// noData marks a loader failure as shared.ErrNoDataAvailable, keeping the cause
func noData(err error) error {
	if errors.Is(err, shared.ErrNoDataAvailable) {
		return err
	}
	return fmt.Errorf("%w: %w", shared.ErrNoDataAvailable, err)
}
