package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/pandemic-map-etl/internal/config"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/couchcryptid/pandemic-map-etl/internal/observability"
)

// TableSource reads the raw source tables.
type TableSource interface {
	LoadTable(path string, ds domain.Dataset, metric domain.MetricKind) (domain.RawTable, error)
	LoadGlobe(path string) ([]domain.GlobeRow, error)
}

// Transformer turns a raw table into an aggregated series table.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawTable) (domain.SeriesTable, error)
}

// BatchLoader writes aggregated series records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.SeriesRecord) error
}

// Sources names the input files. An empty path skips that table.
type Sources struct {
	CasesGlobal  string
	DeathsGlobal string
	CasesUS      string
	DeathsUS     string
	Globe        string
}

// SourcesFromConfig copies the configured source paths.
func SourcesFromConfig(cfg *config.Config) Sources {
	return Sources{
		CasesGlobal:  cfg.CasesGlobalPath,
		DeathsGlobal: cfg.DeathsGlobalPath,
		CasesUS:      cfg.CasesUSPath,
		DeathsUS:     cfg.DeathsUSPath,
		Globe:        cfg.GlobePath,
	}
}

const maxPublishAttempts = 5

// Pipeline builds the dataset bundle once and optionally publishes it.
type Pipeline struct {
	source      TableSource
	transformer Transformer
	loader      BatchLoader
	sources     Sources
	logger      *slog.Logger
	metrics     *observability.Metrics
	bundle      atomic.Pointer[domain.Bundle]
	ready       atomic.Bool
}

// New creates a Pipeline. A nil loader disables publishing.
func New(src TableSource, t Transformer, l BatchLoader, sources Sources, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:      src,
		transformer: t,
		loader:      l,
		sources:     sources,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once the bundle has been built.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("dataset bundle has not been built yet")
	}
	return nil
}

// Bundle returns the built bundle, or nil before Run has finished loading.
func (p *Pipeline) Bundle() *domain.Bundle {
	return p.bundle.Load()
}

// Run builds the bundle, marks the pipeline ready, then publishes every
// series to the loader if one is configured.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")

	bundle, err := p.Build(ctx)
	if err != nil {
		return err
	}
	p.bundle.Store(bundle)
	p.ready.Store(true)
	p.metrics.PipelineReady.Set(1)
	p.logger.Info("dataset bundle ready", "built_at", bundle.BuiltAt)

	if p.loader == nil {
		return nil
	}
	return p.publish(ctx, bundle)
}

type tableJob struct {
	path   string
	ds     domain.Dataset
	metric domain.MetricKind
	dst    **domain.SeriesTable
}

// Build loads and aggregates every configured table.
func (p *Pipeline) Build(ctx context.Context) (*domain.Bundle, error) {
	bundle := &domain.Bundle{}
	jobs := []tableJob{
		{p.sources.CasesGlobal, domain.DatasetGlobal, domain.MetricCases, &bundle.GlobalCases},
		{p.sources.DeathsGlobal, domain.DatasetGlobal, domain.MetricDeaths, &bundle.GlobalDeaths},
		{p.sources.CasesUS, domain.DatasetUS, domain.MetricCases, &bundle.USCases},
		{p.sources.DeathsUS, domain.DatasetUS, domain.MetricDeaths, &bundle.USDeaths},
	}

	for _, job := range jobs {
		if job.path == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := p.buildTable(ctx, job)
		if err != nil {
			return nil, err
		}
		*job.dst = &table
	}

	if p.sources.Globe != "" {
		start := time.Now()
		rows, err := p.source.LoadGlobe(p.sources.Globe)
		if err != nil {
			return nil, fmt.Errorf("load globe table: %w", err)
		}
		bundle.Globe = domain.CanonicalizeGlobeRows(rows)
		p.metrics.StageDuration.WithLabelValues("globe").Observe(time.Since(start).Seconds())
		p.logger.Info("globe table loaded", "rows", len(rows), "path", p.sources.Globe)
	}

	bundle.BuiltAt = domain.Now()
	return bundle, nil
}

func (p *Pipeline) buildTable(ctx context.Context, job tableJob) (domain.SeriesTable, error) {
	labels := []string{string(job.ds), string(job.metric)}

	start := time.Now()
	raw, err := p.source.LoadTable(job.path, job.ds, job.metric)
	if err != nil {
		return domain.SeriesTable{}, fmt.Errorf("extract %s %s: %w", job.ds, job.metric, err)
	}
	p.metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	p.metrics.RowsLoaded.WithLabelValues(labels...).Add(float64(len(raw.Rows)))

	start = time.Now()
	table, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		return domain.SeriesTable{}, fmt.Errorf("transform %s %s: %w", job.ds, job.metric, err)
	}
	p.metrics.StageDuration.WithLabelValues("transform").Observe(time.Since(start).Seconds())
	p.metrics.EntitiesAggregated.WithLabelValues(labels...).Set(float64(len(table.Rows)))

	if invalid := table.Axis.Invalid(); len(invalid) > 0 {
		p.metrics.DateHeaderErrors.WithLabelValues(labels...).Add(float64(len(invalid)))
		p.logger.Warn("excluding unparseable date columns",
			"dataset", job.ds,
			"metric", job.metric,
			"headers", invalid,
		)
	}

	p.logger.Info("table aggregated",
		"dataset", job.ds,
		"metric", job.metric,
		"rows", len(raw.Rows),
		"entities", len(table.Rows),
		"dates", table.Axis.Len(),
	)
	return table, nil
}

// publish writes each table to the loader, retrying with exponential backoff.
func (p *Pipeline) publish(ctx context.Context, bundle *domain.Bundle) error {
	for _, table := range []*domain.SeriesTable{bundle.GlobalCases, bundle.GlobalDeaths, bundle.USCases, bundle.USDeaths} {
		if table == nil || len(table.Rows) == 0 {
			continue
		}
		records := table.Records()
		if err := p.loadWithRetry(ctx, records); err != nil {
			return fmt.Errorf("publish %s %s: %w", table.Dataset, table.Metric, err)
		}
		p.metrics.RecordsPublished.Add(float64(len(records)))
		p.logger.Info("series published", "dataset", table.Dataset, "metric", table.Metric, "records", len(records))
	}
	return nil
}

func (p *Pipeline) loadWithRetry(ctx context.Context, records []domain.SeriesRecord) error {
	// Start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		start := time.Now()
		if err = p.loader.LoadBatch(ctx, records); err == nil {
			p.metrics.StageDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(records), "attempt", attempt)
		if attempt == maxPublishAttempts || !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
