package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/couchcryptid/pandemic-map-etl/internal/observability"
)

// SeriesTransformer implements Transformer by canonicalizing and aggregating
// the raw rows, then optionally back-filling placeholder coordinates.
type SeriesTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates a SeriesTransformer. Pass a nil geocoder to disable
// coordinate back-fill.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *SeriesTransformer {
	return &SeriesTransformer{
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

func (t *SeriesTransformer) Transform(ctx context.Context, raw domain.RawTable) (domain.SeriesTable, error) {
	table, err := domain.BuildSeriesTable(raw)
	if err != nil {
		return domain.SeriesTable{}, err
	}

	table, filled := domain.BackfillCoordinates(ctx, table, t.geocoder, t.logger)
	if filled > 0 {
		t.metrics.CoordinatesFilled.Add(float64(filled))
		t.logger.Info("coordinates back-filled", "dataset", table.Dataset, "metric", table.Metric, "entities", filled)
	}
	return table, nil
}
