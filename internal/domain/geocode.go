package domain

import (
	"context"
	"log/slog"
)

// countryHint qualifies geocoding queries for datasets whose entities are
// sub-national.
var countryHint = map[Dataset]string{
	DatasetUS: "United States",
}

// BackfillCoordinates forward-geocodes entities whose aggregated coordinate is
// the (0,0) placeholder. Rows are copied; lookups that fail or come back empty
// leave the placeholder in place (graceful degradation). It returns the new
// rows and the number of entities that were filled.
func BackfillCoordinates(ctx context.Context, table SeriesTable, geocoder Geocoder, logger *slog.Logger) (SeriesTable, int) {
	out := table
	out.Rows = make([]AggregatedSeries, len(table.Rows))
	for i, r := range table.Rows {
		r.Values = append([]float64(nil), r.Values...)
		out.Rows[i] = r
	}

	if geocoder == nil {
		return out, 0
	}

	filled := 0
	for i, r := range out.Rows {
		if !r.Geo.IsZero() {
			continue
		}
		result, err := geocoder.ForwardGeocode(ctx, r.Entity, countryHint[table.Dataset])
		if err != nil {
			logger.Warn("forward geocoding failed",
				"entity", r.Entity,
				"dataset", table.Dataset,
				"error", err,
			)
			continue
		}
		if result.Empty() {
			logger.Debug("geocoder returned no coordinates", "entity", r.Entity)
			continue
		}
		out.Rows[i].Geo = Geo{Lat: result.Lat, Lon: result.Lon}
		filled++
	}
	return out, filled
}
