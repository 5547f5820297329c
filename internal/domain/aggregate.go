package domain

import "fmt"

// group accumulates the contributing rows of one canonical entity. The row
// count is only needed for the coordinate mean and never leaves this file.
type group struct {
	entity string
	latSum float64
	lonSum float64
	count  int
	sums   []float64
}

// Aggregate collapses rows sharing a canonical entity into one series per
// entity: coordinates reduce by arithmetic mean, every date column by sum.
// Rows must already be canonicalized. Output follows the order in which each
// entity first appears.
func Aggregate(rows []RawRow, dateHeaders []string) ([]AggregatedSeries, error) {
	index := make(map[string]int)
	groups := make([]*group, 0)

	for i, r := range rows {
		if len(r.Values) != len(dateHeaders) {
			return nil, fmt.Errorf("aggregate row %d (%s): %d values for %d date columns",
				i, r.Entity, len(r.Values), len(dateHeaders))
		}

		gi, ok := index[r.Entity]
		if !ok {
			gi = len(groups)
			index[r.Entity] = gi
			groups = append(groups, &group{
				entity: r.Entity,
				sums:   make([]float64, len(dateHeaders)),
			})
		}

		g := groups[gi]
		g.latSum += r.Geo.Lat
		g.lonSum += r.Geo.Lon
		g.count++
		for j, v := range r.Values {
			g.sums[j] += v
		}
	}

	out := make([]AggregatedSeries, len(groups))
	for i, g := range groups {
		n := float64(g.count)
		out[i] = AggregatedSeries{
			Entity: g.entity,
			Geo:    Geo{Lat: g.latSum / n, Lon: g.lonSum / n},
			Values: g.sums,
		}
	}
	return out, nil
}

// BuildSeriesTable canonicalizes and aggregates a raw table and attaches its
// parsed time axis.
func BuildSeriesTable(raw RawTable) (SeriesTable, error) {
	rows, err := Aggregate(CanonicalizeRows(raw.Rows), raw.DateHeaders)
	if err != nil {
		return SeriesTable{}, fmt.Errorf("build %s %s table: %w", raw.Dataset, raw.Metric, err)
	}
	return SeriesTable{
		Dataset: raw.Dataset,
		Metric:  raw.Metric,
		Axis:    ParseTimeAxis(raw.DateHeaders),
		Rows:    rows,
	}, nil
}

// MaxValue returns the largest value in the table across every entity and
// every date that parsed. Columns with unparsable headers are skipped.
func (t SeriesTable) MaxValue() float64 {
	var peak float64
	for _, r := range t.Rows {
		for j, v := range r.Values {
			if j >= len(t.Axis.Valid) || !t.Axis.Valid[j] {
				continue
			}
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}
