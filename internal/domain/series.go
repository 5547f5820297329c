package domain

import "time"

// Dataset identifies which source family a table came from.
type Dataset string

const (
	DatasetGlobal Dataset = "global"
	DatasetUS     Dataset = "us"
)

// ParseDataset maps a transport-level name to a Dataset.
func ParseDataset(s string) (Dataset, error) {
	switch Dataset(s) {
	case DatasetGlobal, DatasetUS:
		return Dataset(s), nil
	default:
		return "", ErrUnknownDataset
	}
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsZero reports whether the coordinate is the (0,0) placeholder used by the
// source files for rows without a location.
func (g Geo) IsZero() bool {
	return g.Lat == 0 && g.Lon == 0
}

// RawRow is one source record. Values are aligned with the owning table's
// date headers.
type RawRow struct {
	Entity    string
	SubRegion string
	Geo       Geo
	Values    []float64
}

// RawTable is a loaded source file before canonicalization.
type RawTable struct {
	Dataset     Dataset
	Metric      MetricKind
	DateHeaders []string
	Rows        []RawRow
}

// AggregatedSeries is one row per canonical entity.
type AggregatedSeries struct {
	Entity string    `json:"entity"`
	Geo    Geo       `json:"geo"`
	Values []float64 `json:"values"`
}

// SeriesTable is an aggregated table together with its parsed time axis.
type SeriesTable struct {
	Dataset Dataset            `json:"dataset"`
	Metric  MetricKind         `json:"metric"`
	Axis    TimeAxis           `json:"axis"`
	Rows    []AggregatedSeries `json:"rows"`
}

// Find returns the row for entity, if present.
func (t SeriesTable) Find(entity string) (AggregatedSeries, bool) {
	for _, r := range t.Rows {
		if r.Entity == entity {
			return r, true
		}
	}
	return AggregatedSeries{}, false
}

// Locations returns an entity to coordinate lookup for the table.
func (t SeriesTable) Locations() map[string]Geo {
	out := make(map[string]Geo, len(t.Rows))
	for _, r := range t.Rows {
		out[r.Entity] = r.Geo
	}
	return out
}

// GlobeRow is one row of the preprocessed 3D dataset.
type GlobeRow struct {
	Entity string  `json:"entity"`
	Geo    Geo     `json:"geo"`
	Cases  float64 `json:"cases"`
	Deaths float64 `json:"deaths"`
}

// Bundle holds every table the visualizations read from. It is built once
// by the pipeline and treated as read-only afterwards.
type Bundle struct {
	GlobalCases  *SeriesTable `json:"global_cases,omitempty"`
	GlobalDeaths *SeriesTable `json:"global_deaths,omitempty"`
	USCases      *SeriesTable `json:"us_cases,omitempty"`
	USDeaths     *SeriesTable `json:"us_deaths,omitempty"`
	Globe        []GlobeRow   `json:"globe,omitempty"`
	BuiltAt      time.Time    `json:"built_at"`
}

// Table returns the series table for a dataset and metric, or nil when it was
// not loaded.
func (b *Bundle) Table(ds Dataset, kind MetricKind) *SeriesTable {
	if b == nil {
		return nil
	}
	switch {
	case ds == DatasetGlobal && kind == MetricCases:
		return b.GlobalCases
	case ds == DatasetGlobal && kind == MetricDeaths:
		return b.GlobalDeaths
	case ds == DatasetUS && kind == MetricCases:
		return b.USCases
	case ds == DatasetUS && kind == MetricDeaths:
		return b.USDeaths
	default:
		return nil
	}
}

// FocusLocations is the entity to coordinate lookup used by globe Focus.
// Globe rows win; entities only present in the global cases table fall back
// to their aggregated coordinate, unless that coordinate is unknown.
func (b *Bundle) FocusLocations() map[string]Geo {
	if b == nil {
		return map[string]Geo{}
	}
	out := GlobeLocations(b.Globe)
	if b.GlobalCases == nil {
		return out
	}
	for entity, geo := range b.GlobalCases.Locations() {
		if _, ok := out[entity]; ok || geo.IsZero() {
			continue
		}
		out[entity] = geo
	}
	return out
}

// SeriesRecord is an aggregated series tagged with its origin, the unit
// published to the message sink.
type SeriesRecord struct {
	Dataset     Dataset    `json:"dataset"`
	Metric      MetricKind `json:"metric"`
	Entity      string     `json:"entity"`
	Geo         Geo        `json:"geo"`
	Dates       []string   `json:"dates"`
	Values      []float64  `json:"values"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// Records flattens a table into sink records, keeping only plottable dates.
func (t SeriesTable) Records() []SeriesRecord {
	now := clock.Now()
	out := make([]SeriesRecord, 0, len(t.Rows))
	for _, r := range t.Rows {
		ts := t.Axis.Series(r.Values)
		dates := make([]string, len(ts.Times))
		for i, tm := range ts.Times {
			dates[i] = tm.Format(time.DateOnly)
		}
		out = append(out, SeriesRecord{
			Dataset:     t.Dataset,
			Metric:      t.Metric,
			Entity:      r.Entity,
			Geo:         r.Geo,
			Dates:       dates,
			Values:      ts.Values,
			ProcessedAt: now,
		})
	}
	return out
}
