package domain

import "fmt"

// MetricKind selects which threshold table applies to a value.
type MetricKind string

const (
	MetricCases  MetricKind = "cases"
	MetricDeaths MetricKind = "deaths"
)

// ParseMetricKind maps a transport-level name to a MetricKind.
func ParseMetricKind(s string) (MetricKind, error) {
	switch MetricKind(s) {
	case MetricCases, MetricDeaths:
		return MetricKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Bucket is a severity class, 1 (smallest) through 6 (largest).
type Bucket int

const (
	MinBucket Bucket = 1
	MaxBucket Bucket = 6
)

// Classification is the result of bucketing one value.
type Classification struct {
	Bucket Bucket  `json:"bucket"`
	Size   float64 `json:"size"`
}

// step is one row of a threshold table: values at or above lower belong to
// bucket, drawn at size.
type step struct {
	lower  float64
	bucket Bucket
	size   float64
}

// Thresholds are inclusive lower bounds in ascending order.
var (
	deathSteps = []step{
		{0, 1, 4},
		{1_000, 2, 8},
		{10_000, 3, 12},
		{100_000, 4, 20},
		{500_000, 5, 35},
		{1_000_000, 6, 50},
	}
	caseSteps = []step{
		{0, 1, 4},
		{300_000, 2, 8},
		{1_000_000, 3, 12},
		{10_000_000, 4, 20},
		{25_000_000, 5, 35},
		{100_000_000, 6, 50},
	}
)

// Classify maps a metric value to its severity bucket and marker size.
// Negative values and NaN fall into bucket 1. An unknown kind returns
// ErrUnknownMetric.
func Classify(value float64, kind MetricKind) (Classification, error) {
	var steps []step
	switch kind {
	case MetricCases:
		steps = caseSteps
	case MetricDeaths:
		steps = deathSteps
	default:
		return Classification{}, fmt.Errorf("classify: %w: %q", ErrUnknownMetric, kind)
	}

	for i := len(steps) - 1; i > 0; i-- {
		if value >= steps[i].lower {
			return Classification{Bucket: steps[i].bucket, Size: steps[i].size}, nil
		}
	}
	return Classification{Bucket: steps[0].bucket, Size: steps[0].size}, nil
}

// SpreadCategory is the coarse two-class rule of the 2D map: "<100" means no
// meaningful spread yet, ">=100" means spread is underway. It is independent
// of the metric kind.
func SpreadCategory(value float64) string {
	if value >= SpreadThreshold {
		return CategorySpreading
	}
	return CategoryEarly
}

const (
	// SpreadThreshold separates the two 2D map categories.
	SpreadThreshold = 100

	CategoryEarly     = "<100"
	CategorySpreading = ">=100"
)
