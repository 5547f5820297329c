package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Deaths(t *testing.T) {
	tests := []struct {
		value  float64
		bucket Bucket
		size   float64
	}{
		{0, 1, 4},
		{999, 1, 4},
		{1_000, 2, 8},
		{9_999, 2, 8},
		{10_000, 3, 12},
		{100_000, 4, 20},
		{499_999, 4, 20},
		{500_000, 5, 35},
		{1_000_000, 6, 50},
		{5_000_000, 6, 50},
	}
	for _, tt := range tests {
		c, err := Classify(tt.value, MetricDeaths)
		require.NoError(t, err)
		assert.Equal(t, tt.bucket, c.Bucket, "deaths %v", tt.value)
		assert.Equal(t, tt.size, c.Size, "deaths %v", tt.value)
	}
}

func TestClassify_Cases(t *testing.T) {
	tests := []struct {
		value  float64
		bucket Bucket
		size   float64
	}{
		{0, 1, 4},
		{299_999, 1, 4},
		{300_000, 2, 8},
		{1_000_000, 3, 12},
		{10_000_000, 4, 20},
		{25_000_000, 5, 35},
		{99_999_999, 5, 35},
		{100_000_000, 6, 50},
	}
	for _, tt := range tests {
		c, err := Classify(tt.value, MetricCases)
		require.NoError(t, err)
		assert.Equal(t, tt.bucket, c.Bucket, "cases %v", tt.value)
		assert.Equal(t, tt.size, c.Size, "cases %v", tt.value)
	}
}

func TestClassify_NegativeAndNaN(t *testing.T) {
	for _, kind := range []MetricKind{MetricCases, MetricDeaths} {
		for _, v := range []float64{-1, -1e9, math.NaN(), math.Inf(-1)} {
			c, err := Classify(v, kind)
			require.NoError(t, err)
			assert.Equal(t, MinBucket, c.Bucket)
		}
	}
}

func TestClassify_Monotonic(t *testing.T) {
	for _, kind := range []MetricKind{MetricCases, MetricDeaths} {
		prev := Classification{Bucket: 0}
		for v := 0.0; v <= 2e8; v += 12_345 {
			c, err := Classify(v, kind)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, c.Bucket, prev.Bucket, "%s %v", kind, v)
			assert.GreaterOrEqual(t, c.Size, prev.Size, "%s %v", kind, v)
			prev = c
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	a, err := Classify(123_456, MetricDeaths)
	require.NoError(t, err)
	b, err := Classify(123_456, MetricDeaths)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClassify_UnknownMetric(t *testing.T) {
	_, err := Classify(10, MetricKind("recovered"))
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestParseMetricKind(t *testing.T) {
	k, err := ParseMetricKind("deaths")
	require.NoError(t, err)
	assert.Equal(t, MetricDeaths, k)

	_, err = ParseMetricKind("Deaths")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestSpreadCategory(t *testing.T) {
	assert.Equal(t, CategoryEarly, SpreadCategory(1))
	assert.Equal(t, CategoryEarly, SpreadCategory(99.9))
	assert.Equal(t, CategorySpreading, SpreadCategory(100))
	assert.Equal(t, CategorySpreading, SpreadCategory(1e9))
}

func TestSpreadCategory_IndependentOfClassify(t *testing.T) {
	// 150 deaths is still bucket 1 on the globe but already spreading on the 2D map.
	c, err := Classify(150, MetricDeaths)
	require.NoError(t, err)
	assert.Equal(t, MinBucket, c.Bucket)
	assert.Equal(t, CategorySpreading, SpreadCategory(150))
}
