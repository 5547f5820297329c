package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func days(n int) []time.Time {
	start := time.Date(2020, time.January, 22, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func testCurves() []domain.GrowthCurve {
	deaths := domain.TimeSeries{Times: days(3), Values: []float64{17, 24, 40}}
	return []domain.GrowthCurve{
		{Entity: "Mainland China", Cases: domain.TimeSeries{Times: days(3), Values: []float64{548, 643, 920}}, Deaths: &deaths},
		{Entity: "Italy", Cases: domain.TimeSeries{Times: days(3), Values: []float64{0, 0, 2}}},
	}
}

func TestRankingBar(t *testing.T) {
	r := domain.Ranking{
		Dataset: domain.DatasetGlobal,
		Latest:  "1/24/20",
		Rows: []domain.RankingRow{
			{Entity: "Mainland China", Value: 920, Rank: 1},
			{Entity: "Thailand", Value: 5, Rank: 2},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RankingBar(&buf, r, Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRankingBar_AllZero(t *testing.T) {
	r := domain.Ranking{Rows: []domain.RankingRow{{Entity: "Italy", Rank: 1}}}

	var buf bytes.Buffer
	require.NoError(t, RankingBar(&buf, r, Options{Width: 300, Height: 200}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRankingBar_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := RankingBar(&buf, domain.Ranking{}, Options{})
	require.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestGrowthLines_Cases(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GrowthLines(&buf, testCurves(), domain.MetricCases, Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestGrowthLines_DeathsSkipsMissing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GrowthLines(&buf, testCurves(), domain.MetricDeaths, Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	onlyItaly := testCurves()[1:]
	err := GrowthLines(&buf, onlyItaly, domain.MetricDeaths, Options{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGrowthLines_SinglePoint(t *testing.T) {
	curves := []domain.GrowthCurve{{Entity: "Italy", Cases: domain.TimeSeries{Times: days(1), Values: []float64{1}}}}

	var buf bytes.Buffer
	assert.ErrorIs(t, GrowthLines(&buf, curves, domain.MetricCases, Options{}), ErrNoData)
}

func TestGrowthLines_UnknownMetric(t *testing.T) {
	var buf bytes.Buffer
	err := GrowthLines(&buf, testCurves(), domain.MetricKind("recovered"), Options{})
	assert.ErrorIs(t, err, domain.ErrUnknownMetric)
}
