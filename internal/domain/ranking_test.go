package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankingTable(values ...float64) SeriesTable {
	names := []string{"A", "B", "C", "D", "E", "F"}
	t := SeriesTable{
		Dataset: DatasetGlobal,
		Metric:  MetricCases,
		Axis:    ParseTimeAxis([]string{"1/22/20", "1/23/20"}),
	}
	for i, v := range values {
		t.Rows = append(t.Rows, AggregatedSeries{Entity: names[i], Values: []float64{v / 2, v}})
	}
	return t
}

func TestBuildRanking_StableTieBreak(t *testing.T) {
	r := BuildRanking(rankingTable(500, 9000, 200, 9000), nil, 2)

	require.Len(t, r.Rows, 2)
	assert.Equal(t, RankingRow{Entity: "B", Value: 9000, Rank: 1}, r.Rows[0])
	assert.Equal(t, RankingRow{Entity: "D", Value: 9000, Rank: 2}, r.Rows[1])
	assert.Equal(t, "1/23/20", r.Latest)
}

func TestBuildRanking_ClampsK(t *testing.T) {
	r := BuildRanking(rankingTable(500, 9000, 200, 9000), nil, 10)

	require.Len(t, r.Rows, 4)
	require.Len(t, r.Growth, 4)
	assert.Equal(t, []string{"B", "D", "A", "C"}, entities(r.Rows))
}

func TestBuildRanking_DefaultK(t *testing.T) {
	table := SeriesTable{Axis: ParseTimeAxis([]string{"1/22/20"})}
	for i := 0; i < 30; i++ {
		table.Rows = append(table.Rows, AggregatedSeries{Entity: string(rune('a' + i)), Values: []float64{float64(i)}})
	}

	r := BuildRanking(table, nil, 0)
	assert.Len(t, r.Rows, DefaultTopK)
	assert.Equal(t, 29.0, r.Rows[0].Value)
}

func TestBuildRanking_UsesLatestValidColumn(t *testing.T) {
	table := SeriesTable{
		Axis: ParseTimeAxis([]string{"1/22/20", "1/23/20", "broken"}),
		Rows: []AggregatedSeries{
			{Entity: "X", Values: []float64{1, 10, 1000}},
			{Entity: "Y", Values: []float64{1, 20, 0}},
		},
	}

	r := BuildRanking(table, nil, 5)
	assert.Equal(t, []string{"Y", "X"}, entities(r.Rows))
	assert.Equal(t, "1/23/20", r.Latest)
}

func TestBuildRanking_GrowthCurves(t *testing.T) {
	cases := rankingTable(100, 300)
	deaths := SeriesTable{
		Axis: cases.Axis,
		Rows: []AggregatedSeries{{Entity: "B", Values: []float64{1, 3}}},
	}

	r := BuildRanking(cases, &deaths, 5)

	require.Len(t, r.Growth, 2)
	assert.Equal(t, "B", r.Growth[0].Entity)
	assert.Equal(t, []float64{150, 300}, r.Growth[0].Cases.Values)
	require.NotNil(t, r.Growth[0].Deaths)
	assert.Equal(t, []float64{1, 3}, r.Growth[0].Deaths.Values)
	assert.Nil(t, r.Growth[1].Deaths, "A has no deaths row")
}

func TestBuildRanking_DoesNotReorderInput(t *testing.T) {
	cases := rankingTable(1, 2, 3)
	_ = BuildRanking(cases, nil, 3)
	assert.Equal(t, "A", cases.Rows[0].Entity)
}

func TestBuildRanking_NoValidDates(t *testing.T) {
	table := SeriesTable{Axis: ParseTimeAxis([]string{"x"}), Rows: []AggregatedSeries{{Entity: "A", Values: []float64{1}}}}
	r := BuildRanking(table, nil, 5)
	assert.Empty(t, r.Rows)
}

func TestCompareEntities(t *testing.T) {
	cases := SeriesTable{
		Axis: ParseTimeAxis([]string{"1/22/20"}),
		Rows: []AggregatedSeries{
			{Entity: "Mainland China", Values: []float64{548}},
			{Entity: "Italy", Values: []float64{0}},
		},
	}

	curves := CompareEntities(cases, nil, []string{"Italy", "China", "Atlantis"})

	require.Len(t, curves, 2)
	assert.Equal(t, "Italy", curves[0].Entity)
	assert.Equal(t, "Mainland China", curves[1].Entity, "raw spellings are canonicalized")
}

func entities(rows []RankingRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Entity
	}
	return out
}
