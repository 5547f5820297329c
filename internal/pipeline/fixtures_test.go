package pipeline_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/couchcryptid/pandemic-map-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFixtureBundle(t *testing.T) (*domain.Bundle, *pipeline.Pipeline) {
	t.Helper()
	sources := pipeline.Sources{
		CasesGlobal:  filepath.Join("testdata", "confirmed_global.csv"),
		DeathsGlobal: filepath.Join("testdata", "deaths_global.csv"),
		CasesUS:      filepath.Join("testdata", "confirmed_US.csv"),
		Globe:        filepath.Join("testdata", "globe_totals.csv"),
	}
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(nil, slog.Default(), metrics)
	p := pipeline.New(csvsource.Source{}, tfm, nil, sources, slog.Default(), metrics)
	require.NoError(t, p.Run(context.Background()))

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DateHeaderErrors.WithLabelValues("global", "cases")), 0)
	assert.InDelta(t, 8, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("global", "cases")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(metrics.EntitiesAggregated.WithLabelValues("global", "cases")), 0)
	return p.Bundle(), p
}

func TestFixtures_GlobalAggregation(t *testing.T) {
	bundle, _ := buildFixtureBundle(t)
	cases := bundle.GlobalCases
	require.NotNil(t, cases)

	var names []string
	for _, r := range cases.Rows {
		names = append(names, r.Entity)
	}
	assert.Equal(t, []string{"Afghanistan", "Mainland China", "Hong Kong", "Italy", "South Korea", "Taiwan", "United States"}, names)

	china, ok := cases.Find("Mainland China")
	require.True(t, ok)
	assert.Equal(t, []float64{445, 453, 564, 564}, china.Values)

	assert.Equal(t, []string{"2/30/20"}, cases.Axis.Invalid())
	latest, ok := cases.Axis.Latest()
	require.True(t, ok)
	assert.Equal(t, "1/24/20", cases.Axis.Headers[latest])
}

func TestFixtures_Ranking(t *testing.T) {
	bundle, _ := buildFixtureBundle(t)

	r := domain.BuildRanking(*bundle.GlobalCases, bundle.GlobalDeaths, 3)
	assert.Equal(t, "1/24/20", r.Latest)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, "Mainland China", r.Rows[0].Entity)
	assert.Equal(t, "Taiwan", r.Rows[1].Entity)
	assert.Equal(t, "Hong Kong", r.Rows[2].Entity, "ties keep table order")

	require.NotNil(t, r.Growth[0].Deaths)
	assert.Equal(t, []float64{17, 17, 24}, r.Growth[0].Deaths.Values)
	assert.Len(t, r.Growth[0].Cases.Times, 3, "invalid date column is skipped")

	us := domain.BuildRanking(*bundle.USCases, nil, 0)
	require.Len(t, us.Rows, 3)
	assert.Equal(t, domain.RankingRow{Entity: "Washington", Value: 170, Rank: 1}, us.Rows[0])
	assert.Equal(t, "Grand Princess", us.Rows[1].Entity)
	assert.Nil(t, us.Growth[0].Deaths)
}

func TestFixtures_CategoricalMap(t *testing.T) {
	bundle, _ := buildFixtureBundle(t)

	m, err := domain.BuildCategoricalMap(*bundle.GlobalCases, 1, "")
	require.NoError(t, err)
	assert.Equal(t, domain.BasemapDarkWater, m.Basemap)
	assert.InDelta(t, 564, m.SizeLimits.Max, 0)

	byEntity := make(map[string]domain.CategoricalPoint)
	for _, p := range m.Points {
		byEntity[p.Entity] = p
	}
	assert.Len(t, byEntity, 5)
	assert.NotContains(t, byEntity, "Afghanistan")
	assert.NotContains(t, byEntity, "Italy")
	assert.Equal(t, domain.CategorySpreading, byEntity["Mainland China"].Category)
	assert.Equal(t, domain.ColorSpreading, byEntity["Mainland China"].Color)
	assert.Equal(t, domain.CategoryEarly, byEntity["Hong Kong"].Category)

	_, err = domain.BuildCategoricalMap(*bundle.GlobalCases, 3, "")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestFixtures_Globe(t *testing.T) {
	bundle, _ := buildFixtureBundle(t)
	require.Len(t, bundle.Globe, 5)

	g := domain.NewGlobe(domain.GlobeLocations(bundle.Globe), domain.GlobeOptions{Seed: 7})
	points, err := domain.PointsFromGlobeRows(bundle.Globe, domain.MetricCases)
	require.NoError(t, err)

	scene, err := g.Render(points, domain.MetricCases)
	require.NoError(t, err)

	markers := 0
	var prev domain.Bucket
	for _, layer := range scene.Layers {
		assert.Greater(t, layer.Bucket, prev)
		prev = layer.Bucket
		for _, m := range layer.Markers {
			if !m.Halo {
				markers++
			}
		}
	}
	assert.Equal(t, 5, markers)

	require.True(t, g.Focus("South Korea"))
	assert.Equal(t, domain.ViewFocused, g.State().Mode)
	assert.False(t, g.Focus("Korea, South"), "globe rows are canonicalized on load")
}
