package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
)

func TestEncodeMap(t *testing.T) {
	m := domain.CategoricalMap{
		DateHeader: "1/22/20",
		Basemap:    domain.BasemapStreets,
		Points: []domain.CategoricalPoint{
			{Entity: "Italy", Geo: domain.Geo{Lat: 41.8, Lon: 12.5}, Value: 3, Category: domain.CategoryEarly, Color: domain.ColorEarly, Size: 0.5},
		},
	}

	body, err := EncodeMap(m)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(body)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, []float64{12.5, 41.8}, f.Geometry.Point)
	assert.Equal(t, "Italy", f.Properties["entity"])
	assert.Equal(t, "1/22/20", f.Properties["date"])
	assert.Equal(t, domain.BasemapStreets, f.Properties["basemap"])
}

func TestEncodeMap_Empty(t *testing.T) {
	body, err := EncodeMap(domain.CategoricalMap{})
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(body)
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestEncodeScene_LayerOrderAndAltitude(t *testing.T) {
	scene := domain.GlobeScene{
		Layers: []domain.Layer{
			{Bucket: 1, Markers: []domain.RenderPoint{{Entity: "Fiji", Geo: domain.Geo{Lat: -17, Lon: 178}, Altitude: 40000}}},
			{Bucket: 5, Markers: []domain.RenderPoint{
				{Entity: "India", Geo: domain.Geo{Lat: 21, Lon: 78}, Altitude: 40100, Halo: true},
				{Entity: "India", Geo: domain.Geo{Lat: 21, Lon: 78}, Altitude: 40100},
			}},
		},
	}

	body, err := EncodeScene(scene)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(body)
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	assert.Equal(t, []float64{178, -17, 40000}, fc.Features[0].Geometry.Point)
	assert.InDelta(t, 0, fc.Features[0].Properties["layer"], 0)
	assert.InDelta(t, 1, fc.Features[1].Properties["layer"], 0)
	assert.Equal(t, true, fc.Features[1].Properties["halo"])
	assert.Equal(t, false, fc.Features[2].Properties["halo"])
}
