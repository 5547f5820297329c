// Package geo encodes map and globe renders as GeoJSON FeatureCollections.
package geo

import (
	"fmt"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	geojson "github.com/paulmach/go.geojson"
)

// EncodeMap encodes the map's bubbles as Point features. Map-level
// fields are repeated on every feature since a FeatureCollection carries no
// properties of its own.
func EncodeMap(m domain.CategoricalMap) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, p := range m.Points {
		f := geojson.NewPointFeature([]float64{p.Geo.Lon, p.Geo.Lat})
		f.SetProperty("entity", p.Entity)
		f.SetProperty("value", p.Value)
		f.SetProperty("category", p.Category)
		f.SetProperty("color", p.Color)
		f.SetProperty("size", p.Size)
		f.SetProperty("date", m.DateHeader)
		f.SetProperty("basemap", m.Basemap)
		fc.AddFeature(f)
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode map geojson: %w", err)
	}
	return body, nil
}

// EncodeScene flattens the scene's layers in draw order. Altitude is the
// third coordinate and layer the draw position.
func EncodeScene(scene domain.GlobeScene) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i, layer := range scene.Layers {
		for _, m := range layer.Markers {
			f := geojson.NewPointFeature([]float64{m.Geo.Lon, m.Geo.Lat, m.Altitude})
			f.SetProperty("entity", m.Entity)
			f.SetProperty("value", m.Value)
			f.SetProperty("bucket", int(m.Bucket))
			f.SetProperty("size", m.Size)
			f.SetProperty("opacity", m.Opacity)
			f.SetProperty("halo", m.Halo)
			f.SetProperty("layer", i)
			fc.AddFeature(f)
		}
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode globe geojson: %w", err)
	}
	return body, nil
}
