package domain

import (
	"fmt"
	"time"
)

// Marker colours of the two 2D map categories.
const (
	ColorEarly     = "#0072BD"
	ColorSpreading = "#D95319"
)

// Basemap style tokens understood by the rendering surface.
const (
	BasemapDarkWater = "darkwater"
	BasemapGrayLand  = "grayland"
	BasemapSatellite = "satellite"
	BasemapStreets   = "streets-dark"
)

// MapView is a fixed camera for a dataset; it is never derived from data.
type MapView struct {
	Center Geo     `json:"center"`
	Zoom   float64 `json:"zoom"`
}

var views = map[Dataset]struct {
	view    MapView
	basemap string
}{
	DatasetGlobal: {MapView{Center: Geo{Lat: 20, Lon: 0}, Zoom: 1.5}, BasemapDarkWater},
	DatasetUS:     {MapView{Center: Geo{Lat: 39.8, Lon: -98.6}, Zoom: 3.5}, BasemapGrayLand},
}

// ViewFor returns the fixed camera and default basemap for a dataset.
func ViewFor(ds Dataset) (MapView, string, error) {
	v, ok := views[ds]
	if !ok {
		return MapView{}, "", fmt.Errorf("%w: %q", ErrUnknownDataset, ds)
	}
	return v.view, v.basemap, nil
}

// SizeLimits is the bubble size legend range.
type SizeLimits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CategoricalPoint is one bubble on the 2D map.
type CategoricalPoint struct {
	Entity   string  `json:"entity"`
	Geo      Geo     `json:"geo"`
	Value    float64 `json:"value"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
	// Size is Value normalised against SizeLimits.Max, in [0,1].
	Size float64 `json:"size"`
}

// CategoricalMap is a render-ready 2D bubble map for one date.
type CategoricalMap struct {
	Dataset    Dataset            `json:"dataset"`
	Metric     MetricKind         `json:"metric"`
	Date       time.Time          `json:"date"`
	DateHeader string             `json:"date_header"`
	Basemap    string             `json:"basemap"`
	View       MapView            `json:"view"`
	SizeLimits SizeLimits         `json:"size_limits"`
	Points     []CategoricalPoint `json:"points"`
}

// BuildCategoricalMap selects one date column, drops zero-valued entities and
// tags the rest with their spread category. The size legend spans the whole
// table so maps of different dates are comparable side by side. An empty
// basemap selects the dataset default.
func BuildCategoricalMap(table SeriesTable, dateIndex int, basemap string) (CategoricalMap, error) {
	if dateIndex < 0 || dateIndex >= table.Axis.Len() {
		return CategoricalMap{}, fmt.Errorf("%w: %d of %d", ErrDateIndexOutOfRange, dateIndex, table.Axis.Len())
	}
	if !table.Axis.Valid[dateIndex] {
		return CategoricalMap{}, fmt.Errorf("%w: %q", ErrInvalidDate, table.Axis.Headers[dateIndex])
	}

	view, defaultBasemap, err := ViewFor(table.Dataset)
	if err != nil {
		return CategoricalMap{}, err
	}
	if basemap == "" {
		basemap = defaultBasemap
	}

	limits := SizeLimits{Max: table.MaxValue()}

	points := make([]CategoricalPoint, 0, len(table.Rows))
	for _, r := range table.Rows {
		v := r.Values[dateIndex]
		if v == 0 {
			continue
		}
		cat := SpreadCategory(v)
		color := ColorEarly
		if cat == CategorySpreading {
			color = ColorSpreading
		}
		var size float64
		if limits.Max > 0 {
			size = v / limits.Max
		}
		points = append(points, CategoricalPoint{
			Entity:   r.Entity,
			Geo:      r.Geo,
			Value:    v,
			Category: cat,
			Color:    color,
			Size:     size,
		})
	}

	return CategoricalMap{
		Dataset:    table.Dataset,
		Metric:     table.Metric,
		Date:       table.Axis.Times[dateIndex],
		DateHeader: table.Axis.Headers[dateIndex],
		Basemap:    basemap,
		View:       view,
		SizeLimits: limits,
		Points:     points,
	}, nil
}
