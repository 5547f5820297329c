package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// ViewMode is the externally observable globe state.
type ViewMode string

const (
	ViewGlobal  ViewMode = "global"
	ViewFocused ViewMode = "focused"
)

// Bounds is a latitude/longitude window in degrees.
type Bounds struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// FullEarth is the window shown in the global state.
var FullEarth = Bounds{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180}

// Focus window half-extents around the selected entity.
const (
	focusLatSpan = 10
	focusLonSpan = 15
)

// NoSelection is the "nothing selected" sentinel; focusing it is a no-op.
const NoSelection = ""

// ViewState is the small serialisable camera state of a globe session.
type ViewState struct {
	Mode    ViewMode `json:"mode"`
	Entity  string   `json:"entity,omitempty"`
	Bounds  Bounds   `json:"bounds"`
	Basemap string   `json:"basemap"`
}

// Marker styling.
const (
	// HaloThreshold is the marker size above which a halo is drawn.
	HaloThreshold = 20
	haloScale     = 1.6
	haloOpacity   = 0.35
	markerOpacity = 0.9

	// JitterFraction bounds altitude jitter as a fraction of the base altitude.
	JitterFraction = 0.02
)

// baseAltitude in metres, per metric kind.
var baseAltitude = map[MetricKind]float64{
	MetricCases:  40_000,
	MetricDeaths: 25_000,
}

// GlobePoint is one input point of the globe renderer.
type GlobePoint struct {
	Entity string  `json:"entity"`
	Geo    Geo     `json:"geo"`
	Value  float64 `json:"value"`
}

// RenderPoint is a styled marker handed to the rendering surface.
type RenderPoint struct {
	Entity   string  `json:"entity"`
	Geo      Geo     `json:"geo"`
	Value    float64 `json:"value"`
	Bucket   Bucket  `json:"bucket"`
	Size     float64 `json:"size"`
	Altitude float64 `json:"altitude"`
	Opacity  float64 `json:"opacity"`
	Halo     bool    `json:"halo,omitempty"`
}

// Layer is every marker of one bucket, in draw order.
type Layer struct {
	Bucket  Bucket        `json:"bucket"`
	Markers []RenderPoint `json:"markers"`
}

// GlobeScene is one complete render. Layers are in ascending bucket order:
// the rendering surface must draw them first to last so larger markers are
// never hidden behind smaller ones.
type GlobeScene struct {
	Metric     MetricKind `json:"metric"`
	View       ViewState  `json:"view"`
	Layers     []Layer    `json:"layers"`
	RenderedAt time.Time  `json:"rendered_at"`
}

// GlobeOptions configures a Globe.
type GlobeOptions struct {
	DefaultBasemap string
	FocusBasemap   string
	Seed           uint64
}

// Globe is one interactive globe session. It owns its view state and is not
// safe for concurrent use.
type Globe struct {
	locations map[string]Geo
	opts      GlobeOptions
	rng       *rand.Rand
	state     ViewState
}

// NewGlobe creates a globe in the global state. locations maps entity keys to
// the coordinates used by Focus.
func NewGlobe(locations map[string]Geo, opts GlobeOptions) *Globe {
	if opts.DefaultBasemap == "" {
		opts.DefaultBasemap = BasemapSatellite
	}
	if opts.FocusBasemap == "" {
		opts.FocusBasemap = BasemapStreets
	}
	locs := make(map[string]Geo, len(locations))
	for k, v := range locations {
		locs[k] = v
	}
	g := &Globe{
		locations: locs,
		opts:      opts,
		rng:       rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
	g.Reset()
	return g
}

// State returns a copy of the current view state.
func (g *Globe) State() ViewState {
	return g.state
}

// Focus recentres the view on entity and switches to the close-up basemap.
// The no-selection sentinel and unknown entities leave the state unchanged;
// the return value reports whether the view moved.
func (g *Globe) Focus(entity string) bool {
	if entity == NoSelection {
		return false
	}
	geo, ok := g.locations[entity]
	if !ok {
		return false
	}
	g.state = ViewState{
		Mode:   ViewFocused,
		Entity: entity,
		Bounds: Bounds{
			LatMin: max(geo.Lat-focusLatSpan, -90),
			LatMax: min(geo.Lat+focusLatSpan, 90),
			LonMin: geo.Lon - focusLonSpan,
			LonMax: geo.Lon + focusLonSpan,
		},
		Basemap: g.opts.FocusBasemap,
	}
	return true
}

// Reset restores the full-earth window and the default basemap.
func (g *Globe) Reset() {
	g.state = ViewState{
		Mode:    ViewGlobal,
		Bounds:  FullEarth,
		Basemap: g.opts.DefaultBasemap,
	}
}

// Render buckets every point and returns the layered scene. An unknown metric
// kind aborts the render.
func (g *Globe) Render(points []GlobePoint, kind MetricKind) (GlobeScene, error) {
	base, ok := baseAltitude[kind]
	if !ok {
		return GlobeScene{}, fmt.Errorf("render globe: %w: %q", ErrUnknownMetric, kind)
	}

	byBucket := make(map[Bucket][]RenderPoint)
	for _, p := range points {
		c, err := Classify(p.Value, kind)
		if err != nil {
			return GlobeScene{}, fmt.Errorf("render globe: %w", err)
		}
		alt := base * (1 + (g.rng.Float64()*2-1)*JitterFraction)

		marker := RenderPoint{
			Entity:   p.Entity,
			Geo:      p.Geo,
			Value:    p.Value,
			Bucket:   c.Bucket,
			Size:     c.Size,
			Altitude: alt,
			Opacity:  markerOpacity,
		}
		if c.Size > HaloThreshold {
			halo := marker
			halo.Size = c.Size * haloScale
			halo.Opacity = haloOpacity
			halo.Halo = true
			byBucket[c.Bucket] = append(byBucket[c.Bucket], halo)
		}
		byBucket[c.Bucket] = append(byBucket[c.Bucket], marker)
	}

	scene := GlobeScene{
		Metric:     kind,
		View:       g.state,
		RenderedAt: clock.Now(),
	}
	for b := MinBucket; b <= MaxBucket; b++ {
		if markers := byBucket[b]; len(markers) > 0 {
			scene.Layers = append(scene.Layers, Layer{Bucket: b, Markers: markers})
		}
	}
	return scene, nil
}

// PointsFromGlobeRows selects the metric column of the preprocessed globe
// table.
func PointsFromGlobeRows(rows []GlobeRow, kind MetricKind) ([]GlobePoint, error) {
	out := make([]GlobePoint, len(rows))
	for i, r := range rows {
		var v float64
		switch kind {
		case MetricCases:
			v = r.Cases
		case MetricDeaths:
			v = r.Deaths
		default:
			return nil, fmt.Errorf("globe points: %w: %q", ErrUnknownMetric, kind)
		}
		out[i] = GlobePoint{Entity: r.Entity, Geo: r.Geo, Value: v}
	}
	return out, nil
}

// GlobeLocations returns the entity to coordinate lookup for Focus.
func GlobeLocations(rows []GlobeRow) map[string]Geo {
	out := make(map[string]Geo, len(rows))
	for _, r := range rows {
		out[r.Entity] = r.Geo
	}
	return out
}

// CanonicalizeGlobeRows returns copies of rows with canonical entity keys.
func CanonicalizeGlobeRows(rows []GlobeRow) []GlobeRow {
	out := make([]GlobeRow, len(rows))
	for i, r := range rows {
		r.Entity = Canonicalize(r.Entity, "")
		out[i] = r
	}
	return out
}
