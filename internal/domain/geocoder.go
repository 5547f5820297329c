package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Empty reports whether the provider found no usable coordinate. A (0,0)
// answer counts as empty whatever address text came with it.
func (r GeocodingResult) Empty() bool {
	return Geo{Lat: r.Lat, Lon: r.Lon}.IsZero()
}

// Geocoder resolves entity names to coordinates.
type Geocoder interface {
	// ForwardGeocode converts a place name, optionally qualified by the
	// country it belongs to, to coordinates.
	ForwardGeocode(ctx context.Context, name, country string) (GeocodingResult, error)
}
