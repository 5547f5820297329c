package mapbox

import (
	"context"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/couchcryptid/pandemic-map-etl/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by the
// qualified query.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. Sizes below
// one are raised to one.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	cache, _ := lru.New[string, domain.GeocodingResult](max(maxEntries, 1))
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, country string) (domain.GeocodingResult, error) {
	key := name + "|" + country
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name, country)
	if err != nil {
		return result, err
	}
	// Empty answers are not cached so a later run can retry them.
	if !result.Empty() {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len reports the number of cached answers.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}
