package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the pipeline.
type Metrics struct {
	RowsLoaded         *prometheus.CounterVec // labels: dataset, metric
	EntitiesAggregated *prometheus.GaugeVec   // labels: dataset, metric
	DateHeaderErrors   *prometheus.CounterVec // labels: dataset, metric
	RecordsPublished   prometheus.Counter
	PipelineReady      prometheus.Gauge

	StageDuration *prometheus.HistogramVec // labels: stage
	RenderPoints  *prometheus.CounterVec   // labels: view, bucket

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	CoordinatesFilled  prometheus.Counter
}

const namespace = "pandemic_etl"

func newMetrics() *Metrics {
	return &Metrics{
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Raw source rows read, by dataset and metric.",
		}, []string{"dataset", "metric"}),
		EntitiesAggregated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities_aggregated",
			Help:      "Canonical entities after aggregation, by dataset and metric.",
		}, []string{"dataset", "metric"}),
		DateHeaderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_header_errors_total",
			Help:      "Date column headers that failed to parse and were excluded.",
		}, []string{"dataset", "metric"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Aggregated series written to the sink topic.",
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_ready",
			Help:      "1 once the dataset bundle has been built, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"stage"}),
		RenderPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_points_total",
			Help:      "Markers emitted to the rendering surface, by view and bucket.",
		}, []string{"view", "bucket"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		CoordinatesFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinates_filled_total",
			Help:      "Entities whose placeholder coordinate was replaced by geocoding.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsLoaded,
		m.EntitiesAggregated,
		m.DateHeaderErrors,
		m.RecordsPublished,
		m.PipelineReady,
		m.StageDuration,
		m.RenderPoints,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.CoordinatesFilled,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsWith creates Metrics registered with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}
