package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/chart"
	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/geo"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/couchcryptid/pandemic-map-etl/internal/observability"
	"github.com/go-chi/chi/v5"
)

// BundleSource supplies the dataset bundle once it has been built.
type BundleSource interface {
	Bundle() *domain.Bundle
}

// APIConfig holds the request defaults of the API.
type APIConfig struct {
	TopK       int
	JitterSeed uint64
}

// API serves the visualization datasets under /api/v1.
type API struct {
	bundles BundleSource
	cfg     APIConfig
	globes  *globeSessions
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAPI creates the API handlers.
func NewAPI(bundles BundleSource, cfg APIConfig, metrics *observability.Metrics, logger *slog.Logger) *API {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	return &API{
		bundles: bundles,
		cfg:     cfg,
		globes:  newGlobeSessions(maxGlobeSessions, globeSessionTTL),
		metrics: metrics,
		logger:  logger,
	}
}

// Routes returns the API router, to be mounted at /api/v1.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/maps/{dataset}/{metric}", a.handleMap)
	r.Get("/series/{dataset}/{metric}/{entity}", a.handleSeries)
	r.Get("/compare", a.handleCompare)

	r.Route("/ranking", func(r chi.Router) {
		r.Get("/", a.handleRanking)
		r.Get("/chart.png", a.handleRankingChart)
	})
	r.Get("/growth/chart.png", a.handleGrowthChart)

	r.Route("/globe/sessions", func(r chi.Router) {
		r.Post("/", a.handleCreateGlobe)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.handleRenderGlobe)
			r.Delete("/", a.handleDeleteGlobe)
			r.Post("/focus", a.handleFocusGlobe)
			r.Post("/reset", a.handleResetGlobe)
		})
	})
	return r
}

func (a *API) bundle() (*domain.Bundle, error) {
	b := a.bundles.Bundle()
	if b == nil {
		return nil, errNotReady
	}
	return b, nil
}

// table resolves a dataset and metric to a loaded table.
func (a *API) table(dataset, metric string) (*domain.SeriesTable, error) {
	ds, err := domain.ParseDataset(dataset)
	if err != nil {
		return nil, err
	}
	kind, err := domain.ParseMetricKind(metric)
	if err != nil {
		return nil, err
	}
	b, err := a.bundle()
	if err != nil {
		return nil, err
	}
	t := b.Table(ds, kind)
	if t == nil {
		return nil, fmt.Errorf("%w: %s %s table is not loaded", errNotFound, ds, kind)
	}
	return t, nil
}

// casesAndDeaths returns the cases table of a dataset and its deaths table
// when loaded.
func (a *API) casesAndDeaths(dataset string) (*domain.SeriesTable, *domain.SeriesTable, error) {
	if dataset == "" {
		dataset = string(domain.DatasetGlobal)
	}
	cases, err := a.table(dataset, string(domain.MetricCases))
	if err != nil {
		return nil, nil, err
	}
	b, _ := a.bundle()
	return cases, b.Table(cases.Dataset, domain.MetricDeaths), nil
}

func (a *API) topK(r *http.Request) (int, error) {
	q := r.URL.Query().Get("k")
	if q == "" {
		return a.cfg.TopK, nil
	}
	k, err := strconv.Atoi(q)
	if err != nil {
		return 0, fmt.Errorf("%w: k must be an integer", errBadInput)
	}
	return k, nil
}

func (a *API) handleMap(w http.ResponseWriter, r *http.Request) {
	t, err := a.table(chi.URLParam(r, "dataset"), chi.URLParam(r, "metric"))
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	idx, err := t.Axis.Resolve(q.Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := domain.BuildCategoricalMap(*t, idx, q.Get("basemap"))
	if err != nil {
		writeError(w, err)
		return
	}
	for _, p := range m.Points {
		a.metrics.RenderPoints.WithLabelValues("map", p.Category).Inc()
	}

	if q.Get("format") == "geojson" {
		body, err := geo.EncodeMap(m)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBytes(w, contentTypeGeoJSON, body)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type seriesResponse struct {
	Dataset domain.Dataset    `json:"dataset"`
	Metric  domain.MetricKind `json:"metric"`
	Entity  string            `json:"entity"`
	Geo     domain.Geo        `json:"geo"`
	Series  domain.TimeSeries `json:"series"`
}

func (a *API) handleSeries(w http.ResponseWriter, r *http.Request) {
	t, err := a.table(chi.URLParam(r, "dataset"), chi.URLParam(r, "metric"))
	if err != nil {
		writeError(w, err)
		return
	}
	name := domain.Canonicalize(chi.URLParam(r, "entity"), "")
	s, ok := t.Find(name)
	if !ok {
		writeError(w, fmt.Errorf("%w: entity %q", errNotFound, name))
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{
		Dataset: t.Dataset,
		Metric:  t.Metric,
		Entity:  s.Entity,
		Geo:     s.Geo,
		Series:  t.Axis.Series(s.Values),
	})
}

func (a *API) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entities := q["entity"]
	if len(entities) == 0 {
		writeError(w, fmt.Errorf("%w: at least one entity is required", errBadInput))
		return
	}
	cases, deaths, err := a.casesAndDeaths(q.Get("dataset"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.CompareEntities(*cases, deaths, entities))
}

func (a *API) ranking(r *http.Request) (domain.Ranking, error) {
	k, err := a.topK(r)
	if err != nil {
		return domain.Ranking{}, err
	}
	cases, deaths, err := a.casesAndDeaths(r.URL.Query().Get("dataset"))
	if err != nil {
		return domain.Ranking{}, err
	}
	return domain.BuildRanking(*cases, deaths, k), nil
}

func (a *API) handleRanking(w http.ResponseWriter, r *http.Request) {
	rk, err := a.ranking(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rk)
}

func chartOptions(r *http.Request) chart.Options {
	q := r.URL.Query()
	w, _ := strconv.Atoi(q.Get("width"))
	h, _ := strconv.Atoi(q.Get("height"))
	return chart.Options{Width: min(w, 4096), Height: min(h, 4096)}
}

func (a *API) handleRankingChart(w http.ResponseWriter, r *http.Request) {
	rk, err := a.ranking(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := chart.RankingBar(&buf, rk, chartOptions(r)); err != nil {
		writeChartError(w, err)
		return
	}
	writeBytes(w, contentTypePNG, buf.Bytes())
}

// handleGrowthChart draws the named entities, or the top-K ranking when none
// are named.
func (a *API) handleGrowthChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := domain.MetricCases
	if m := q.Get("metric"); m != "" {
		var err error
		if kind, err = domain.ParseMetricKind(m); err != nil {
			writeError(w, err)
			return
		}
	}

	var curves []domain.GrowthCurve
	if entities := q["entity"]; len(entities) > 0 {
		cases, deaths, err := a.casesAndDeaths(q.Get("dataset"))
		if err != nil {
			writeError(w, err)
			return
		}
		curves = domain.CompareEntities(*cases, deaths, entities)
	} else {
		rk, err := a.ranking(r)
		if err != nil {
			writeError(w, err)
			return
		}
		curves = rk.Growth
	}

	var buf bytes.Buffer
	if err := chart.GrowthLines(&buf, curves, kind, chartOptions(r)); err != nil {
		writeChartError(w, err)
		return
	}
	writeBytes(w, contentTypePNG, buf.Bytes())
}

func writeChartError(w http.ResponseWriter, err error) {
	if errors.Is(err, chart.ErrNoData) {
		err = fmt.Errorf("%w: %w", errNotFound, err)
	}
	writeError(w, err)
}
