package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/geo"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxGlobeSessions = 1000
	globeSessionTTL  = 30 * time.Minute
)

// globeSession is one interactive globe. mu serialises every state change
// and render of that globe.
type globeSession struct {
	mu       sync.Mutex
	globe    *domain.Globe
	lastUsed time.Time
}

type globeSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*globeSession
	limit    int
	ttl      time.Duration
}

func newGlobeSessions(limit int, ttl time.Duration) *globeSessions {
	return &globeSessions{
		sessions: make(map[uuid.UUID]*globeSession),
		limit:    limit,
		ttl:      ttl,
	}
}

// create registers a globe, evicting idle sessions first. It fails when the
// store is still full afterwards.
func (s *globeSessions) create(g *domain.Globe) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := domain.Now()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastUsed) > s.ttl
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
		}
	}
	if len(s.sessions) >= s.limit {
		return uuid.Nil, fmt.Errorf("globe session limit of %d reached", s.limit)
	}

	id := uuid.New()
	s.sessions[id] = &globeSession{globe: g, lastUsed: now}
	return id, nil
}

func (s *globeSessions) get(raw string) (*globeSession, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session id %q", errBadInput, raw)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: globe session %s", errNotFound, id)
	}
	return sess, nil
}

func (s *globeSessions) remove(raw string) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid session id %q", errBadInput, raw)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: globe session %s", errNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

func (s *globeSessions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// with runs fn while holding the session lock.
func (sess *globeSession) with(fn func(g *domain.Globe)) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = domain.Now()
	fn(sess.globe)
}

type globeSessionResponse struct {
	ID   string           `json:"id"`
	View domain.ViewState `json:"view"`
}

func (a *API) globeBundle() (*domain.Bundle, error) {
	b, err := a.bundle()
	if err != nil {
		return nil, err
	}
	if len(b.Globe) == 0 {
		return nil, fmt.Errorf("%w: globe table is not loaded", errNotFound)
	}
	return b, nil
}

func (a *API) globeRows() ([]domain.GlobeRow, error) {
	b, err := a.globeBundle()
	if err != nil {
		return nil, err
	}
	return b.Globe, nil
}

func (a *API) handleCreateGlobe(w http.ResponseWriter, _ *http.Request) {
	b, err := a.globeBundle()
	if err != nil {
		writeError(w, err)
		return
	}
	g := domain.NewGlobe(b.FocusLocations(), domain.GlobeOptions{Seed: a.cfg.JitterSeed})
	id, err := a.globes.create(g)
	if err != nil {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
		return
	}
	a.logger.Debug("globe session created", "session", id, "sessions", a.globes.count())
	writeJSON(w, http.StatusCreated, globeSessionResponse{ID: id.String(), View: g.State()})
}

func (a *API) handleRenderGlobe(w http.ResponseWriter, r *http.Request) {
	sess, err := a.globes.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	metric := q.Get("metric")
	if metric == "" {
		metric = string(domain.MetricCases)
	}
	kind, err := domain.ParseMetricKind(metric)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := a.globeRows()
	if err != nil {
		writeError(w, err)
		return
	}
	points, err := domain.PointsFromGlobeRows(rows, kind)
	if err != nil {
		writeError(w, err)
		return
	}

	var scene domain.GlobeScene
	sess.with(func(g *domain.Globe) {
		scene, err = g.Render(points, kind)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	for _, layer := range scene.Layers {
		a.metrics.RenderPoints.WithLabelValues("globe", strconv.Itoa(int(layer.Bucket))).Add(float64(len(layer.Markers)))
	}

	if q.Get("format") == "geojson" {
		body, err := geo.EncodeScene(scene)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBytes(w, contentTypeGeoJSON, body)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

type focusRequest struct {
	Entity string `json:"entity"`
}

// handleFocusGlobe moves the view to an entity. A miss answers 404 and leaves
// the view where it was.
func (a *API) handleFocusGlobe(w http.ResponseWriter, r *http.Request) {
	sess, err := a.globes.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req focusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode focus request: %w", errBadInput, err))
		return
	}

	entity := domain.Canonicalize(req.Entity, "")
	var (
		moved bool
		view  domain.ViewState
	)
	sess.with(func(g *domain.Globe) {
		moved = g.Focus(entity)
		view = g.State()
	})
	if !moved {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": fmt.Sprintf("entity %q has no globe location", req.Entity),
			"view":  view,
		})
		return
	}
	writeJSON(w, http.StatusOK, globeSessionResponse{ID: chi.URLParam(r, "id"), View: view})
}

func (a *API) handleResetGlobe(w http.ResponseWriter, r *http.Request) {
	sess, err := a.globes.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var view domain.ViewState
	sess.with(func(g *domain.Globe) {
		g.Reset()
		view = g.State()
	})
	writeJSON(w, http.StatusOK, globeSessionResponse{ID: chi.URLParam(r, "id"), View: view})
}

func (a *API) handleDeleteGlobe(w http.ResponseWriter, r *http.Request) {
	if err := a.globes.remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
