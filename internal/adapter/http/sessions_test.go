package http

import (
	"testing"
	"time"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGlobe() *domain.Globe {
	return domain.NewGlobe(map[string]domain.Geo{"Italy": {Lat: 41.87, Lon: 12.57}}, domain.GlobeOptions{})
}

func TestGlobeSessions_Limit(t *testing.T) {
	s := newGlobeSessions(2, time.Hour)

	_, err := s.create(testGlobe())
	require.NoError(t, err)
	_, err = s.create(testGlobe())
	require.NoError(t, err)

	_, err = s.create(testGlobe())
	require.Error(t, err)
	assert.Equal(t, 2, s.count())
}

func TestGlobeSessions_EvictsIdle(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(nil) })

	s := newGlobeSessions(2, 30*time.Minute)
	idle, err := s.create(testGlobe())
	require.NoError(t, err)
	busy, err := s.create(testGlobe())
	require.NoError(t, err)

	fakeClock.Advance(20 * time.Minute)
	sess, err := s.get(busy.String())
	require.NoError(t, err)
	sess.with(func(g *domain.Globe) { g.Focus("Italy") })

	fakeClock.Advance(20 * time.Minute)
	_, err = s.create(testGlobe())
	require.NoError(t, err, "the idle session makes room")

	_, err = s.get(idle.String())
	require.ErrorIs(t, err, errNotFound)
	_, err = s.get(busy.String())
	assert.NoError(t, err)
}

func TestGlobeSessions_Remove(t *testing.T) {
	s := newGlobeSessions(1, time.Hour)
	id, err := s.create(testGlobe())
	require.NoError(t, err)

	require.NoError(t, s.remove(id.String()))
	assert.ErrorIs(t, s.remove(id.String()), errNotFound)
	assert.ErrorIs(t, s.remove("nope"), errBadInput)
}
