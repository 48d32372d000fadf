package waypoint_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soukhtanlou/school-service-optimizer/internal/mapview"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/waypoint"
)

func newStore() (*waypoint.Store, *mapview.MapView) {
	view := mapview.New(domain.GeoPoint{Lat: 35.6892, Lng: 51.3890}, 11)
	return waypoint.NewStore(view, nil), view
}

func fill(t *testing.T, s *waypoint.Store) {
	t.Helper()
	for i := 0; i < domain.SlotCount; i++ {
		require.NoError(t, s.SetPoint(domain.Slot(i), domain.GeoPoint{Lat: 35.7 + float64(i)/100, Lng: 51.4}))
	}
}

func TestSetPointRejectsInvalidSlot(t *testing.T) {
	s, view := newStore()
	for _, idx := range []domain.Slot{-1, 6, 99} {
		err := s.SetPoint(idx, domain.GeoPoint{Lat: 1, Lng: 1})
		require.ErrorIs(t, err, domain.ErrInvalidSlot)
	}
	require.Len(t, s.Missing(), domain.SlotCount)
	require.Zero(t, view.MarkerCount())
}

func TestSetPointRejectsInvalidCoordinate(t *testing.T) {
	s, view := newStore()
	require.NoError(t, s.SetPoint(domain.SlotDriver, domain.GeoPoint{Lat: 35.7, Lng: 51.4}))

	for _, p := range []domain.GeoPoint{
		{Lat: 91, Lng: 0},
		{Lat: 0, Lng: 181},
		{Lat: math.NaN(), Lng: 0},
	} {
		require.ErrorIs(t, s.SetPoint(domain.SlotDriver, p), domain.ErrInvalidCoordinate)
	}
	got, ok := s.Point(domain.SlotDriver)
	require.True(t, ok)
	require.Equal(t, domain.GeoPoint{Lat: 35.7, Lng: 51.4}, got)
	require.Equal(t, 1, view.MarkerCount())
}

func TestSetPointReplacesMarker(t *testing.T) {
	s, view := newStore()
	require.NoError(t, s.SetPoint(domain.SlotPassenger2, domain.GeoPoint{Lat: 35.7, Lng: 51.4}))
	require.NoError(t, s.SetPoint(domain.SlotPassenger2, domain.GeoPoint{Lat: 35.8, Lng: 51.5}))

	stats := view.Stats()
	require.Equal(t, 2, stats.MarkersPlaced)
	require.Equal(t, 1, stats.MarkersRemoved)
	require.Equal(t, 1, view.MarkerCount())

	got, _ := s.Point(domain.SlotPassenger2)
	require.Equal(t, domain.GeoPoint{Lat: 35.8, Lng: 51.5}, got)
}

func TestZeroLongitudeIsAValue(t *testing.T) {
	s, _ := newStore()
	require.NoError(t, s.SetPoint(domain.SlotDestination, domain.GeoPoint{Lat: 51.4779, Lng: 0}))
	_, ok := s.Point(domain.SlotDestination)
	require.True(t, ok)
}

func TestSnapshotRequiresAllSlots(t *testing.T) {
	s, _ := newStore()
	for i := 0; i < domain.SlotCount-1; i++ {
		require.NoError(t, s.SetPoint(domain.Slot(i), domain.GeoPoint{Lat: 35.7, Lng: 51.4}))
	}
	require.False(t, s.IsComplete())
	_, err := s.Snapshot()
	require.ErrorIs(t, err, domain.ErrIncompleteConfiguration)
	require.Equal(t, []domain.Slot{domain.SlotDestination}, s.Missing())

	require.NoError(t, s.SetPoint(domain.SlotDestination, domain.GeoPoint{Lat: 35.75, Lng: 51.45}))
	require.True(t, s.IsComplete())
	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap, domain.SlotCount)
	require.Equal(t, domain.GeoPoint{Lat: 35.75, Lng: 51.45}, snap[domain.SlotDestination])
}

func TestClearRemovesPointAndMarker(t *testing.T) {
	s, view := newStore()
	fill(t, s)
	require.NoError(t, s.Clear(domain.SlotPassenger1))
	require.NoError(t, s.Clear(domain.SlotPassenger1))

	require.False(t, s.IsComplete())
	require.Equal(t, domain.SlotCount-1, view.MarkerCount())
	require.ErrorIs(t, s.Clear(7), domain.ErrInvalidSlot)
}
