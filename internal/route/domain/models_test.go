package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

func TestGeoPointValidate(t *testing.T) {
	cases := []struct {
		name string
		lat  float64
		lng  float64
		ok   bool
	}{
		{"tehran", 35.6892, 51.3890, true},
		{"zero longitude", 51.4779, 0, true},
		{"corners", -90, 180, true},
		{"latitude too high", 90.0001, 10, false},
		{"longitude too low", 10, -180.5, false},
		{"nan latitude", math.NaN(), 10, false},
		{"infinite longitude", 10, math.Inf(1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewGeoPoint(tc.lat, tc.lng)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrInvalidCoordinate)
		})
	}
}

func TestGeoPointOrdering(t *testing.T) {
	p := domain.GeoPoint{Lat: 35.7, Lng: 51.4}
	require.Equal(t, [2]float64{51.4, 35.7}, p.LngLat())
	require.Equal(t, [2]float64{35.7, 51.4}, p.LatLng())
}

func TestSlotLabels(t *testing.T) {
	require.Equal(t, "Driver", domain.SlotDriver.Label())
	require.Equal(t, "Passenger 3", domain.SlotPassenger3.Label())
	require.Equal(t, "School", domain.SlotDestination.Label())
	require.False(t, domain.Slot(6).Valid())
	require.False(t, domain.Slot(-1).Valid())
}

func TestWorkflowTransitions(t *testing.T) {
	require.True(t, domain.StateIdle.CanTransitionTo(domain.StateCollecting))
	require.True(t, domain.StateReady.CanTransitionTo(domain.StateSubmitting))
	require.True(t, domain.StateSubmitting.CanTransitionTo(domain.StateRenderedSuccess))
	require.True(t, domain.StateSubmitting.CanTransitionTo(domain.StateFailedShown))
	require.True(t, domain.StateFailedShown.CanTransitionTo(domain.StateReady))
	require.True(t, domain.StateSubmitting.CanTransitionTo(domain.StateSubmitting))

	require.False(t, domain.StateIdle.CanTransitionTo(domain.StateSubmitting))
	require.False(t, domain.StateCollecting.CanTransitionTo(domain.StateSubmitting))
	require.False(t, domain.StateRenderedSuccess.CanTransitionTo(domain.StateFailedShown))
}

func TestOptimizationFailedDefaultsMessage(t *testing.T) {
	require.Equal(t, domain.UnknownFailureMessage, domain.NewOptimizationFailed("").Message)
	require.Equal(t, "no route found", domain.NewOptimizationFailed("no route found").Message)
}
