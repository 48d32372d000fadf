package render_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	polyline "github.com/twpayne/go-polyline"

	"github.com/soukhtanlou/school-service-optimizer/internal/mapview"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/render"
)

func encode(pts ...[]float64) string {
	return string(polyline.EncodeCoords(pts))
}

func newView() *mapview.MapView {
	return mapview.New(domain.GeoPoint{Lat: 35.6892, Lng: 51.3890}, 11)
}

func TestRenderFirstResult(t *testing.T) {
	view := newView()
	r := render.New(view, nil)
	summary := domain.Summary{DurationText: "42 min", DistanceText: "18.30 km", OptimizedOrder: "Driver → Passenger 1 → School"}

	err := r.Render(domain.RouteResult{
		Geometry: encode([]float64{35.7, 51.4}, []float64{35.72, 51.42}, []float64{35.75, 51.45}),
		Summary:  summary,
	})
	require.NoError(t, err)
	require.True(t, r.Active())

	require.Len(t, view.Paths(), 1)
	require.Len(t, view.Paths()[0], 3)
	require.Equal(t, []domain.Summary{summary}, view.Summaries())
	require.InDelta(t, 51.4, view.Viewport().Min[0], 1e-5)
	require.InDelta(t, 35.75, view.Viewport().Max[1], 1e-5)
}

func TestRenderReplacesPriorOverlayExactlyOnce(t *testing.T) {
	view := newView()
	r := render.New(view, nil)
	first := domain.RouteResult{Geometry: encode([]float64{35.7, 51.4}, []float64{35.8, 51.5}), Summary: domain.Summary{DurationText: "10 min"}}
	second := domain.RouteResult{Geometry: encode([]float64{35.6, 51.3}, []float64{35.65, 51.35}), Summary: domain.Summary{DurationText: "7 min"}}

	require.NoError(t, r.Render(first))
	require.NoError(t, r.Render(second))

	stats := view.Stats()
	require.Equal(t, 2, stats.PathsDrawn)
	require.Equal(t, 1, stats.PathsRemoved)
	require.Equal(t, 1, stats.PanelsRemoved)
	require.Len(t, view.Paths(), 1)
	require.Equal(t, "7 min", view.Summaries()[0].DurationText)
}

func TestRenderIsIdempotent(t *testing.T) {
	view := newView()
	r := render.New(view, nil)
	result := domain.RouteResult{Geometry: encode([]float64{35.7, 51.4}, []float64{35.8, 51.5}), Summary: domain.Summary{DurationText: "10 min"}}

	require.NoError(t, r.Render(result))
	paths, summaries := view.Paths(), view.Summaries()
	require.NoError(t, r.Render(result))

	require.Equal(t, paths, view.Paths())
	require.Equal(t, summaries, view.Summaries())
}

func TestRenderBadGeometryKeepsOverlay(t *testing.T) {
	view := newView()
	r := render.New(view, nil)
	require.NoError(t, r.Render(domain.RouteResult{Geometry: encode([]float64{35.7, 51.4}, []float64{35.8, 51.5})}))

	err := r.Render(domain.RouteResult{Geometry: "\x01"})
	require.ErrorIs(t, err, render.ErrInvalidGeometry)
	err = r.Render(domain.RouteResult{})
	require.ErrorIs(t, err, render.ErrInvalidGeometry)

	require.Len(t, view.Paths(), 1)
	require.Zero(t, view.Stats().PathsRemoved)
}
