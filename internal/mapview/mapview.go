// Package mapview is an in-memory map display. It stands in for the browser
// map: markers, the route overlay, the summary panel and the viewport are
// tracked here and exported as GeoJSON for the front-end to draw.
package mapview

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

type marker struct {
	slot  domain.Slot
	point domain.GeoPoint
}

type path struct {
	line orb.LineString
}

// Stats counts layers ever created and removed so leaks can be detected.
type Stats struct {
	MarkersPlaced  int
	MarkersRemoved int
	PathsDrawn     int
	PathsRemoved   int
	PanelsShown    int
	PanelsRemoved  int
	ViewportFits   int
}

// MapView implements domain.MarkerLayer and domain.RouteLayer.
type MapView struct {
	mu       sync.RWMutex
	nextID   int64
	markers  map[domain.MarkerID]marker
	paths    map[domain.PathID]path
	panels   map[domain.PanelID]domain.Summary
	viewport orb.Bound
	zoom     int
	stats    Stats
}

// New creates a map centered on the given point.
func New(center domain.GeoPoint, zoom int) *MapView {
	c := orb.Point{center.Lng, center.Lat}
	return &MapView{
		markers:  make(map[domain.MarkerID]marker),
		paths:    make(map[domain.PathID]path),
		panels:   make(map[domain.PanelID]domain.Summary),
		viewport: orb.Bound{Min: c, Max: c},
		zoom:     zoom,
	}
}

func (m *MapView) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MapView) PlaceMarker(slot domain.Slot, p domain.GeoPoint) domain.MarkerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := domain.MarkerID(m.id())
	m.markers[id] = marker{slot: slot, point: p}
	m.stats.MarkersPlaced++
	return id
}

func (m *MapView) RemoveMarker(id domain.MarkerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.markers[id]; !ok {
		return
	}
	delete(m.markers, id)
	m.stats.MarkersRemoved++
}

func (m *MapView) DrawPath(pts []domain.GeoPoint) domain.PathID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := domain.PathID(m.id())
	m.paths[id] = path{line: toLineString(pts)}
	m.stats.PathsDrawn++
	return id
}

func (m *MapView) RemovePath(id domain.PathID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.paths[id]; !ok {
		return
	}
	delete(m.paths, id)
	m.stats.PathsRemoved++
}

// FitBounds moves the viewport to the bounding box of the path.
func (m *MapView) FitBounds(pts []domain.GeoPoint) {
	if len(pts) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = toLineString(pts).Bound()
	m.stats.ViewportFits++
}

func (m *MapView) ShowSummary(s domain.Summary) domain.PanelID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := domain.PanelID(m.id())
	m.panels[id] = s
	m.stats.PanelsShown++
	return id
}

func (m *MapView) RemoveSummary(id domain.PanelID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.panels[id]; !ok {
		return
	}
	delete(m.panels, id)
	m.stats.PanelsRemoved++
}

// Pan moves the viewport, as a user dragging the map would.
func (m *MapView) Pan(b orb.Bound) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = b
}

func (m *MapView) Viewport() orb.Bound {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewport
}

func (m *MapView) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// MarkerCount returns the number of markers currently on the map.
func (m *MapView) MarkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

// Paths returns the currently drawn route overlays.
func (m *MapView) Paths() []orb.LineString {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]orb.LineString, 0, len(m.paths))
	for _, p := range m.paths {
		out = append(out, p.line)
	}
	return out
}

// Summaries returns the currently displayed summary panels.
func (m *MapView) Summaries() []domain.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Summary, 0, len(m.panels))
	for _, s := range m.panels {
		out = append(out, s)
	}
	return out
}

// FeatureCollection exports markers, the route overlay and the summary.
func (m *MapView) FeatureCollection() *geojson.FeatureCollection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	fc.BBox = geojson.NewBBox(m.viewport)
	for id, mk := range m.markers {
		f := geojson.NewFeature(orb.Point{mk.point.Lng, mk.point.Lat})
		f.ID = int64(id)
		f.Properties["kind"] = "marker"
		f.Properties["slot"] = int(mk.slot)
		f.Properties["label"] = mk.slot.Label()
		fc.Append(f)
	}
	for id, p := range m.paths {
		f := geojson.NewFeature(p.line)
		f.ID = int64(id)
		f.Properties["kind"] = "route"
		fc.Append(f)
	}
	for id, s := range m.panels {
		f := geojson.NewFeature(m.viewport.Center())
		f.ID = int64(id)
		f.Properties["kind"] = "summary"
		f.Properties["duration_text"] = s.DurationText
		f.Properties["distance_text"] = s.DistanceText
		f.Properties["optimized_order"] = s.OptimizedOrder
		fc.Append(f)
	}
	return fc
}

func toLineString(pts []domain.GeoPoint) orb.LineString {
	ls := make(orb.LineString, 0, len(pts))
	for _, p := range pts {
		ls = append(ls, orb.Point{p.Lng, p.Lat})
	}
	return ls
}
