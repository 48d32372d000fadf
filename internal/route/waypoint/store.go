package waypoint

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

type slot struct {
	point  *domain.GeoPoint
	marker *domain.MarkerID
}

// Store holds the six waypoint slots and their markers.
// It is the single source of truth for whether the configuration is complete.
type Store struct {
	mu      sync.RWMutex
	slots   [domain.SlotCount]slot
	markers domain.MarkerLayer
	logger  *zap.Logger
}

// NewStore constructs an empty store drawing markers on the given layer.
func NewStore(markers domain.MarkerLayer, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{markers: markers, logger: logger}
}

// SetPoint replaces the point at the slot. The previous marker is removed before
// the new one is placed. Invalid input leaves the store unchanged.
func (s *Store) SetPoint(idx domain.Slot, p domain.GeoPoint) error {
	if !idx.Valid() {
		return fmt.Errorf("%w: %d not in [0,%d]", domain.ErrInvalidSlot, int(idx), domain.SlotCount-1)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := &s.slots[idx]
	s.releaseMarker(cur)
	point := p
	cur.point = &point
	if s.markers != nil {
		id := s.markers.PlaceMarker(idx, p)
		cur.marker = &id
	}
	s.logger.Debug("waypoint set",
		zap.Int("slot", int(idx)),
		zap.Float64("lat", p.Lat),
		zap.Float64("lng", p.Lng))
	return nil
}

// Clear empties the slot and removes its marker. Clearing an empty slot is a no-op.
func (s *Store) Clear(idx domain.Slot) error {
	if !idx.Valid() {
		return fmt.Errorf("%w: %d not in [0,%d]", domain.ErrInvalidSlot, int(idx), domain.SlotCount-1)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := &s.slots[idx]
	s.releaseMarker(cur)
	cur.point = nil
	return nil
}

func (s *Store) releaseMarker(cur *slot) {
	if cur.marker != nil && s.markers != nil {
		s.markers.RemoveMarker(*cur.marker)
	}
	cur.marker = nil
}

// Point returns the point stored at the slot, if any.
func (s *Store) Point(idx domain.Slot) (domain.GeoPoint, bool) {
	if !idx.Valid() {
		return domain.GeoPoint{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.slots[idx].point; p != nil {
		return *p, true
	}
	return domain.GeoPoint{}, false
}

// IsComplete reports whether all six slots hold a point.
func (s *Store) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completeLocked()
}

func (s *Store) completeLocked() bool {
	for i := range s.slots {
		if s.slots[i].point == nil {
			return false
		}
	}
	return true
}

// Snapshot returns the six points in slot order. Missing slots are never defaulted.
func (s *Store) Snapshot() ([]domain.GeoPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.completeLocked() {
		return nil, domain.ErrIncompleteConfiguration
	}
	out := make([]domain.GeoPoint, 0, domain.SlotCount)
	for i := range s.slots {
		out = append(out, *s.slots[i].point)
	}
	return out, nil
}

// Missing lists the slots that have no point yet.
func (s *Store) Missing() []domain.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Slot
	for i := range s.slots {
		if s.slots[i].point == nil {
			out = append(out, domain.Slot(i))
		}
	}
	return out
}
