package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// SlotCount is the number of fixed waypoint roles in a trip.
const SlotCount = 6

// Slot identifies one of the six fixed waypoint roles.
type Slot int

const (
	SlotDriver      Slot = 0
	SlotPassenger1  Slot = 1
	SlotPassenger2  Slot = 2
	SlotPassenger3  Slot = 3
	SlotPassenger4  Slot = 4
	SlotDestination Slot = 5
)

// Valid reports whether the slot index is in [0,5].
func (s Slot) Valid() bool {
	return s >= SlotDriver && s <= SlotDestination
}

// Label returns the human readable role of the slot.
func (s Slot) Label() string {
	switch {
	case s == SlotDriver:
		return "Driver"
	case s == SlotDestination:
		return "School"
	case s.Valid():
		return fmt.Sprintf("Passenger %d", int(s))
	default:
		return fmt.Sprintf("Slot %d", int(s))
	}
}

var (
	ErrInvalidSlot             = errors.New("invalid slot")
	ErrInvalidCoordinate       = errors.New("invalid coordinate")
	ErrIncompleteConfiguration = errors.New("incomplete configuration: all 6 points must be set")
	ErrInvalidTransition       = errors.New("invalid workflow state transition")
	ErrPromptCancelled         = errors.New("slot prompt cancelled")
)

// UnknownFailureMessage is surfaced when the service gives no reason for a failure.
const UnknownFailureMessage = "unknown error"

// TransportError means no usable response was received from the optimization service.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("optimization service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// OptimizationFailedError carries the failure reported by the optimization service.
type OptimizationFailedError struct {
	Message string
}

func (e *OptimizationFailedError) Error() string {
	return "route optimization failed: " + e.Message
}

// NewOptimizationFailed builds the error, falling back to the generic message.
func NewOptimizationFailed(message string) *OptimizationFailedError {
	if message == "" {
		message = UnknownFailureMessage
	}
	return &OptimizationFailedError{Message: message}
}

// GeoPoint is a validated coordinate. Wire order is (lng, lat), display order is (lat, lng).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewGeoPoint validates and returns a point.
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate checks that both values are finite and within range.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90,90]", ErrInvalidCoordinate, p.Lat)
	}
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180,180]", ErrInvalidCoordinate, p.Lng)
	}
	return nil
}

// LngLat returns the point as [lng, lat] for wire transfer.
func (p GeoPoint) LngLat() [2]float64 { return [2]float64{p.Lng, p.Lat} }

// LatLng returns the point as [lat, lng] for map placement.
func (p GeoPoint) LatLng() [2]float64 { return [2]float64{p.Lat, p.Lng} }

// RouteRequest is the payload sent to the optimization service.
type RouteRequest struct {
	Points [][2]float64 `json:"points"`
}

// Summary describes an optimized trip as returned by the service.
type Summary struct {
	DurationText   string `json:"duration_text"`
	DistanceText   string `json:"distance_text"`
	OptimizedOrder string `json:"optimized_order"`
}

// RouteResult is a successful optimization. Geometry stays encoded until render time.
type RouteResult struct {
	Geometry string  `json:"route"`
	Summary  Summary `json:"summary"`
}

type WorkflowState string

const (
	StateIdle            WorkflowState = "IDLE"
	StateCollecting      WorkflowState = "COLLECTING"
	StateReady           WorkflowState = "READY"
	StateSubmitting      WorkflowState = "SUBMITTING"
	StateRenderedSuccess WorkflowState = "RENDERED_SUCCESS"
	StateFailedShown     WorkflowState = "FAILED_SHOWN"
)

var allowedTransitions = map[WorkflowState][]WorkflowState{
	StateIdle:            {StateCollecting},
	StateCollecting:      {StateReady},
	StateReady:           {StateCollecting, StateSubmitting},
	StateSubmitting:      {StateCollecting, StateReady, StateRenderedSuccess, StateFailedShown},
	StateRenderedSuccess: {StateCollecting, StateReady},
	StateFailedShown:     {StateCollecting, StateReady},
}

func (s WorkflowState) CanTransitionTo(next WorkflowState) bool {
	if s == next {
		return true
	}
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// MarkerID is the handle of a marker placed on the display.
type MarkerID int64

// PathID is the handle of a rendered route overlay.
type PathID int64

// PanelID is the handle of a summary panel.
type PanelID int64

// MarkerLayer is the part of the map used by the waypoint store.
type MarkerLayer interface {
	PlaceMarker(slot Slot, p GeoPoint) MarkerID
	RemoveMarker(id MarkerID)
}

// RouteLayer is the part of the map used by the renderer.
type RouteLayer interface {
	DrawPath(path []GeoPoint) PathID
	RemovePath(id PathID)
	FitBounds(path []GeoPoint)
	ShowSummary(s Summary) PanelID
	RemoveSummary(id PanelID)
}

// Optimizer performs one request/response exchange with the optimization service.
type Optimizer interface {
	Submit(ctx context.Context, req RouteRequest) (RouteResult, error)
}

// SlotPrompter asks the operator which slot a clicked point belongs to.
// It returns ErrPromptCancelled when the operator dismisses the question.
type SlotPrompter interface {
	PromptSlot(ctx context.Context, p GeoPoint) (Slot, error)
}

// PromptFunc adapts a function to SlotPrompter.
type PromptFunc func(ctx context.Context, p GeoPoint) (Slot, error)

func (f PromptFunc) PromptSlot(ctx context.Context, p GeoPoint) (Slot, error) { return f(ctx, p) }
