package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	route "github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

// ErrInvalidPoints rejects any request that is not exactly six valid [lng, lat] pairs.
var ErrInvalidPoints = errors.New("exactly 6 points are required")

// Status values of the wire response.
const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Response is the body returned by POST /optimize-route.
type Response struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Route   string         `json:"route,omitempty"`
	Summary *route.Summary `json:"summary,omitempty"`
}

// Plan is the raw outcome of a routing provider for one request.
type Plan struct {
	// Order lists every slot index in visiting order, starting with the driver and ending at the school.
	Order    []route.Slot `json:"order"`
	Geometry string       `json:"geometry"`
	Distance float64      `json:"distance_m"`
	Duration float64      `json:"duration_s"`
}

// EventType enumerates the events published by the optimizer.
type EventType string

const EventRouteOptimized EventType = "route.optimized"

// Event is published after a successful optimization.
type Event struct {
	ID         uuid.UUID     `json:"id"`
	Type       EventType     `json:"type"`
	Points     [][2]float64  `json:"points"`
	Summary    route.Summary `json:"summary"`
	Cached     bool          `json:"cached"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Router computes passenger order and the road geometry between waypoints.
type Router interface {
	// OptimizeOrder returns the passenger slots in the order they should be visited.
	OptimizeOrder(ctx context.Context, start [2]float64, jobs map[route.Slot][2]float64, end [2]float64) ([]route.Slot, error)
	Directions(ctx context.Context, coords [][2]float64) (Directions, error)
}

// Directions is the route between an ordered list of coordinates.
type Directions struct {
	Geometry string
	Distance float64
	Duration float64
}

// PlanCache stores plans keyed by the request points.
type PlanCache interface {
	Get(ctx context.Context, points [][2]float64) (Plan, bool, error)
	Set(ctx context.Context, points [][2]float64, plan Plan) error
}

// EventPublisher emits optimizer events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
