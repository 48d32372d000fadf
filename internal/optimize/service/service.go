package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/domain"
	route "github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

// Result is a successful optimization.
type Result struct {
	Geometry string
	Summary  route.Summary
	Cached   bool
}

// Service orders the passenger stops and computes the school run.
type Service struct {
	router    domain.Router
	cache     domain.PlanCache
	publisher domain.EventPublisher
	clock     domain.Clock
	logger    *zap.Logger
}

// New wires the service. Cache and publisher are optional.
func New(router domain.Router, cache domain.PlanCache, publisher domain.EventPublisher, clock domain.Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{router: router, cache: cache, publisher: publisher, clock: clock, logger: logger}
}

// Validate checks the request carries exactly six valid [lng, lat] pairs.
func Validate(points [][]float64) ([][2]float64, error) {
	if len(points) != route.SlotCount {
		return nil, domain.ErrInvalidPoints
	}
	out := make([][2]float64, 0, route.SlotCount)
	for _, p := range points {
		if len(p) != 2 {
			return nil, domain.ErrInvalidPoints
		}
		if err := (route.GeoPoint{Lat: p[1], Lng: p[0]}).Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPoints, err)
		}
		out = append(out, [2]float64{p[0], p[1]})
	}
	return out, nil
}

// Optimize returns the route through the driver, the best passenger order and the school.
func (s *Service) Optimize(ctx context.Context, points [][2]float64) (Result, error) {
	start := time.Now()
	plan, cached := s.lookup(ctx, points)
	if !cached {
		var err error
		plan, err = s.plan(ctx, points)
		if err != nil {
			optimizeTotal.WithLabelValues("error").Inc()
			return Result{}, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, points, plan); err != nil {
				s.logger.Warn("plan cache write failed", zap.Error(err))
			}
		}
	}

	res := Result{Geometry: plan.Geometry, Summary: Summarize(plan), Cached: cached}
	outcome := "computed"
	if cached {
		outcome = "cached"
	}
	optimizeTotal.WithLabelValues(outcome).Inc()
	optimizeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	s.publish(ctx, points, res)
	s.logger.Info("route optimized",
		zap.Bool("cached", cached),
		zap.String("order", res.Summary.OptimizedOrder),
		zap.String("duration", res.Summary.DurationText))
	return res, nil
}

func (s *Service) lookup(ctx context.Context, points [][2]float64) (domain.Plan, bool) {
	if s.cache == nil {
		return domain.Plan{}, false
	}
	plan, ok, err := s.cache.Get(ctx, points)
	if err != nil {
		s.logger.Warn("plan cache read failed", zap.Error(err))
		return domain.Plan{}, false
	}
	return plan, ok
}

func (s *Service) plan(ctx context.Context, points [][2]float64) (domain.Plan, error) {
	jobs := make(map[route.Slot][2]float64, 4)
	for slot := route.SlotPassenger1; slot <= route.SlotPassenger4; slot++ {
		jobs[slot] = points[slot]
	}
	passengers, err := s.router.OptimizeOrder(ctx, points[route.SlotDriver], jobs, points[route.SlotDestination])
	if err != nil {
		return domain.Plan{}, err
	}

	order := make([]route.Slot, 0, route.SlotCount)
	order = append(order, route.SlotDriver)
	order = append(order, passengers...)
	order = append(order, route.SlotDestination)

	coords := make([][2]float64, 0, len(order))
	for _, slot := range order {
		coords = append(coords, points[slot])
	}
	dir, err := s.router.Directions(ctx, coords)
	if err != nil {
		return domain.Plan{}, err
	}
	return domain.Plan{Order: order, Geometry: dir.Geometry, Distance: dir.Distance, Duration: dir.Duration}, nil
}

func (s *Service) publish(ctx context.Context, points [][2]float64, res Result) {
	if s.publisher == nil {
		return
	}
	event := domain.Event{
		ID:         uuid.New(),
		Type:       domain.EventRouteOptimized,
		Points:     points,
		Summary:    res.Summary,
		Cached:     res.Cached,
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish route event failed", zap.String("event_id", event.ID.String()), zap.Error(err))
	}
}

// Summarize renders the human readable summary of a plan.
func Summarize(plan domain.Plan) route.Summary {
	labels := make([]string, 0, len(plan.Order))
	for _, slot := range plan.Order {
		labels = append(labels, slot.Label())
	}
	return route.Summary{
		DurationText:   fmt.Sprintf("%d min", int(math.Round(plan.Duration/60))),
		DistanceText:   fmt.Sprintf("%.2f km", plan.Distance/1000),
		OptimizedOrder: strings.Join(labels, " → "),
	}
}
