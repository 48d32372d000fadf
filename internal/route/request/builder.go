package request

import (
	"fmt"

	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

// Build turns a six point snapshot into the optimization payload.
// Points keep slot order and are serialized as [lng, lat].
func Build(snapshot []domain.GeoPoint) (domain.RouteRequest, error) {
	if len(snapshot) != domain.SlotCount {
		return domain.RouteRequest{}, fmt.Errorf("%w: got %d points", domain.ErrIncompleteConfiguration, len(snapshot))
	}
	points := make([][2]float64, 0, domain.SlotCount)
	for i, p := range snapshot {
		if err := p.Validate(); err != nil {
			return domain.RouteRequest{}, fmt.Errorf("build request: slot %d: %w", i, err)
		}
		points = append(points, p.LngLat())
	}
	return domain.RouteRequest{Points: points}, nil
}
