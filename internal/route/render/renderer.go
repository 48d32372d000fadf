package render

import (
	"errors"
	"fmt"
	"sync"

	polyline "github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

// ErrInvalidGeometry is returned when the encoded route cannot be drawn.
var ErrInvalidGeometry = errors.New("invalid route geometry")

// Renderer owns the single active route overlay and summary panel.
type Renderer struct {
	mu     sync.Mutex
	layer  domain.RouteLayer
	logger *zap.Logger

	path  *domain.PathID
	panel *domain.PanelID
}

func New(layer domain.RouteLayer, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{layer: layer, logger: logger}
}

// Decode turns an encoded polyline into display points.
func Decode(geometry string) ([]domain.GeoPoint, error) {
	if geometry == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidGeometry)
	}
	coords, rest, err := polyline.DecodeCoords([]byte(geometry))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidGeometry, len(rest))
	}
	out := make([]domain.GeoPoint, 0, len(coords))
	for _, c := range coords {
		p := domain.GeoPoint{Lat: c[0], Lng: c[1]}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Render replaces the active overlay and summary with the result and fits the
// viewport to the new path. A geometry that fails to decode leaves the map as it was.
func (r *Renderer) Render(result domain.RouteResult) error {
	pts, err := Decode(result.Geometry)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path != nil {
		r.layer.RemovePath(*r.path)
		r.path = nil
	}
	if r.panel != nil {
		r.layer.RemoveSummary(*r.panel)
		r.panel = nil
	}

	path := r.layer.DrawPath(pts)
	panel := r.layer.ShowSummary(result.Summary)
	r.path, r.panel = &path, &panel
	r.layer.FitBounds(pts)

	r.logger.Debug("route rendered",
		zap.Int("points", len(pts)),
		zap.String("duration", result.Summary.DurationText),
		zap.String("distance", result.Summary.DistanceText))
	return nil
}

// Active reports whether an overlay is currently displayed.
func (r *Renderer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path != nil
}
