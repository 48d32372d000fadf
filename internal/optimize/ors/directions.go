package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/domain"
)

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// Directions fetches the driving route through coords in the given order.
// ORS returns the geometry as an encoded polyline.
func (c *Client) Directions(ctx context.Context, coords [][2]float64) (domain.Directions, error) {
	if len(coords) < 2 {
		return domain.Directions{}, errors.New("directions need at least 2 coordinates")
	}
	payload, err := json.Marshal(directionsRequest{Coordinates: coords})
	if err != nil {
		return domain.Directions{}, fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, c.profile)
	resp, err := c.doWithRetry(ctx, "directions", func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.Directions{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.Directions{}, fmt.Errorf("decode directions response: %w", err)
	}
	if len(dr.Routes) == 0 || dr.Routes[0].Geometry == "" {
		return domain.Directions{}, errors.New("no route found")
	}
	r := dr.Routes[0]
	return domain.Directions{
		Geometry: r.Geometry,
		Distance: r.Summary.Distance,
		Duration: r.Summary.Duration,
	}, nil
}
