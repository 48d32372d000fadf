package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	route "github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

type optimizationJob struct {
	ID       int        `json:"id"`
	Location [2]float64 `json:"location"`
}

type optimizationVehicle struct {
	ID      int        `json:"id"`
	Profile string     `json:"profile"`
	Start   [2]float64 `json:"start"`
	End     [2]float64 `json:"end"`
}

type optimizationRequest struct {
	Jobs     []optimizationJob     `json:"jobs"`
	Vehicles []optimizationVehicle `json:"vehicles"`
}

type optimizationResponse struct {
	Code   int `json:"code"`
	Routes []struct {
		Steps []struct {
			Type string `json:"type"`
			Job  int    `json:"job"`
		} `json:"steps"`
	} `json:"routes"`
	Unassigned []struct {
		ID int `json:"id"`
	} `json:"unassigned"`
}

// OptimizeOrder asks the ORS optimization endpoint for the best visiting
// order of the passenger stops between a fixed start and end.
func (c *Client) OptimizeOrder(ctx context.Context, start [2]float64, jobs map[route.Slot][2]float64, end [2]float64) ([]route.Slot, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	ids := make([]int, 0, len(jobs))
	for slot := range jobs {
		ids = append(ids, int(slot))
	}
	sort.Ints(ids)

	body := optimizationRequest{
		Vehicles: []optimizationVehicle{{ID: 1, Profile: c.profile, Start: start, End: end}},
	}
	for _, id := range ids {
		body.Jobs = append(body.Jobs, optimizationJob{ID: id, Location: jobs[route.Slot(id)]})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal optimization request: %w", err)
	}

	endpoint := c.baseURL + "/optimization"
	resp, err := c.doWithRetry(ctx, "optimization", func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("optimization request failed: %w", err)
	}
	defer resp.Body.Close()

	var or optimizationResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("decode optimization response: %w", err)
	}
	if or.Code != 0 {
		return nil, fmt.Errorf("optimization returned code %d", or.Code)
	}
	if len(or.Unassigned) > 0 {
		return nil, fmt.Errorf("optimization left %d stops unassigned", len(or.Unassigned))
	}
	if len(or.Routes) != 1 {
		return nil, fmt.Errorf("expected 1 vehicle route; got %d", len(or.Routes))
	}

	order := make([]route.Slot, 0, len(jobs))
	seen := make(map[int]bool, len(jobs))
	for _, step := range or.Routes[0].Steps {
		if step.Type != "job" {
			continue
		}
		if _, ok := jobs[route.Slot(step.Job)]; !ok || seen[step.Job] {
			return nil, fmt.Errorf("optimization returned unexpected job %d", step.Job)
		}
		seen[step.Job] = true
		order = append(order, route.Slot(step.Job))
	}
	if len(order) != len(jobs) {
		return nil, fmt.Errorf("optimization visited %d of %d stops", len(order), len(jobs))
	}
	return order, nil
}
