package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	polyline "github.com/twpayne/go-polyline"

	"github.com/soukhtanlou/school-service-optimizer/internal/mapview"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/handler"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/render"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/service"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/waypoint"
)

type stubOptimizer struct {
	calls  int
	ctxErr error
	res    domain.RouteResult
	err    error
}

func (s *stubOptimizer) Submit(ctx context.Context, _ domain.RouteRequest) (domain.RouteResult, error) {
	s.calls++
	s.ctxErr = ctx.Err()
	if s.ctxErr != nil {
		return domain.RouteResult{}, &domain.TransportError{Err: s.ctxErr}
	}
	return s.res, s.err
}

func newRouter(opt domain.Optimizer) http.Handler {
	view := mapview.New(domain.GeoPoint{Lat: 35.6892, Lng: 51.3890}, 11)
	svc := service.New(waypoint.NewStore(view, nil), opt, render.New(view, nil), nil)
	return handler.NewHTTP(svc, view, nil).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func fill(t *testing.T, h http.Handler) {
	t.Helper()
	for i := 0; i < domain.SlotCount; i++ {
		rec := do(t, h, http.MethodPut, fmt.Sprintf("/v1/waypoints/%d", i),
			fmt.Sprintf(`{"lat":%f,"lng":51.4}`, 35.7+float64(i)/100))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestSetWaypointValidation(t *testing.T) {
	h := newRouter(&stubOptimizer{})

	rec := do(t, h, http.MethodPut, "/v1/waypoints/6", `{"lat":35.7,"lng":51.4}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPut, "/v1/waypoints/x", `{"lat":35.7,"lng":51.4}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPut, "/v1/waypoints/0", `{"lat":95,"lng":51.4}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/v1/waypoints/0", `{"lat":35.7,"lng":51.4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Complete bool `json:"complete"`
		Slots    []struct {
			Label string           `json:"label"`
			Point *domain.GeoPoint `json:"point"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Complete)
	require.Len(t, body.Slots, domain.SlotCount)
	require.Equal(t, "Driver", body.Slots[0].Label)
	require.NotNil(t, body.Slots[0].Point)
	require.Nil(t, body.Slots[1].Point)
}

func TestSubmitRouteRequiresAllWaypoints(t *testing.T) {
	opt := &stubOptimizer{}
	h := newRouter(opt)
	do(t, h, http.MethodPut, "/v1/waypoints/0", `{"lat":35.7,"lng":51.4}`)

	rec := do(t, h, http.MethodPost, "/v1/route", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Zero(t, opt.calls)
}

func TestSubmitRouteSuccessAndMap(t *testing.T) {
	opt := &stubOptimizer{res: domain.RouteResult{
		Geometry: string(polyline.EncodeCoords([][]float64{{35.7, 51.4}, {35.75, 51.45}})),
		Summary:  domain.Summary{DurationText: "9 min", DistanceText: "2.40 km", OptimizedOrder: "Driver → School"},
	}}
	h := newRouter(opt)
	fill(t, h)

	rec := do(t, h, http.MethodPost, "/v1/route", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"OK","summary":{"duration_text":"9 min","distance_text":"2.40 km","optimized_order":"Driver → School"}}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	var fc struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.Features, domain.SlotCount+2)

	rec = do(t, h, http.MethodGet, "/v1/state", "")
	require.Contains(t, rec.Body.String(), `"state":"RENDERED_SUCCESS"`)
}

func TestSubmitRouteFailureMessage(t *testing.T) {
	h := newRouter(&stubOptimizer{err: domain.NewOptimizationFailed("no route found")})
	fill(t, h)

	rec := do(t, h, http.MethodPost, "/v1/route", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.JSONEq(t, `{"status":"Error","message":"no route found"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/state", "")
	require.Contains(t, rec.Body.String(), `"last_failure":"no route found"`)
}

func TestClickWithAndWithoutSlot(t *testing.T) {
	h := newRouter(&stubOptimizer{})

	rec := do(t, h, http.MethodPost, "/v1/clicks", `{"lat":35.7,"lng":51.4}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/clicks", `{"lat":35.7,"lng":51.4,"slot":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"slot":5,"label":"School"}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/v1/waypoints/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"complete":false`)
}

func TestSubmitRouteOutlivesAbortedRequest(t *testing.T) {
	opt := &stubOptimizer{res: domain.RouteResult{
		Geometry: string(polyline.EncodeCoords([][]float64{{35.7, 51.4}, {35.75, 51.45}})),
		Summary:  domain.Summary{DurationText: "9 min"},
	}}
	h := newRouter(opt)
	fill(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/route", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, opt.ctxErr)

	rec = do(t, h, http.MethodGet, "/v1/state", "")
	require.Contains(t, rec.Body.String(), `"state":"RENDERED_SUCCESS"`)
	require.NotContains(t, rec.Body.String(), "last_failure")
}

func TestListWaypointsReportsStoreCompleteness(t *testing.T) {
	h := newRouter(&stubOptimizer{})
	fill(t, h)

	rec := do(t, h, http.MethodGet, "/v1/waypoints", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"complete":true`)

	rec = do(t, h, http.MethodDelete, "/v1/waypoints/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"complete":false`)
}
