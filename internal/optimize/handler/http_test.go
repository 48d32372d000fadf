package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/handler"
	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/service"
	route "github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

type stubOptimizer struct {
	got [][2]float64
	res service.Result
	err error
}

func (s *stubOptimizer) Optimize(_ context.Context, points [][2]float64) (service.Result, error) {
	s.got = points
	return s.res, s.err
}

const sixPoints = `{"points":[[51.40,35.70],[51.41,35.71],[51.42,35.72],[51.43,35.73],[51.44,35.74],[51.45,35.75]]}`

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/optimize-route", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOptimizeRouteSuccess(t *testing.T) {
	opt := &stubOptimizer{res: service.Result{
		Geometry: "encoded",
		Summary:  route.Summary{DurationText: "42 min", DistanceText: "18.35 km", OptimizedOrder: "Driver → Passenger 2 → School"},
	}}
	rec := post(handler.NewHTTP(opt, nil).Router(), sixPoints)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"OK","route":"encoded","summary":{"duration_text":"42 min","distance_text":"18.35 km","optimized_order":"Driver → Passenger 2 → School"}}`, rec.Body.String())
	require.Len(t, opt.got, 6)
	require.Equal(t, [2]float64{51.45, 35.75}, opt.got[5])
}

func TestOptimizeRouteRejectsBadInput(t *testing.T) {
	opt := &stubOptimizer{}
	h := handler.NewHTTP(opt, nil).Router()
	for _, body := range []string{
		`{"points":[[51.40,35.70]]}`,
		`{}`,
		`not json`,
		`{"points":[[51.40,35.70],[51.41,35.71],[51.42,35.72],[51.43,35.73],[51.44,35.74],[51.45,95]]}`,
	} {
		rec := post(h, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.JSONEq(t, `{"status":"Error","message":"exactly 6 points are required"}`, rec.Body.String())
	}
	require.Nil(t, opt.got)
}

func TestOptimizeRouteUpstreamFailure(t *testing.T) {
	opt := &stubOptimizer{err: errors.New("directions request failed: no route found")}
	rec := post(handler.NewHTTP(opt, nil).Router(), sixPoints)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"Error"`)
	require.Contains(t, rec.Body.String(), "no route found")
}

func TestExtraMiddlewareRuns(t *testing.T) {
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	rec := post(handler.NewHTTP(&stubOptimizer{}, nil, blocked).Router(), sixPoints)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
