package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/domain"
	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/service"
)

// Optimizer is the part of the service the handler needs.
type Optimizer interface {
	Optimize(ctx context.Context, points [][2]float64) (service.Result, error)
}

// HTTP serves the optimize-route endpoint.
type HTTP struct {
	svc    Optimizer
	logger *zap.Logger
	mw     []func(http.Handler) http.Handler
}

// NewHTTP constructs a handler. Extra middlewares run after the defaults.
func NewHTTP(svc Optimizer, logger *zap.Logger, mw ...func(http.Handler) http.Handler) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{svc: svc, logger: logger, mw: mw}
}

func (h *HTTP) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(h.mw...)
	r.Post("/optimize-route", h.optimizeRoute)
	return r
}

type optimizeRequest struct {
	Points [][]float64 `json:"points"`
}

func (h *HTTP) optimizeRoute(w http.ResponseWriter, r *http.Request) {
	var payload optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.Response{Status: domain.StatusError, Message: domain.ErrInvalidPoints.Error()})
		return
	}
	points, err := service.Validate(payload.Points)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, domain.Response{Status: domain.StatusError, Message: domain.ErrInvalidPoints.Error()})
		return
	}

	res, err := h.svc.Optimize(r.Context(), points)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.logger.Error("optimize route failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, status, domain.Response{Status: domain.StatusError, Message: "ORS request failed: " + err.Error()})
		return
	}
	summary := res.Summary
	writeJSON(w, http.StatusOK, domain.Response{Status: domain.StatusOK, Route: res.Geometry, Summary: &summary})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
