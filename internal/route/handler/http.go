package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/internal/mapview"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/service"
)

// submitTimeout bounds a submission once it is detached from its request.
const submitTimeout = 2 * time.Minute

// HTTP exposes the planning session to the map front-end.
type HTTP struct {
	svc    *service.Service
	view   *mapview.MapView
	logger *zap.Logger
}

// NewHTTP constructs a handler.
func NewHTTP(svc *service.Service, view *mapview.MapView, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{svc: svc, view: view, logger: logger}
}

// Router builds the chi router with all endpoints and middlewares.
func (h *HTTP) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/v1/waypoints", h.listWaypoints)
	r.Put("/v1/waypoints/{slot}", h.setWaypoint)
	r.Delete("/v1/waypoints/{slot}", h.clearWaypoint)
	r.Post("/v1/clicks", h.click)
	r.Post("/v1/route", h.submitRoute)
	r.Get("/v1/map", h.mapState)
	r.Get("/v1/state", h.state)
	return r
}

type waypointsResponse struct {
	Complete bool                 `json:"complete"`
	Slots    []service.SlotStatus `json:"slots"`
}

func (h *HTTP) listWaypoints(w http.ResponseWriter, _ *http.Request) {
	slots, complete := h.svc.Slots()
	writeJSON(w, http.StatusOK, waypointsResponse{Complete: complete, Slots: slots})
}

func (h *HTTP) setWaypoint(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var p domain.GeoPoint
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.SetPoint(slot, p); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	h.listWaypoints(w, r)
}

func (h *HTTP) clearWaypoint(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ClearPoint(slot); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	h.listWaypoints(w, r)
}

type clickRequest struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Slot *int    `json:"slot"`
}

type clickResponse struct {
	Slot  domain.Slot `json:"slot"`
	Label string      `json:"label"`
}

// click answers the slot question from the request body; a missing slot is a dismissed prompt.
func (h *HTTP) click(w http.ResponseWriter, r *http.Request) {
	var payload clickRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prompter := domain.PromptFunc(func(context.Context, domain.GeoPoint) (domain.Slot, error) {
		if payload.Slot == nil {
			return 0, domain.ErrPromptCancelled
		}
		return domain.Slot(*payload.Slot), nil
	})
	slot, err := h.svc.Mark(r.Context(), domain.GeoPoint{Lat: payload.Lat, Lng: payload.Lng}, prompter)
	if errors.Is(err, domain.ErrPromptCancelled) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{Slot: slot, Label: slot.Label()})
}

type routeResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Summary *domain.Summary `json:"summary,omitempty"`
}

func (h *HTTP) submitRoute(w http.ResponseWriter, r *http.Request) {
	// A browser aborting the POST must not be recorded as an unreachable service.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), submitTimeout)
	defer cancel()
	res, err := h.svc.Submit(ctx)
	if err != nil {
		h.logger.Info("route submission not applied", zap.Error(err))
		writeJSON(w, statusFor(err), routeResponse{Status: "Error", Message: service.FailureText(err)})
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{Status: "OK", Summary: &res.Summary})
}

func (h *HTTP) mapState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h.view.FeatureCollection())
}

func (h *HTTP) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

func slotParam(r *http.Request) (domain.Slot, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		return 0, errors.New("invalid slot")
	}
	return domain.Slot(n), nil
}

func statusFor(err error) int {
	var te *domain.TransportError
	var of *domain.OptimizationFailedError
	switch {
	case errors.Is(err, domain.ErrInvalidSlot), errors.Is(err, domain.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIncompleteConfiguration),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, service.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &te), errors.As(err, &of):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
