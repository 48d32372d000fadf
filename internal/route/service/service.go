package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/render"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/request"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/waypoint"
)

// ErrSuperseded is returned to a submission whose outcome arrived after a newer one had already been applied.
var ErrSuperseded = errors.New("submission superseded by a newer request")

// SlotStatus describes one waypoint slot for display.
type SlotStatus struct {
	Slot  domain.Slot      `json:"slot"`
	Label string           `json:"label"`
	Point *domain.GeoPoint `json:"point,omitempty"`
}

// Status is a point-in-time view of the workflow.
type Status struct {
	State       domain.WorkflowState `json:"state"`
	Complete    bool                 `json:"complete"`
	Issued      uint64               `json:"issued"`
	Applied     uint64               `json:"applied"`
	Submission  string               `json:"submission_id,omitempty"`
	LastFailure string               `json:"last_failure,omitempty"`
}

// Service is the single orchestrator of a planning session. It owns the
// waypoint store, the optimization client and the renderer, and is the only
// entry point that mutates them.
type Service struct {
	mu       sync.Mutex
	store    *waypoint.Store
	client   domain.Optimizer
	renderer *render.Renderer
	logger   *zap.Logger

	state       domain.WorkflowState
	issued      uint64
	applied     uint64
	submission  uuid.UUID
	active      *domain.RouteResult
	lastFailure error
}

// New wires the orchestrator.
func New(store *waypoint.Store, client domain.Optimizer, renderer *render.Renderer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		client:   client,
		renderer: renderer,
		logger:   logger,
		state:    domain.StateIdle,
	}
}

// SetPoint stores the point at the slot and moves the workflow back to collecting or ready.
func (s *Service) SetPoint(slot domain.Slot, p domain.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetPoint(slot, p); err != nil {
		s.logger.Info("point refused", zap.Int("slot", int(slot)), zap.Error(err))
		return err
	}
	s.settleLocked()
	return nil
}

// ClearPoint empties the slot.
func (s *Service) ClearPoint(slot domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(slot); err != nil {
		return err
	}
	s.settleLocked()
	return nil
}

// settleLocked re-derives the collecting/ready state after the store changed.
func (s *Service) settleLocked() {
	if s.state == domain.StateIdle {
		s.state = domain.StateCollecting
	}
	next := domain.StateCollecting
	if s.store.IsComplete() {
		next = domain.StateReady
	}
	if s.state.CanTransitionTo(next) {
		s.state = next
	}
}

// Mark asks the prompter which slot the clicked point belongs to and stores it.
// A cancelled prompt leaves everything untouched.
func (s *Service) Mark(ctx context.Context, p domain.GeoPoint, prompter domain.SlotPrompter) (domain.Slot, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	slot, err := prompter.PromptSlot(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrPromptCancelled) {
			s.logger.Debug("slot prompt cancelled")
		}
		return 0, err
	}
	if err := s.SetPoint(slot, p); err != nil {
		return slot, err
	}
	return slot, nil
}

// Submit sends the current configuration for optimization and applies the
// outcome unless a newer submission has already completed.
func (s *Service) Submit(ctx context.Context) (domain.RouteResult, error) {
	s.mu.Lock()
	snapshot, err := s.store.Snapshot()
	if err != nil {
		s.mu.Unlock()
		submissionsTotal.WithLabelValues("incomplete").Inc()
		return domain.RouteResult{}, err
	}
	req, err := request.Build(snapshot)
	if err != nil {
		s.mu.Unlock()
		return domain.RouteResult{}, err
	}
	if s.state == domain.StateRenderedSuccess || s.state == domain.StateFailedShown {
		s.state = domain.StateReady
	}
	if !s.state.CanTransitionTo(domain.StateSubmitting) {
		state := s.state
		s.mu.Unlock()
		return domain.RouteResult{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, state, domain.StateSubmitting)
	}
	s.state = domain.StateSubmitting
	s.issued++
	seq := s.issued
	id := uuid.New()
	s.submission = id
	s.mu.Unlock()

	logger := s.logger.With(zap.Uint64("seq", seq), zap.String("submission_id", id.String()))
	logger.Info("route submission issued")
	inFlight.Inc()
	result, err := s.client.Submit(ctx, req)
	inFlight.Dec()

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		logger.Info("discarding stale outcome", zap.Uint64("applied", s.applied), zap.Error(err))
		submissionsTotal.WithLabelValues("stale").Inc()
		return domain.RouteResult{}, ErrSuperseded
	}
	s.applied = seq

	if err == nil {
		if rerr := s.renderer.Render(result); rerr != nil {
			err = domain.NewOptimizationFailed(rerr.Error())
		}
	}
	if err != nil {
		s.lastFailure = err
		s.finishLocked(seq, domain.StateFailedShown)
		logger.Warn("route submission failed", zap.Error(err))
		submissionsTotal.WithLabelValues("failed").Inc()
		return domain.RouteResult{}, err
	}

	s.active = &result
	s.lastFailure = nil
	s.finishLocked(seq, domain.StateRenderedSuccess)
	logger.Info("route applied",
		zap.String("duration", result.Summary.DurationText),
		zap.String("distance", result.Summary.DistanceText))
	submissionsTotal.WithLabelValues("applied").Inc()
	return result, nil
}

// finishLocked only leaves Submitting when no newer submission is in flight
// and no point was changed meanwhile.
func (s *Service) finishLocked(seq uint64, next domain.WorkflowState) {
	if seq == s.issued && s.state == domain.StateSubmitting {
		s.state = next
	}
}

func (s *Service) State() domain.WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastFailure returns the failure of the latest applied submission, if it failed.
func (s *Service) LastFailure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailure
}

// ActiveResult returns the result currently rendered.
func (s *Service) ActiveResult() (domain.RouteResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return domain.RouteResult{}, false
	}
	return *s.active, true
}

// Slots returns every slot together with the store's completeness, read under one lock.
func (s *Service) Slots() ([]SlotStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SlotStatus, 0, domain.SlotCount)
	for i := 0; i < domain.SlotCount; i++ {
		slot := domain.Slot(i)
		st := SlotStatus{Slot: slot, Label: slot.Label()}
		if p, ok := s.store.Point(slot); ok {
			st.Point = &p
		}
		out = append(out, st)
	}
	return out, s.store.IsComplete()
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:    s.state,
		Complete: s.store.IsComplete(),
		Issued:   s.issued,
		Applied:  s.applied,
	}
	if s.issued > 0 {
		st.Submission = s.submission.String()
	}
	if s.lastFailure != nil {
		st.LastFailure = FailureText(s.lastFailure)
	}
	return st
}

// FailureText is the user-facing description of a submission failure.
func FailureText(err error) string {
	var of *domain.OptimizationFailedError
	var te *domain.TransportError
	switch {
	case errors.As(err, &of):
		return of.Message
	case errors.As(err, &te):
		return "could not reach the optimization service"
	default:
		return err.Error()
	}
}
