package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
)

const maxResponseBytes = 4 << 20

// Config configures the optimization client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client posts route requests to the optimization endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
	tracer   trace.Tracer
}

// New constructs a client. A nil httpClient gets one with the configured timeout.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("optimization endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     httpClient,
		logger:   logger,
		tracer:   otel.Tracer("route.optimization.client"),
	}, nil
}

type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Route   string          `json:"route"`
	Summary *domain.Summary `json:"summary"`
}

// Submit performs a single exchange. Network failures come back as
// *domain.TransportError, service-side failures as *domain.OptimizationFailedError.
// The returned geometry is left encoded.
func (c *Client) Submit(ctx context.Context, req domain.RouteRequest) (_ domain.RouteResult, err error) {
	ctx, span := c.tracer.Start(ctx, "optimization.submit")
	defer span.End()
	start := time.Now()
	defer func() {
		result := outcome(err)
		submitTotal.WithLabelValues(result).Inc()
		submitDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		span.SetAttributes(attribute.String("result", result))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	payload, err := json.Marshal(req)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("marshal route request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("optimization service unreachable", zap.Error(err))
		return domain.RouteResult{}, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.RouteResult{}, &domain.TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Warn("malformed optimization response",
			zap.Int("http_status", resp.StatusCode), zap.Error(err))
		return domain.RouteResult{}, domain.NewOptimizationFailed("")
	}
	if decoded.Status != "OK" {
		c.logger.Info("optimization rejected",
			zap.Int("http_status", resp.StatusCode),
			zap.String("status", decoded.Status),
			zap.String("message", decoded.Message))
		return domain.RouteResult{}, domain.NewOptimizationFailed(decoded.Message)
	}
	if decoded.Route == "" || decoded.Summary == nil {
		c.logger.Warn("optimization response missing route or summary")
		return domain.RouteResult{}, domain.NewOptimizationFailed("")
	}

	return domain.RouteResult{Geometry: decoded.Route, Summary: *decoded.Summary}, nil
}

func outcome(err error) string {
	var te *domain.TransportError
	var of *domain.OptimizationFailedError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &te):
		return "transport_error"
	case errors.As(err, &of):
		return "optimization_failed"
	default:
		return "error"
	}
}
