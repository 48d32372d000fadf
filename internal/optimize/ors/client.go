// Package ors talks to the OpenRouteService HTTP API.
package ors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultProfile = "driving-car"

	maxAttempts    = 4
	initialBackoff = 200 * time.Millisecond
)

// Config configures the ORS client.
type Config struct {
	APIKey  string
	BaseURL string
	Profile string
	Timeout time.Duration
}

// Client implements domain.Router against ORS.
type Client struct {
	apiKey  string
	baseURL string
	profile string
	session *http.Client
	backoff time.Duration
	logger  *zap.Logger
	tracer  trace.Tracer
}

// StatusError is a non-2xx ORS response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ors responded %d: %s", e.Code, e.Body)
}

// New builds a client. A nil session gets one with the configured timeout.
func New(cfg Config, session *http.Client, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ors api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if session == nil {
		session = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		profile: cfg.Profile,
		session: session,
		backoff: initialBackoff,
		logger:  logger,
		tracer:  otel.Tracer("optimize.ors"),
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// doWithRetry retries network errors, 429 and 5xx with exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, endpoint string, makeReq func() (*http.Request, error)) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, "ors."+endpoint)
	defer span.End()

	start := time.Now()
	backoff := c.backoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}
		resp, err := c.do(req.WithContext(ctx))
		if err == nil {
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
			requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
			span.SetAttributes(attribute.Int("ors.attempts", attempt))
			return resp, nil
		}
		lastErr = err
		requestsTotal.WithLabelValues(endpoint, errorCode(err)).Inc()

		if !retryable(err) || attempt == maxAttempts {
			break
		}
		c.logger.Warn("ors request failed, retrying",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, lastErr
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Code)
	}
	return "network"
}
