package ors

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ors_requests_total",
		Help: "OpenRouteService attempts by endpoint and response code.",
	}, []string{"endpoint", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ors_request_seconds",
		Help:    "Time to a successful OpenRouteService response, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
