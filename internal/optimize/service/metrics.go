package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	optimizeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimize_route_seconds",
		Help:    "Time spent producing an optimized route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	optimizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimize_route_total",
		Help: "Optimization requests grouped by outcome.",
	}, []string{"result"})
)
