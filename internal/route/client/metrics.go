package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "route_submit_seconds",
		Help:    "Time spent waiting for the optimization service.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	submitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_submit_total",
		Help: "Optimization submissions grouped by outcome.",
	}, []string{"result"})
)
