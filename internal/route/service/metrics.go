package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_submissions_total",
		Help: "Route submissions by how they ended: applied, failed, stale or incomplete.",
	}, []string{"outcome"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "route_submissions_in_flight",
		Help: "Submissions waiting for the optimization service.",
	})
)
