package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techstack_client_requests_total",
		Help: "Requests made to the content API by final outcome",
	}, []string{"method", "outcome"})

	attemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techstack_client_attempts_total",
		Help: "Individual HTTP attempts, including retries",
	})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techstack_client_retries_total",
		Help: "Retried attempts by failure kind",
	}, []string{"kind"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "techstack_client_request_duration_seconds",
		Help:    "Duration of a request including all retries",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
	}, []string{"method"})
)
