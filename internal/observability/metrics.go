package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	contestJoinsTotal  *prometheus.CounterVec
	contestSubmitTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arena_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		contestJoinsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_contest_joins_total",
			Help: "Contest join attempts by outcome.",
		}, []string{"outcome"})

		contestSubmitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_contest_submissions_total",
			Help: "Contest submissions by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, contestJoinsTotal, contestSubmitTotal)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ContestJoins exposes the join outcome counter.
func ContestJoins() *prometheus.CounterVec {
	RegisterMetrics()
	return contestJoinsTotal
}

// ContestSubmissions exposes the submission outcome counter.
func ContestSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return contestSubmitTotal
}
