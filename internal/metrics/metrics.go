// internal/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readsphere_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "readsphere_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Aggregation Metrics
	RatingRecomputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readsphere_rating_recomputations_total",
			Help: "Total number of aggregate recomputations after review writes",
		},
		[]string{"target", "result"}, // target: book|user, result: success|skipped|error
	)

	HelpfulVotesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readsphere_helpful_votes_total",
			Help: "Total number of helpful votes recorded",
		},
	)

	// Recommender Metrics
	RecommenderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readsphere_recommender_requests_total",
			Help: "Total number of calls to the external recommender",
		},
		[]string{"result"}, // success|error|open|disabled
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "readsphere_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readsphere_events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"event_type", "result"},
	)
)

// RecordAPIRequest records one handled request
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordRecomputation(target, result string) {
	RatingRecomputations.WithLabelValues(target, result).Inc()
}
