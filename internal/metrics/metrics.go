// Package metrics holds the Prometheus collectors exported at /metrics.
//
//   - api_requests_total{method, endpoint, status_code}
//   - api_request_duration_seconds{method, endpoint}
//   - recommendation_requests_total{kind, item_type}
//   - collaborative_outcomes_total{item_type, reason}
//   - collaborative_neighbors{item_type}
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation computations by recommender kind and item type",
		},
		[]string{"kind", "item_type"},
	)

	// CollaborativeOutcomes uses reason "ok" for non-empty results.
	CollaborativeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborative_outcomes_total",
			Help: "Collaborative filtering results by item type and empty-result reason",
		},
		[]string{"item_type", "reason"},
	)

	CollaborativeNeighbors = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collaborative_neighbors",
			Help:    "Number of neighbors selected per collaborative request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 50, 100},
		},
		[]string{"item_type"},
	)
)
