// Package metrics holds prometheus collectors for the search pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SearchRequestsTotal counts outgoing search requests by mode and status.
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "usdsearch",
			Name:      "search_requests_total",
			Help:      "Total search API requests by transport mode and status",
		},
		[]string{"mode", "status"},
	)

	// SearchRequestDuration observes search request latency by mode.
	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "usdsearch",
			Name:      "search_request_duration_seconds",
			Help:      "Search API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)

	// TokenRefreshesTotal counts bearer token refreshes by status.
	TokenRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "usdsearch",
			Name:      "token_refreshes_total",
			Help:      "Total bearer token refreshes by status",
		},
		[]string{"status"},
	)

	// ImageDecodesTotal counts thumbnail decode attempts by status.
	ImageDecodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "usdsearch",
			Name:      "image_decodes_total",
			Help:      "Total thumbnail payload decodes by status",
		},
		[]string{"status"},
	)
)

// RegisterSearchMetrics registers pipeline collectors on the default registry.
// Called explicitly from the composition root (no init()).
func RegisterSearchMetrics() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(TokenRefreshesTotal)
	prometheus.MustRegister(ImageDecodesTotal)
}
