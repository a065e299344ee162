package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics. Registered explicitly from the composition root
// (no init()) so tests can import this package without polluting the default
// registry twice.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentdex",
			Name:      "search_requests_total",
			Help:      "Total number of search operations",
		},
		[]string{"operation", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contentdex",
			Name:      "search_duration_seconds",
			Help:      "Search operation duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	SearchResultCount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contentdex",
			Name:      "search_result_count",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"operation"},
	)

	SearchSlowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "contentdex",
			Name:      "search_slow_total",
			Help:      "Searches exceeding the configured warn threshold",
		},
	)
)

// RegisterSearchMetrics registers search metrics with the default registry.
func RegisterSearchMetrics() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultCount)
	prometheus.MustRegister(SearchSlowTotal)
}
