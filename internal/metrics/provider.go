package metrics

import "github.com/prometheus/client_golang/prometheus"

// External provider Prometheus metrics. The provider label distinguishes the
// search and synthesis backends (e.g. "serpapi", "openai").
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notemill",
			Name:      "provider_requests_total",
			Help:      "Total number of outbound provider requests",
		},
		[]string{"provider", "stage", "status"}, // status: "success" / "error"
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notemill",
			Name:      "provider_request_duration_seconds",
			Help:      "Outbound provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"provider", "stage"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notemill",
			Name:      "provider_errors_total",
			Help:      "Total provider errors",
		},
		[]string{"provider", "stage", "error_type"},
	)

	SynthesisTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notemill",
			Name:      "synthesis_tokens_total",
			Help:      "Total completion tokens consumed by the synthesis provider",
		},
		[]string{"provider", "model", "kind"}, // kind: "prompt" / "completion" / "total"
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notemill",
			Name:      "search_cache_total",
			Help:      "Search-result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers Prometheus provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderErrorsTotal)
	prometheus.MustRegister(SynthesisTokensTotal)
	prometheus.MustRegister(SearchCacheTotal)
	providerMetricsRegistered = true
}
