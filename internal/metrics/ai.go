package metrics

import "github.com/prometheus/client_golang/prometheus"

// AI provider Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forum",
			Name:      "ai_requests_total",
			Help:      "Total number of AI provider requests",
		},
		[]string{"kind", "model", "status"}, // kind: embedding / completion
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forum",
			Name:      "ai_request_duration_seconds",
			Help:      "AI provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "model"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forum",
			Name:      "ai_tokens_total",
			Help:      "Total provider tokens consumed",
		},
		[]string{"kind", "model", "type"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forum",
			Name:      "ai_errors_total",
			Help:      "Total AI provider errors",
		},
		[]string{"kind", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forum",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	MilestonesFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forum",
			Name:      "vote_milestones_fired_total",
			Help:      "Milestone notifications fired by upvote threshold",
		},
		[]string{"threshold"},
	)
)

var aiMetricsRegistered bool

// RegisterAIMetrics registers Prometheus AI metrics. Must be called once from main.
func RegisterAIMetrics() {
	if aiMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderTokensTotal)
	prometheus.MustRegister(ProviderErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(MilestonesFiredTotal)
	aiMetricsRegistered = true
}
