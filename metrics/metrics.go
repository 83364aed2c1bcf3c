// Package metrics exposes Prometheus instrumentation for the cache and the scoring paths.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for projectmatch.
type Metrics struct {
	// Vector cache
	CacheLookupsTotal  *prometheus.CounterVec
	CacheFailuresTotal *prometheus.CounterVec
	BreakerState       *prometheus.GaugeVec

	// Scoring
	CandidatesTotal *prometheus.CounterVec
	RankDuration    prometheus.Histogram
	BatchUsersTotal *prometheus.CounterVec

	// Profile aggregation
	AggregationsTotal *prometheus.CounterVec
}

// Default creates and registers the metrics on the default registry.
//
// sync.Once guards against "duplicate metrics collector registration" panics
// when several components ask for the metrics.
//
// Metrics:
//   - projectmatch_cache_lookups_total{tier,result} - hits and misses per tier
//   - projectmatch_cache_failures_total{tier,op} - recovered backend failures
//   - projectmatch_cache_breaker_state{name} - 0 closed, 1 half-open, 2 open
//   - projectmatch_candidates_total{outcome} - scored, filtered, skipped candidates
//   - projectmatch_rank_duration_seconds - time to rank one user
//   - projectmatch_batch_users_total{outcome} - users scored per batch run
//   - projectmatch_aggregations_total{outcome} - profile aggregation queries
func Default() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = New(prometheus.DefaultRegisterer)
	})
	return globalMetrics
}

// New creates metrics registered on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectmatch_cache_lookups_total",
				Help: "Total vector cache lookups by tier and result",
			},
			[]string{"tier", "result"}, // "local"/"remote", "hit"/"miss"
		),
		CacheFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectmatch_cache_failures_total",
				Help: "Total recovered vector cache backend failures",
			},
			[]string{"tier", "op"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "projectmatch_cache_breaker_state",
				Help: "Circuit breaker state of the remote cache tier (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
		CandidatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectmatch_candidates_total",
				Help: "Total candidate projects by scoring outcome",
			},
			[]string{"outcome"}, // "ranked", "below_threshold", "missing_vector", "dimension_mismatch"
		),
		RankDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "projectmatch_rank_duration_seconds",
				Help:    "Time spent ranking the candidates of one user",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
		BatchUsersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectmatch_batch_users_total",
				Help: "Total users processed by batch runs",
			},
			[]string{"outcome"}, // "succeeded", "failed"
		),
		AggregationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectmatch_aggregations_total",
				Help: "Total profile aggregation queries by outcome",
			},
			[]string{"outcome"}, // "ok", "empty_profile", "model_unavailable", "unmapped_profile", "no_candidates"
		),
	}
}
