// Package middleware provides cross-cutting observability for the ranking
// engine. Observers here watch pipeline runs from the outside and never
// influence computation results.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fairscore/rankcore/internal/ports"
)

// Compile-time verification that RankingMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*RankingMetrics)(nil)

// RankingMetrics implements the MetricsCollector interface using Prometheus.
// It tracks compute throughput, stage latency, validation failures, and
// unresolved-tie counts across rounds.
type RankingMetrics struct {
	computeRuns        *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	unresolvedTies     *prometheus.CounterVec
	stageLatency       *prometheus.HistogramVec
	teamsRanked        *prometheus.GaugeVec
	systemGauges       *prometheus.GaugeVec
	operationCounter   *prometheus.CounterVec
}

// NewRankingMetrics creates a RankingMetrics instance and registers all
// metrics with the given registerer. Pass prometheus.DefaultRegisterer for
// the usual global registry, or a fresh registry in tests.
func NewRankingMetrics(reg prometheus.Registerer) *RankingMetrics {
	factory := promauto.With(reg)
	return &RankingMetrics{
		computeRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcore_compute_runs_total",
				Help: "Total number of compute runs, by round and outcome.",
			},
			[]string{"round_id", "status"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcore_validation_failures_total",
				Help: "Compute runs aborted by raw-score validation.",
			},
			[]string{"round_id"},
		),
		unresolvedTies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcore_unresolved_ties_total",
				Help: "Ranked results flagged for manual tie resolution.",
			},
			[]string{"round_id"},
		),
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rankcore_stage_duration_seconds",
				Help:    "Execution time of individual pipeline stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		teamsRanked: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rankcore_teams_ranked",
				Help: "Number of teams ranked in the most recent run per round.",
			},
			[]string{"round_id"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rankcore_system_state",
				Help: "Miscellaneous engine state values.",
			},
			[]string{"metric"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcore_operations_total",
				Help: "Total engine operations, by operation and status.",
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (m *RankingMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	m.stageLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (m *RankingMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "compute_runs_total":
		m.computeRuns.WithLabelValues(labels["round_id"], labels["status"]).Add(value)
	case "validation_failures_total":
		m.validationFailures.WithLabelValues(labels["round_id"]).Add(value)
	case "unresolved_ties_total":
		m.unresolvedTies.WithLabelValues(labels["round_id"]).Add(value)
	default:
		m.operationCounter.WithLabelValues(metric, "success").Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (m *RankingMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "teams_ranked":
		m.teamsRanked.WithLabelValues(labels["round_id"]).Set(value)
	default:
		m.systemGauges.WithLabelValues(metric).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (m *RankingMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	m.stageLatency.WithLabelValues(metric).Observe(value)
}
