package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingMetrics_RecordCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewRankingMetrics(reg)

	metrics.RecordCounter("compute_runs_total", 1, map[string]string{"round_id": "r1", "status": "success"})
	metrics.RecordCounter("compute_runs_total", 1, map[string]string{"round_id": "r1", "status": "success"})
	metrics.RecordCounter("validation_failures_total", 1, map[string]string{"round_id": "r1"})
	metrics.RecordCounter("unresolved_ties_total", 3, map[string]string{"round_id": "r1"})
	metrics.RecordCounter("export_requests", 1, nil)

	assert.InDelta(t, 2.0, testutil.ToFloat64(
		metrics.computeRuns.WithLabelValues("r1", "success")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		metrics.validationFailures.WithLabelValues("r1")), 1e-9)
	assert.InDelta(t, 3.0, testutil.ToFloat64(
		metrics.unresolvedTies.WithLabelValues("r1")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		metrics.operationCounter.WithLabelValues("export_requests", "success")), 1e-9)
}

func TestRankingMetrics_RecordGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewRankingMetrics(reg)

	metrics.RecordGauge("teams_ranked", 12, map[string]string{"round_id": "r1"})
	metrics.RecordGauge("teams_ranked", 8, map[string]string{"round_id": "r1"})
	metrics.RecordGauge("active_rounds", 2, nil)

	assert.InDelta(t, 8.0, testutil.ToFloat64(
		metrics.teamsRanked.WithLabelValues("r1")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(
		metrics.systemGauges.WithLabelValues("active_rounds")), 1e-9)
}

func TestRankingMetrics_RecordLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewRankingMetrics(reg)

	metrics.RecordLatency("stage_rank", 25*time.Millisecond, nil)
	metrics.RecordLatency("stage_rank", 40*time.Millisecond, nil)

	count := testutil.CollectAndCount(metrics.stageLatency)
	require.Equal(t, 1, count, "one labeled series expected")
}

func TestRankingMetrics_SeparateRegistries(t *testing.T) {
	// Two instances on independent registries must not collide.
	first := NewRankingMetrics(prometheus.NewRegistry())
	second := NewRankingMetrics(prometheus.NewRegistry())

	first.RecordCounter("compute_runs_total", 1, map[string]string{"round_id": "r1", "status": "success"})

	assert.InDelta(t, 1.0, testutil.ToFloat64(
		first.computeRuns.WithLabelValues("r1", "success")), 1e-9)
	assert.InDelta(t, 0.0, testutil.ToFloat64(
		second.computeRuns.WithLabelValues("r1", "success")), 1e-9)
}
