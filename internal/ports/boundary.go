// Package ports defines the interfaces at the engine's boundary. The engine
// is a library invoked by an orchestrator that owns persistence, scheduling,
// and access control; these interfaces are what that orchestrator plugs in.
package ports

import (
	"context"
	"time"

	"github.com/fairscore/rankcore/internal/domain"
)

// SnapshotSource fetches the immutable input bundle for a round. The source
// must already have filtered out draft evaluations; the pipeline rejects any
// that slip through.
type SnapshotSource interface {
	// Snapshot returns the round's criteria, submitted evaluations, judge
	// assignments, and optional judge weights as one consistent read.
	Snapshot(ctx context.Context, roundID string) (*domain.RoundSnapshot, error)
}

// ResultSink persists a compute run's derived rows. Recomputation is
// full-replace: Replace must delete every prior derived row for the round
// before inserting the new set, atomically from the reader's point of view.
//
// Two concurrent Replace calls for the same round can interleave and corrupt
// results. The orchestrator must serialize recomputation per round, for
// example with a round-level advisory lock or a single-writer queue; the
// engine provides no locking of its own. Different rounds never share state
// and may be replaced concurrently.
type ResultSink interface {
	Replace(ctx context.Context, results *domain.ResultSet) error
}

// MetricsCollector receives operational metrics emitted around pipeline
// runs. Implementations integrate with Prometheus, OpenTelemetry, or custom
// monitoring; collection is observational only and never influences results.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
