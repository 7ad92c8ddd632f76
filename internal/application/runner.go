package application

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/fairscore/rankcore/internal/domain"
	"github.com/fairscore/rankcore/internal/ports"
)

// DefaultRoundConcurrency bounds how many rounds a Runner recomputes at once.
const DefaultRoundConcurrency = 4

// Runner drives the pipeline through the orchestrator's boundary: fetch a
// round snapshot, compute, and hand the result set to the sink for
// full-replace persistence.
//
// Different rounds share no state and are computed concurrently. The same
// round must never be recomputed concurrently — that is the sink's
// single-writer requirement — so ComputeRounds rejects duplicate round IDs
// within a batch. Serializing recomputations of one round across batches
// remains the orchestrator's job.
type Runner struct {
	source      ports.SnapshotSource
	sink        ports.ResultSink
	pipeline    *Pipeline
	concurrency int
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithRoundConcurrency bounds the number of rounds computed in parallel.
func WithRoundConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner creates a Runner over the orchestrator's source and sink.
func NewRunner(source ports.SnapshotSource, sink ports.ResultSink, pipeline *Pipeline, opts ...RunnerOption) (*Runner, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil snapshot source", domain.ErrInvalidConfiguration)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: nil result sink", domain.ErrInvalidConfiguration)
	}
	if pipeline == nil {
		return nil, fmt.Errorf("%w: nil pipeline", domain.ErrInvalidConfiguration)
	}
	r := &Runner{
		source:      source,
		sink:        sink,
		pipeline:    pipeline,
		concurrency: DefaultRoundConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ComputeRound recomputes one round end to end and persists the replacement
// result set. The returned ResultSet is the same value handed to the sink.
func (r *Runner) ComputeRound(ctx context.Context, roundID string) (*domain.ResultSet, error) {
	snapshot, err := r.source.Snapshot(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot for round %s: %w", roundID, err)
	}

	results, err := r.pipeline.Compute(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("compute round %s: %w", roundID, err)
	}

	if err := r.sink.Replace(ctx, results); err != nil {
		return nil, fmt.Errorf("persist results for round %s: %w", roundID, err)
	}
	return results, nil
}

// ComputeRounds recomputes a batch of distinct rounds concurrently. The
// first failure cancels the remaining work; already-persisted rounds stay
// persisted (each round is individually all-or-nothing).
func (r *Runner) ComputeRounds(ctx context.Context, roundIDs []string) error {
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, roundID := range roundIDs {
		if !seen.Add(roundID) {
			return fmt.Errorf("%w: round %s appears twice in batch; same-round recomputation must be serialized",
				domain.ErrInvalidConfiguration, roundID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, roundID := range roundIDs {
		g.Go(func() error {
			_, err := r.ComputeRound(gctx, roundID)
			return err
		})
	}
	return g.Wait()
}
