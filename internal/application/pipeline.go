package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fairscore/rankcore/infrastructure/stages"
	"github.com/fairscore/rankcore/internal/domain"
	"github.com/fairscore/rankcore/internal/ports"
)

// Pipeline runs the five compute stages over a round snapshot and produces
// the full derived result set for the round.
//
// A compute run is all-or-nothing: any input error aborts before a single
// derived row is produced. The run itself is a pure function of
// (snapshot, config) — identical inputs always yield bit-identical ranks,
// percentiles, aggregated scores, and tie-breaker traces. Only the RunID,
// which is identity rather than outcome, differs between runs.
//
// The pipeline holds no mutable state and is safe for concurrent use across
// different rounds. Recomputing the same round concurrently is the caller's
// hazard; see ports.ResultSink for the single-writer requirement.
type Pipeline struct {
	config  ComputeConfig
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// PipelineOption customizes optional pipeline collaborators.
type PipelineOption func(*Pipeline)

// WithMetrics attaches a metrics collector that observes run and stage
// latencies, validation failures, and unresolved tie counts.
func WithMetrics(metrics ports.MetricsCollector) PipelineOption {
	return func(p *Pipeline) { p.metrics = metrics }
}

// WithTracer attaches an OpenTelemetry tracer that spans each compute run
// and each stage within it.
func WithTracer(tracer trace.Tracer) PipelineOption {
	return func(p *Pipeline) { p.tracer = tracer }
}

// NewPipeline creates a pipeline with a validated configuration.
func NewPipeline(config ComputeConfig, opts ...PipelineOption) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		config: config,
		tracer: noop.NewTracerProvider().Tracer("rankcore"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Compute runs validation, per-judge statistics, normalization, aggregation,
// ranking, and (when configured) selection over the snapshot. The returned
// ResultSet is the full-replace unit the orchestrator persists.
func (p *Pipeline) Compute(ctx context.Context, snapshot *domain.RoundSnapshot) (*domain.ResultSet, error) {
	started := time.Now()
	ctx, span := p.tracer.Start(ctx, "Pipeline.Compute")
	defer span.End()

	results, err := p.compute(ctx, snapshot)

	status := "success"
	roundID := ""
	if snapshot != nil {
		roundID = snapshot.RoundID
	}
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.String("round_id", roundID),
			attribute.Int("teams_ranked", len(results.Ranked)),
		)
	}
	if p.metrics != nil {
		labels := map[string]string{"round_id": roundID, "status": status}
		p.metrics.RecordLatency("compute", time.Since(started), labels)
		p.metrics.RecordCounter("compute_runs_total", 1, labels)
	}
	return results, err
}

func (p *Pipeline) compute(ctx context.Context, snapshot *domain.RoundSnapshot) (*domain.ResultSet, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", domain.ErrInvalidConfiguration)
	}
	if len(snapshot.Criteria) == 0 {
		return nil, domain.ErrEmptyCriteria
	}
	if len(snapshot.Evaluations) == 0 {
		return nil, domain.ErrNoEvaluations
	}

	if err := p.stage(ctx, "validate", func() error {
		scoreValidator, err := stages.NewScoreValidator(snapshot.Criteria)
		if err != nil {
			return err
		}
		return scoreValidator.ValidateAll(snapshot.Evaluations)
	}); err != nil {
		if p.metrics != nil {
			p.metrics.RecordCounter("validation_failures_total", 1,
				map[string]string{"round_id": snapshot.RoundID})
		}
		return nil, fmt.Errorf("input validation: %w", err)
	}

	var statistics []domain.JudgeStatistic
	if err := p.stage(ctx, "judge_statistics", func() error {
		judgeStats, err := stages.NewJudgeStats(stages.JudgeStatsConfig{Method: p.config.Method})
		if err != nil {
			return err
		}
		statistics, err = judgeStats.Derive(snapshot.Evaluations)
		return err
	}); err != nil {
		return nil, fmt.Errorf("judge statistics: %w", err)
	}

	var normalized []domain.NormalizedEvaluation
	if err := p.stage(ctx, "normalize", func() error {
		normalizer, err := stages.NewNormalizer(snapshot.Criteria)
		if err != nil {
			return err
		}
		normalized, err = normalizer.Normalize(snapshot.Evaluations, statistics)
		return err
	}); err != nil {
		return nil, fmt.Errorf("normalization: %w", err)
	}

	var aggregated []domain.AggregatedTeamResult
	if err := p.stage(ctx, "aggregate", func() error {
		aggregator, err := stages.NewAggregator(p.config.effectiveJudgeWeights(snapshot))
		if err != nil {
			return err
		}
		aggregated, err = aggregator.Aggregate(normalized, snapshot.Criteria)
		return err
	}); err != nil {
		return nil, fmt.Errorf("aggregation: %w", err)
	}

	var ranked []domain.RankedResult
	if err := p.stage(ctx, "rank", func() error {
		ranker, err := stages.NewRanker(snapshot.Criteria)
		if err != nil {
			return err
		}
		ranked, err = ranker.Rank(aggregated)
		return err
	}); err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	p.recordRankingMetrics(snapshot.RoundID, ranked)

	results := &domain.ResultSet{
		RunID:      uuid.New(),
		RoundID:    snapshot.RoundID,
		Method:     p.config.Method,
		Statistics: statistics,
		Normalized: normalized,
		Aggregated: aggregated,
		Ranked:     ranked,
	}

	if p.config.Selection != nil {
		if err := p.stage(ctx, "select", func() error {
			selector, err := stages.NewSelector(*p.config.Selection)
			if err != nil {
				return err
			}
			results.Selection, err = selector.Select(snapshot.Judges, normalized, ranked)
			return err
		}); err != nil {
			return nil, fmt.Errorf("selection: %w", err)
		}
	}

	return results, nil
}

// stage wraps one pipeline stage with a span and a latency observation.
// Instrumentation is observational only; it never influences stage output.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	_, span := p.tracer.Start(ctx, "stage."+name)
	defer span.End()

	started := time.Now()
	err := fn()
	if p.metrics != nil {
		p.metrics.RecordLatency("stage_"+name, time.Since(started),
			map[string]string{"stage": name})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Pipeline) recordRankingMetrics(roundID string, ranked []domain.RankedResult) {
	if p.metrics == nil {
		return
	}
	unresolved := 0
	for _, result := range ranked {
		if result.RequiresManualResolution {
			unresolved++
		}
	}
	labels := map[string]string{"round_id": roundID}
	p.metrics.RecordGauge("teams_ranked", float64(len(ranked)), labels)
	if unresolved > 0 {
		p.metrics.RecordCounter("unresolved_ties_total", float64(unresolved), labels)
	}
}
