// Package domain defines the entities flowing through the ranking pipeline:
// the raw inputs fetched by the orchestrator (criteria, evaluations, judge
// assignments) and the derived rows the pipeline produces (judge statistics,
// normalized evaluations, aggregates, ranked results, selections).
//
// Derived entities are pure functions of the input snapshot plus
// configuration. They carry no identity across recomputations: every compute
// run replaces the full derived set for a round.
package domain

import (
	"sort"

	"github.com/google/uuid"

	mapset "github.com/deckarep/golang-set/v2"
)

// Criterion is one judging dimension for a round, for example "technical
// execution" or "presentation". Criteria are immutable once judging starts.
type Criterion struct {
	// ID uniquely identifies the criterion within its round.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable label shown on score sheets.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// MaxMarks is the upper bound of the raw score range [0, MaxMarks].
	MaxMarks float64 `json:"max_marks" yaml:"max_marks"`

	// Weight scales this criterion's normalized contribution. Must be > 0.
	Weight float64 `json:"weight" yaml:"weight"`

	// DisplayOrder controls score-sheet ordering only; it never influences
	// computation.
	DisplayOrder int `json:"display_order" yaml:"display_order"`
}

// Evaluation is one judge's submitted score sheet for one team.
// Only submitted sheets (IsDraft == false) are valid pipeline input; the
// persistence layer guarantees submitted sheets are immutable.
type Evaluation struct {
	JudgeID string `json:"judge_id" yaml:"judge_id"`
	TeamID  string `json:"team_id" yaml:"team_id"`
	RoundID string `json:"round_id" yaml:"round_id"`

	// Scores maps criterion ID to the raw mark awarded by the judge.
	Scores map[string]float64 `json:"scores" yaml:"scores"`

	IsDraft bool `json:"is_draft" yaml:"is_draft"`
}

// JudgeAssignment records that a judge is assigned to a round, together with
// an optional type tag ("industry", "faculty", ...) used by selection filters.
type JudgeAssignment struct {
	JudgeID   string `json:"judge_id" yaml:"judge_id"`
	JudgeType string `json:"judge_type,omitempty" yaml:"judge_type,omitempty"`
}

// RoundSnapshot is the immutable input bundle for one compute invocation,
// fetched once by the orchestrator before the pipeline runs. The pipeline
// never reads anything outside the snapshot.
type RoundSnapshot struct {
	RoundID     string            `json:"round_id" yaml:"round_id"`
	Criteria    []Criterion       `json:"criteria" yaml:"criteria"`
	Evaluations []Evaluation      `json:"evaluations" yaml:"evaluations"`
	Judges      []JudgeAssignment `json:"judges" yaml:"judges"`

	// JudgeWeights optionally weights each judge's contribution during
	// aggregation. Missing judges default to 1.0.
	JudgeWeights map[string]float64 `json:"judge_weights,omitempty" yaml:"judge_weights,omitempty"`
}

// JudgeStatistic captures one judge's personal scoring center and spread for
// one criterion, derived from that judge's own submissions only.
// Center/spread are mean/population-stddev under ZScore and
// median/scaled-MAD under RobustMAD.
type JudgeStatistic struct {
	JudgeID     string  `json:"judge_id"`
	CriterionID string  `json:"criterion_id"`
	Center      float64 `json:"center"`
	Spread      float64 `json:"spread"`

	// SampleCount is the number of submitted values the statistic was
	// derived from. Fewer than 2 samples forces Spread to 0.
	SampleCount int `json:"sample_count"`
}

// Degenerate reports whether this statistic cannot support standardization,
// either because the judge scored too few teams or gave identical scores.
// Degenerate statistics map every raw score to a neutral z of exactly 0.
func (s JudgeStatistic) Degenerate() bool { return s.SampleCount < 2 || s.Spread == 0 }

// NormalizedEvaluation is one judge's score sheet after bias correction:
// each raw score converted to a weighted z-score against that judge's own
// center/spread.
type NormalizedEvaluation struct {
	JudgeID string `json:"judge_id"`
	TeamID  string `json:"team_id"`

	// WeightedZ maps criterion ID to z * criterion weight. The map is
	// retained because the tie-break cascade compares per-criterion sums.
	WeightedZ map[string]float64 `json:"weighted_z"`

	// JudgeTotal is the sum of WeightedZ over all criteria the judge
	// scored. It is deliberately not divided by the criterion count or
	// weight sum: magnitude scales with how much of the rubric was scored.
	JudgeTotal float64 `json:"judge_total"`

	// RawTotal is the plain sum of the raw marks on the sheet. Used for
	// tie-break fallbacks and per-judge selection.
	RawTotal float64 `json:"raw_total"`
}

// AggregatedTeamResult combines a team's normalized evaluations across every
// judge who scored it.
type AggregatedTeamResult struct {
	TeamID string `json:"team_id"`

	// AggregatedScore is the judge-weighted mean of JudgeTotal values.
	AggregatedScore float64 `json:"aggregated_score"`

	// JudgeCount is the number of judges who scored the team.
	JudgeCount int `json:"judge_count"`

	// PerCriterion sums WeightedZ per criterion across judges, feeding the
	// first tie-break comparator.
	PerCriterion map[string]float64 `json:"per_criterion"`

	// MeanRawTotal and MedianRawTotal summarize the judges' raw sheet
	// totals, feeding the fallback tie-break comparators.
	MeanRawTotal   float64 `json:"mean_raw_total"`
	MedianRawTotal float64 `json:"median_raw_total"`
}

// TraceComparison records one comparator application during tie-breaking:
// the two input values, their delta, and whether this comparator decided
// the ordering.
type TraceComparison struct {
	Comparator string  `json:"comparator"`
	Self       float64 `json:"self"`
	Other      float64 `json:"other"`
	Delta      float64 `json:"delta"`
	Decisive   bool    `json:"decisive"`
}

// TieBreakerTrace is the audit record of how a team was ordered relative to
// the team ranked immediately above it when their aggregated scores were
// within tie-detection tolerance.
type TieBreakerTrace struct {
	// ComparedWith is the team ID of the adjacent higher-ranked team.
	ComparedWith string `json:"compared_with"`

	// Comparisons lists every comparator applied, in cascade order.
	Comparisons []TraceComparison `json:"comparisons"`
}

// RankedResult is a team's final position in the round.
type RankedResult struct {
	TeamID          string  `json:"team_id"`
	Rank            int     `json:"rank"`
	Percentile      float64 `json:"percentile"`
	AggregatedScore float64 `json:"aggregated_score"`

	// IsTied marks members of a group the full cascade could not separate.
	// Tied groups share a rank (standard competition ranking).
	IsTied bool `json:"is_tied"`

	// RequiresManualResolution mirrors IsTied; unresolved ties are a
	// flagged outcome, not an error, and need human follow-up.
	RequiresManualResolution bool `json:"requires_manual_resolution"`

	// Trace is the tie-break audit record against the adjacent
	// higher-ranked team. Nil when the aggregated score alone decided.
	Trace *TieBreakerTrace `json:"tie_breaker_trace,omitempty"`
}

// JudgeSelection is the per-judge transparency record produced by top-N
// selection: the teams that judge advanced, best first by their raw totals.
type JudgeSelection struct {
	JudgeID string   `json:"judge_id"`
	TeamIDs []string `json:"team_ids"`
}

// SelectionResult is the outcome of a selection run: the set of teams
// advancing to the next round plus the evidence of how they were chosen.
type SelectionResult struct {
	Mode SelectionMode `json:"mode"`

	// Stop is true when the round has exactly one assigned judge, making
	// selection a no-op: per-judge and global selection coincide and a
	// next round of identical composition is meaningless.
	Stop bool `json:"stop"`

	// SelectedTeamIDs is the (deduplicated) advancing team set.
	SelectedTeamIDs mapset.Set[string] `json:"selected_team_ids"`

	// PerJudge is populated in per-judge top-N mode.
	PerJudge []JudgeSelection `json:"per_judge_breakdown,omitempty"`

	// Ranked is populated in global top-K mode, in rank order.
	Ranked []string `json:"ranked_list,omitempty"`
}

// PromotionRecord is the row handed to the external persistence layer for
// each advancing team.
type PromotionRecord struct {
	FromRound string        `json:"from_round"`
	ToRound   string        `json:"to_round"`
	TeamID    string        `json:"team_id"`
	Mode      SelectionMode `json:"mode"`
}

// PromotionRecords expands a selection into persistence-ready promotion rows,
// ordered by team ID for deterministic output.
func (r *SelectionResult) PromotionRecords(fromRound, toRound string) []PromotionRecord {
	if r.Stop || r.SelectedTeamIDs == nil {
		return nil
	}
	ids := r.SelectedTeamIDs.ToSlice()
	sort.Strings(ids)
	records := make([]PromotionRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, PromotionRecord{
			FromRound: fromRound,
			ToRound:   toRound,
			TeamID:    id,
			Mode:      r.Mode,
		})
	}
	return records
}

// ResultSet is the full-replace output of one compute run: every derived row
// for the round, stamped with a run identity so exports and audit trails can
// reference the exact computation that produced them.
type ResultSet struct {
	RunID   uuid.UUID           `json:"run_id"`
	RoundID string              `json:"round_id"`
	Method  NormalizationMethod `json:"method"`

	Statistics []JudgeStatistic       `json:"statistics"`
	Normalized []NormalizedEvaluation `json:"normalized"`
	Aggregated []AggregatedTeamResult `json:"aggregated"`
	Ranked     []RankedResult         `json:"ranked"`

	// Selection is present only when the compute run included a selection
	// stage.
	Selection *SelectionResult `json:"selection,omitempty"`
}
