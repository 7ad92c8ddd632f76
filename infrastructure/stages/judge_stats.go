package stages

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/fairscore/rankcore/internal/domain"
)

// JudgeStatsConfig selects how a judge's scoring center and spread are
// estimated from their own submissions.
type JudgeStatsConfig struct {
	// Method is the normalization method: "z_score" uses mean and
	// population standard deviation, "robust_mad" uses median and scaled
	// median absolute deviation.
	Method domain.NormalizationMethod `yaml:"method" json:"method" validate:"required,oneof=z_score robust_mad"`
}

// DefaultJudgeStatsConfig returns a JudgeStatsConfig using the z-score method.
func DefaultJudgeStatsConfig() JudgeStatsConfig {
	return JudgeStatsConfig{Method: domain.ZScore}
}

// JudgeStats derives each judge's personal scoring center and spread per
// criterion, from that judge's own submitted values only. A judge who
// systematically scores low gets a low center; the normalizer then measures
// every team against that judge's own baseline instead of an absolute scale.
//
// Degenerate inputs are not errors: a (judge, criterion) pair with fewer
// than two values, or with zero spread, yields Spread == 0 and the
// normalizer maps all of its scores to a neutral z of exactly 0. The stage
// never divides by zero and never emits NaN or Infinity.
type JudgeStats struct {
	config JudgeStatsConfig
}

// NewJudgeStats creates a JudgeStats stage with the given configuration.
func NewJudgeStats(config JudgeStatsConfig) (*JudgeStats, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnknownMethod, err)
	}
	return &JudgeStats{config: config}, nil
}

// Derive computes one JudgeStatistic per (judge, criterion) pair present in
// the evaluations. Output is ordered by judge ID, then criterion ID, so the
// derived rows are byte-identical across recomputations regardless of input
// order.
func (js *JudgeStats) Derive(evaluations []domain.Evaluation) ([]domain.JudgeStatistic, error) {
	if len(evaluations) == 0 {
		return nil, domain.ErrNoEvaluations
	}

	// Collect each judge's own values per criterion across all teams they
	// evaluated. Values are sorted before any statistic is taken so the
	// floating-point result cannot depend on evaluation order.
	byJudge := make(map[string]map[string][]float64)
	for _, ev := range evaluations {
		byCriterion, ok := byJudge[ev.JudgeID]
		if !ok {
			byCriterion = make(map[string][]float64)
			byJudge[ev.JudgeID] = byCriterion
		}
		for criterionID, score := range ev.Scores {
			byCriterion[criterionID] = append(byCriterion[criterionID], score)
		}
	}

	var derived []domain.JudgeStatistic
	for _, judgeID := range sortedKeys(byJudge) {
		byCriterion := byJudge[judgeID]
		for _, criterionID := range sortedKeys(byCriterion) {
			values := byCriterion[criterionID]
			sort.Float64s(values)

			center, spread, err := js.centerSpread(values)
			if err != nil {
				return nil, fmt.Errorf("statistics for judge %s criterion %s: %w",
					judgeID, criterionID, err)
			}

			derived = append(derived, domain.JudgeStatistic{
				JudgeID:     judgeID,
				CriterionID: criterionID,
				Center:      center,
				Spread:      spread,
				SampleCount: len(values),
			})
		}
	}
	return derived, nil
}

// centerSpread computes the configured location/scale pair for one value
// set. Spread is forced to exactly 0 for degenerate inputs: a single sample,
// or values so close that the scale estimate is floating-point residue.
func (js *JudgeStats) centerSpread(values []float64) (center, spread float64, err error) {
	switch js.config.Method {
	case domain.ZScore:
		center, err = stats.Mean(values)
		if err != nil {
			return 0, 0, err
		}
		if len(values) >= 2 {
			spread, err = stats.StandardDeviationPopulation(values)
			if err != nil {
				return 0, 0, err
			}
		}
	case domain.RobustMAD:
		center, err = stats.Median(values)
		if err != nil {
			return 0, 0, err
		}
		if len(values) >= 2 {
			var mad float64
			mad, err = stats.MedianAbsoluteDeviationPopulation(values)
			if err != nil {
				return 0, 0, err
			}
			spread = madConsistency * mad
		}
	default:
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, js.config.Method)
	}

	if spread < spreadFloor {
		spread = 0
	}
	return center, spread, nil
}
