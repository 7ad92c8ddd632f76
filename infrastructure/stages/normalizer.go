package stages

import (
	"sort"

	"github.com/fairscore/rankcore/internal/domain"
)

// statKey identifies a (judge, criterion) statistic.
type statKey struct {
	judgeID     string
	criterionID string
}

// Normalizer converts each raw per-criterion score into a weighted,
// judge-corrected value: z = (score - center) / spread against the judge's
// own statistic, scaled by the criterion weight. A degenerate statistic
// (Spread == 0) contributes a neutral 0 instead of an undefined value.
type Normalizer struct {
	criteria []domain.Criterion
}

// NewNormalizer builds a normalizer over the round's criteria. The criteria
// define both the per-criterion weights and the canonical summation order
// for judge totals.
func NewNormalizer(criteria []domain.Criterion) (*Normalizer, error) {
	if len(criteria) == 0 {
		return nil, ErrEmptyCriteria
	}
	return &Normalizer{criteria: orderedCriteria(criteria)}, nil
}

// Normalize produces one NormalizedEvaluation per input evaluation.
//
// JudgeTotal is the sum of weighted z-scores over the criteria the judge
// actually scored; it is intentionally not divided by the criterion count or
// weight sum, so a sheet covering more of the rubric carries proportionally
// more signal. The per-criterion weighted-z map is retained because the
// tie-break cascade later compares per-criterion aggregates.
//
// Output is ordered by judge ID then team ID for recomputation stability.
func (n *Normalizer) Normalize(
	evaluations []domain.Evaluation,
	statistics []domain.JudgeStatistic,
) ([]domain.NormalizedEvaluation, error) {
	if len(evaluations) == 0 {
		return nil, ErrNothingToNormalize
	}

	stats := make(map[statKey]domain.JudgeStatistic, len(statistics))
	for _, s := range statistics {
		stats[statKey{s.JudgeID, s.CriterionID}] = s
	}

	normalized := make([]domain.NormalizedEvaluation, 0, len(evaluations))
	for _, ev := range evaluations {
		row := domain.NormalizedEvaluation{
			JudgeID:   ev.JudgeID,
			TeamID:    ev.TeamID,
			WeightedZ: make(map[string]float64, len(ev.Scores)),
		}

		// Criteria are walked in canonical order so the two running
		// sums accumulate identically on every recomputation.
		for _, criterion := range n.criteria {
			score, scored := ev.Scores[criterion.ID]
			if !scored {
				continue
			}
			row.RawTotal += score

			weightedZ := 0.0
			stat, ok := stats[statKey{ev.JudgeID, criterion.ID}]
			if ok && !stat.Degenerate() {
				weightedZ = (score - stat.Center) / stat.Spread * criterion.Weight
			}
			row.WeightedZ[criterion.ID] = weightedZ
			row.JudgeTotal += weightedZ
		}

		normalized = append(normalized, row)
	}

	sort.Slice(normalized, func(i, j int) bool {
		if normalized[i].JudgeID != normalized[j].JudgeID {
			return normalized[i].JudgeID < normalized[j].JudgeID
		}
		return normalized[i].TeamID < normalized[j].TeamID
	})
	return normalized, nil
}
