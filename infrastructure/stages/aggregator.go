package stages

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/fairscore/rankcore/internal/domain"
)

// Aggregator combines a team's normalized evaluations across every judge who
// scored it.
//
// The canonical aggregation rule is the judge-weighted mean of judge totals
// (weights default to 1.0, so the unweighted case is the plain mean). A mean
// keeps teams comparable when judges are unevenly assigned: under straight
// summation a mediocre team scored by four judges would outrank a strong
// team scored by two.
type Aggregator struct {
	judgeWeights map[string]float64
}

// NewAggregator creates an aggregator with optional per-judge weights.
// Judges absent from the map weigh 1.0. Non-positive or non-finite weights
// are rejected.
func NewAggregator(judgeWeights map[string]float64) (*Aggregator, error) {
	for judgeID, w := range judgeWeights {
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: judge weight for %q must be > 0, got %v",
				domain.ErrInvalidConfiguration, judgeID, w)
		}
	}
	return &Aggregator{judgeWeights: judgeWeights}, nil
}

// weightOf returns the configured weight for a judge, defaulting to 1.0.
func (a *Aggregator) weightOf(judgeID string) float64 {
	if w, ok := a.judgeWeights[judgeID]; ok {
		return w
	}
	return 1.0
}

// Aggregate groups normalized evaluations by team and produces one
// AggregatedTeamResult per team, ordered by team ID. Along with the
// aggregated score it carries the per-criterion weighted-z sums and the
// mean/median of raw sheet totals that the tie-break cascade consumes.
func (a *Aggregator) Aggregate(
	normalized []domain.NormalizedEvaluation,
	criteria []domain.Criterion,
) ([]domain.AggregatedTeamResult, error) {
	if len(normalized) == 0 {
		return nil, ErrNothingToAggregate
	}

	byTeam := make(map[string][]domain.NormalizedEvaluation)
	for _, row := range normalized {
		byTeam[row.TeamID] = append(byTeam[row.TeamID], row)
	}

	ordered := orderedCriteria(criteria)

	results := make([]domain.AggregatedTeamResult, 0, len(byTeam))
	for _, teamID := range sortedKeys(byTeam) {
		rows := byTeam[teamID]
		// Judge order fixes the floating-point accumulation order.
		sort.Slice(rows, func(i, j int) bool { return rows[i].JudgeID < rows[j].JudgeID })

		totals := make([]float64, len(rows))
		weights := make([]float64, len(rows))
		rawTotals := make([]float64, len(rows))
		for i, row := range rows {
			totals[i] = row.JudgeTotal
			weights[i] = a.weightOf(row.JudgeID)
			rawTotals[i] = row.RawTotal
		}

		perCriterion := make(map[string]float64, len(ordered))
		for _, criterion := range ordered {
			sum := 0.0
			seen := false
			for _, row := range rows {
				if z, ok := row.WeightedZ[criterion.ID]; ok {
					sum += z
					seen = true
				}
			}
			if seen {
				perCriterion[criterion.ID] = sum
			}
		}

		meanRaw, err := stats.Mean(rawTotals)
		if err != nil {
			return nil, fmt.Errorf("mean raw total for team %s: %w", teamID, err)
		}
		medianRaw, err := stats.Median(rawTotals)
		if err != nil {
			return nil, fmt.Errorf("median raw total for team %s: %w", teamID, err)
		}

		results = append(results, domain.AggregatedTeamResult{
			TeamID:          teamID,
			AggregatedScore: stat.Mean(totals, weights),
			JudgeCount:      len(rows),
			PerCriterion:    perCriterion,
			MeanRawTotal:    meanRaw,
			MedianRawTotal:  medianRaw,
		})
	}
	return results, nil
}
