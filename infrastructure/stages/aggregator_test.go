package stages

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairscore/rankcore/internal/domain"
)

func TestNewAggregator(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
		wantErr bool
	}{
		{name: "nil weights"},
		{name: "positive weights", weights: map[string]float64{"j1": 0.5, "j2": 2}},
		{name: "zero weight rejected", weights: map[string]float64{"j1": 0}, wantErr: true},
		{name: "negative weight rejected", weights: map[string]float64{"j1": -1}, wantErr: true},
		{name: "NaN weight rejected", weights: map[string]float64{"j1": math.NaN()}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAggregator(tt.weights)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	criteria := []domain.Criterion{
		{ID: "c1", MaxMarks: 100, Weight: 2.0},
		{ID: "c2", MaxMarks: 50, Weight: 1.0},
	}

	normalized := []domain.NormalizedEvaluation{
		{JudgeID: "j1", TeamID: "t1", JudgeTotal: 2.0, RawTotal: 120,
			WeightedZ: map[string]float64{"c1": 1.5, "c2": 0.5}},
		{JudgeID: "j2", TeamID: "t1", JudgeTotal: 1.0, RawTotal: 100,
			WeightedZ: map[string]float64{"c1": 0.5, "c2": 0.5}},
		{JudgeID: "j3", TeamID: "t1", JudgeTotal: -0.6, RawTotal: 80,
			WeightedZ: map[string]float64{"c1": -0.4, "c2": -0.2}},
		{JudgeID: "j1", TeamID: "t2", JudgeTotal: -1.0, RawTotal: 60,
			WeightedZ: map[string]float64{"c1": -1.0}},
	}

	t.Run("unweighted mean of judge totals", func(t *testing.T) {
		aggregator, err := NewAggregator(nil)
		require.NoError(t, err)

		results, err := aggregator.Aggregate(normalized, criteria)
		require.NoError(t, err)
		require.Len(t, results, 2)

		t1 := results[0]
		assert.Equal(t, "t1", t1.TeamID)
		assert.Equal(t, 3, t1.JudgeCount)
		assert.InDelta(t, (2.0+1.0-0.6)/3, t1.AggregatedScore, 1e-9)
		assert.InDelta(t, 1.6, t1.PerCriterion["c1"], 1e-9)
		assert.InDelta(t, 0.8, t1.PerCriterion["c2"], 1e-9)
		assert.InDelta(t, 100.0, t1.MeanRawTotal, 1e-9)
		assert.InDelta(t, 100.0, t1.MedianRawTotal, 1e-9)

		t2 := results[1]
		assert.Equal(t, "t2", t2.TeamID)
		assert.Equal(t, 1, t2.JudgeCount)
		assert.InDelta(t, -1.0, t2.AggregatedScore, 1e-9)
		_, present := t2.PerCriterion["c2"]
		assert.False(t, present, "criteria nobody scored stay absent")
	})

	t.Run("judge weights shift the mean", func(t *testing.T) {
		aggregator, err := NewAggregator(map[string]float64{"j1": 3.0})
		require.NoError(t, err)

		results, err := aggregator.Aggregate(normalized, criteria)
		require.NoError(t, err)

		// t1: (3*2.0 + 1*1.0 + 1*(-0.6)) / 5.
		assert.InDelta(t, 6.4/5, results[0].AggregatedScore, 1e-9)
	})

	t.Run("unequal judge counts stay comparable", func(t *testing.T) {
		aggregator, err := NewAggregator(nil)
		require.NoError(t, err)

		rows := []domain.NormalizedEvaluation{
			{JudgeID: "j1", TeamID: "strong", JudgeTotal: 2.0, RawTotal: 90, WeightedZ: map[string]float64{"c1": 2.0}},
			{JudgeID: "j2", TeamID: "strong", JudgeTotal: 2.0, RawTotal: 92, WeightedZ: map[string]float64{"c1": 2.0}},
			{JudgeID: "j1", TeamID: "mediocre", JudgeTotal: 0.8, RawTotal: 70, WeightedZ: map[string]float64{"c1": 0.8}},
			{JudgeID: "j2", TeamID: "mediocre", JudgeTotal: 0.8, RawTotal: 71, WeightedZ: map[string]float64{"c1": 0.8}},
			{JudgeID: "j3", TeamID: "mediocre", JudgeTotal: 0.8, RawTotal: 72, WeightedZ: map[string]float64{"c1": 0.8}},
			{JudgeID: "j4", TeamID: "mediocre", JudgeTotal: 0.8, RawTotal: 69, WeightedZ: map[string]float64{"c1": 0.8}},
			{JudgeID: "j5", TeamID: "mediocre", JudgeTotal: 0.8, RawTotal: 70, WeightedZ: map[string]float64{"c1": 0.8}},
			{JudgeID: "j6", TeamID: "mediocre", JudgeTotal: 0.8, RawTotal: 70, WeightedZ: map[string]float64{"c1": 0.8}},
		}
		results, err := aggregator.Aggregate(rows, criteria)
		require.NoError(t, err)

		byTeam := map[string]float64{}
		for _, r := range results {
			byTeam[r.TeamID] = r.AggregatedScore
		}
		// Straight summation would put mediocre (6 judges * 0.8 = 4.8)
		// above strong (2 * 2.0 = 4.0); the mean keeps them comparable.
		assert.Greater(t, byTeam["strong"], byTeam["mediocre"])
	})

	t.Run("empty input is an error", func(t *testing.T) {
		aggregator, err := NewAggregator(nil)
		require.NoError(t, err)
		_, err = aggregator.Aggregate(nil, criteria)
		assert.ErrorIs(t, err, ErrNothingToAggregate)
	})

	t.Run("median of even raw-total count", func(t *testing.T) {
		aggregator, err := NewAggregator(nil)
		require.NoError(t, err)

		rows := []domain.NormalizedEvaluation{
			{JudgeID: "j1", TeamID: "t1", RawTotal: 60, WeightedZ: map[string]float64{}},
			{JudgeID: "j2", TeamID: "t1", RawTotal: 100, WeightedZ: map[string]float64{}},
		}
		results, err := aggregator.Aggregate(rows, criteria)
		require.NoError(t, err)
		assert.InDelta(t, 80.0, results[0].MedianRawTotal, 1e-9)
	})
}
