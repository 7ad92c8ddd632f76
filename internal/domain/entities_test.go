package domain

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func TestJudgeStatistic_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		stat JudgeStatistic
		want bool
	}{
		{
			name: "healthy statistic",
			stat: JudgeStatistic{Center: 70, Spread: 8.2, SampleCount: 3},
			want: false,
		},
		{
			name: "single sample",
			stat: JudgeStatistic{Center: 70, SampleCount: 1},
			want: true,
		},
		{
			name: "zero spread with enough samples",
			stat: JudgeStatistic{Center: 70, Spread: 0, SampleCount: 5},
			want: true,
		},
		{
			name: "no samples",
			stat: JudgeStatistic{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stat.Degenerate())
		})
	}
}

func TestSelectionResult_PromotionRecords(t *testing.T) {
	t.Run("records sorted by team ID", func(t *testing.T) {
		selection := &SelectionResult{
			Mode:            PerJudgeTopN,
			SelectedTeamIDs: mapset.NewThreadUnsafeSet("team-09", "team-02", "team-11"),
		}

		records := selection.PromotionRecords("semis", "finals")

		assert.Equal(t, []PromotionRecord{
			{FromRound: "semis", ToRound: "finals", TeamID: "team-02", Mode: PerJudgeTopN},
			{FromRound: "semis", ToRound: "finals", TeamID: "team-09", Mode: PerJudgeTopN},
			{FromRound: "semis", ToRound: "finals", TeamID: "team-11", Mode: PerJudgeTopN},
		}, records)
	})

	t.Run("stopped selection yields no records", func(t *testing.T) {
		selection := &SelectionResult{
			Mode:            PerJudgeTopN,
			Stop:            true,
			SelectedTeamIDs: mapset.NewThreadUnsafeSet("team-01"),
		}
		assert.Nil(t, selection.PromotionRecords("semis", "finals"))
	})

	t.Run("nil set yields no records", func(t *testing.T) {
		selection := &SelectionResult{Mode: GlobalTopK}
		assert.Nil(t, selection.PromotionRecords("semis", "finals"))
	})
}

func TestNormalizationMethod_Valid(t *testing.T) {
	assert.True(t, ZScore.Valid())
	assert.True(t, RobustMAD.Valid())
	assert.False(t, NormalizationMethod("percentile").Valid())
	assert.False(t, NormalizationMethod("").Valid())
}

func TestSelectionMode_Valid(t *testing.T) {
	assert.True(t, PerJudgeTopN.Valid())
	assert.True(t, GlobalTopK.Valid())
	assert.False(t, SelectionMode("lottery").Valid())
}
