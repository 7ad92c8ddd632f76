package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairscore/rankcore/infrastructure/stages"
	"github.com/fairscore/rankcore/internal/domain"
)

func TestComputeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ComputeConfig
		wantErr bool
	}{
		{
			name:   "default config",
			config: DefaultComputeConfig(),
		},
		{
			name: "robust MAD with selection",
			config: ComputeConfig{
				Method:    domain.RobustMAD,
				Selection: &stages.SelectionConfig{Mode: domain.GlobalTopK, TopK: 5},
			},
		},
		{
			name:    "missing method",
			config:  ComputeConfig{},
			wantErr: true,
		},
		{
			name:    "unknown method",
			config:  ComputeConfig{Method: "trimmed_mean"},
			wantErr: true,
		},
		{
			name: "non-positive judge weight",
			config: ComputeConfig{
				Method:       domain.ZScore,
				JudgeWeights: map[string]float64{"j1": 0},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadComputeConfig(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		config, err := LoadComputeConfig([]byte(`
method: robust_mad
judge_weights:
  j1: 2.0
selection:
  mode: per_judge_top_n
  top_n: 5
  judge_type_filter: [industry]
`))
		require.NoError(t, err)
		assert.Equal(t, domain.RobustMAD, config.Method)
		assert.Equal(t, 2.0, config.JudgeWeights["j1"])
		require.NotNil(t, config.Selection)
		assert.Equal(t, domain.PerJudgeTopN, config.Selection.Mode)
		assert.Equal(t, 5, config.Selection.TopN)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadComputeConfig([]byte("method: [broken"))
		assert.Error(t, err)
	})

	t.Run("valid yaml, invalid config", func(t *testing.T) {
		_, err := LoadComputeConfig([]byte("method: mystery"))
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})
}

func TestEffectiveJudgeWeights(t *testing.T) {
	snapshot := &domain.RoundSnapshot{
		JudgeWeights: map[string]float64{"j1": 1.5, "j2": 0.5},
	}

	t.Run("config overrides snapshot on conflict", func(t *testing.T) {
		config := ComputeConfig{Method: domain.ZScore, JudgeWeights: map[string]float64{"j2": 3.0}}
		merged := config.effectiveJudgeWeights(snapshot)
		assert.Equal(t, 1.5, merged["j1"])
		assert.Equal(t, 3.0, merged["j2"])
	})

	t.Run("nothing configured yields nil", func(t *testing.T) {
		config := ComputeConfig{Method: domain.ZScore}
		assert.Nil(t, config.effectiveJudgeWeights(&domain.RoundSnapshot{}))
	})
}
