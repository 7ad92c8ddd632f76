// Package application wires the pipeline stages together: it owns the
// validated compute configuration, the Pipeline that runs the five stages
// over a round snapshot, and the Runner that computes many rounds through
// the orchestrator's source and sink.
package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fairscore/rankcore/infrastructure/stages"
	"github.com/fairscore/rankcore/internal/domain"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// ComputeConfig is the complete, validated configuration for one compute
// run. It is an explicit structure with enumerated legal values rather
// than an option bag: an invalid configuration fails construction, never
// mid-pipeline.
type ComputeConfig struct {
	// Method selects the normalization statistics: "z_score" or
	// "robust_mad".
	Method domain.NormalizationMethod `yaml:"method" json:"method" validate:"required,oneof=z_score robust_mad"`

	// JudgeWeights optionally weights each judge's contribution to the
	// aggregated score. Judges absent from the map weigh 1.0. Entries
	// here override weights carried by the round snapshot.
	JudgeWeights map[string]float64 `yaml:"judge_weights,omitempty" json:"judge_weights,omitempty" validate:"omitempty,dive,gt=0"`

	// Selection, when present, runs the selection engine after ranking.
	Selection *stages.SelectionConfig `yaml:"selection,omitempty" json:"selection,omitempty"`
}

// DefaultComputeConfig returns a ComputeConfig using z-score normalization,
// unit judge weights, and no selection stage.
func DefaultComputeConfig() ComputeConfig {
	return ComputeConfig{Method: domain.ZScore}
}

// Validate checks the configuration's structural constraints.
func (c ComputeConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
	}
	return nil
}

// LoadComputeConfig decodes and validates a YAML ComputeConfig document.
func LoadComputeConfig(data []byte) (ComputeConfig, error) {
	var config ComputeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return ComputeConfig{}, fmt.Errorf("failed to decode compute config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return ComputeConfig{}, err
	}
	return config, nil
}

// effectiveJudgeWeights merges snapshot weights with config overrides.
// Snapshot weights come from the persistence layer; config weights are the
// operator's per-run overrides and win on conflict.
func (c ComputeConfig) effectiveJudgeWeights(snapshot *domain.RoundSnapshot) map[string]float64 {
	if len(snapshot.JudgeWeights) == 0 && len(c.JudgeWeights) == 0 {
		return nil
	}
	merged := make(map[string]float64, len(snapshot.JudgeWeights)+len(c.JudgeWeights))
	for judgeID, w := range snapshot.JudgeWeights {
		merged[judgeID] = w
	}
	for judgeID, w := range c.JudgeWeights {
		merged[judgeID] = w
	}
	return merged
}
