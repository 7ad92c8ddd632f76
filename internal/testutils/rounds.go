// Package testutils provides synthetic round generators for tests and
// benchmarks. Generated rounds model the real failure mode the engine
// exists for: judges with different personal leniency scoring overlapping
// team sets.
package testutils

import (
	"fmt"
	"math"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/fairscore/rankcore/internal/domain"
)

// RoundSpec sizes a synthetic round.
type RoundSpec struct {
	Teams     int
	Judges    int
	Criteria  int
	MaxMarks  float64
	JudgeType string
}

// DefaultRoundSpec returns a mid-sized round: 12 teams, 4 judges, 3 criteria.
func DefaultRoundSpec() RoundSpec {
	return RoundSpec{Teams: 12, Judges: 4, Criteria: 3, MaxMarks: 100}
}

// GenerateRound builds a fully scored synthetic round. Each team gets a
// latent quality, each judge a personal leniency offset and harshness
// factor, and every judge scores every team — so the unbiased ranking is
// known (by quality) while the raw scores disagree judge to judge.
//
// The same seed always yields the same round.
func GenerateRound(seed uint64, spec RoundSpec) *domain.RoundSnapshot {
	faker := gofakeit.New(seed)

	criteria := make([]domain.Criterion, spec.Criteria)
	for i := range criteria {
		criteria[i] = domain.Criterion{
			ID:           fmt.Sprintf("c%02d", i+1),
			Name:         faker.BuzzWord(),
			MaxMarks:     spec.MaxMarks,
			Weight:       math.Round(faker.Float64Range(0.5, 3.0)*10) / 10,
			DisplayOrder: i + 1,
		}
	}

	quality := make([]float64, spec.Teams)
	for i := range quality {
		quality[i] = faker.Float64Range(0.25, 0.95)
	}

	type judgeBias struct {
		offset    float64 // additive leniency, fraction of max marks
		harshness float64 // multiplicative compression/expansion
	}
	judges := make([]domain.JudgeAssignment, spec.Judges)
	biases := make([]judgeBias, spec.Judges)
	for i := range judges {
		judges[i] = domain.JudgeAssignment{
			JudgeID:   fmt.Sprintf("j%02d", i+1),
			JudgeType: spec.JudgeType,
		}
		biases[i] = judgeBias{
			offset:    faker.Float64Range(-0.15, 0.15),
			harshness: faker.Float64Range(0.7, 1.3),
		}
	}

	var evaluations []domain.Evaluation
	for t := 0; t < spec.Teams; t++ {
		teamID := fmt.Sprintf("team-%02d", t+1)
		for j := range judges {
			scores := make(map[string]float64, len(criteria))
			for _, criterion := range criteria {
				noise := faker.Float64Range(-0.03, 0.03)
				raw := (quality[t]*biases[j].harshness + biases[j].offset + noise) * criterion.MaxMarks
				scores[criterion.ID] = clamp(raw, 0, criterion.MaxMarks)
			}
			evaluations = append(evaluations, domain.Evaluation{
				JudgeID: judges[j].JudgeID,
				TeamID:  teamID,
				RoundID: "round-1",
				Scores:  scores,
			})
		}
	}

	return &domain.RoundSnapshot{
		RoundID:     "round-1",
		Criteria:    criteria,
		Evaluations: evaluations,
		Judges:      judges,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
