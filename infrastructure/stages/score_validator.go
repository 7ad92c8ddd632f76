package stages

import (
	"math"
	"sort"

	"github.com/agnivade/levenshtein"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/fairscore/rankcore/internal/domain"
)

// reservedScoreKeys are computed-field names the engine derives itself.
// A score map carrying any of them is pre-computed input smuggled past the
// pipeline and is rejected outright.
var reservedScoreKeys = map[string]struct{}{
	"z_score":          {},
	"weighted_z":       {},
	"rank":             {},
	"percentile":       {},
	"mean":             {},
	"median":           {},
	"std":              {},
	"mad":              {},
	"judge_total":      {},
	"aggregated_score": {},
}

// suggestionMaxDistance bounds how far an unknown score key may be from a
// criterion ID before the "did you mean" hint is suppressed.
const suggestionMaxDistance = 3

// ScoreValidator rejects malformed evaluations before any statistic is
// derived from them. It reports every violation it finds, not just the
// first, so a caller can surface the complete list of problems at once.
type ScoreValidator struct {
	criteria     map[string]domain.Criterion
	criterionIDs []string
}

// NewScoreValidator builds a validator over the round's criteria. It returns
// an error for an empty criteria list, duplicate criterion IDs, or criteria
// with non-positive max marks or weight, since no evaluation can be judged
// against a broken rubric.
func NewScoreValidator(criteria []domain.Criterion) (*ScoreValidator, error) {
	if len(criteria) == 0 {
		return nil, ErrEmptyCriteria
	}

	verr := domain.NewValidationError("criteria")
	byID := make(map[string]domain.Criterion, len(criteria))
	ids := make([]string, 0, len(criteria))
	for _, c := range criteria {
		if c.ID == "" {
			verr.Add("criterion with empty id")
			continue
		}
		if _, dup := byID[c.ID]; dup {
			verr.Add("criterion %q: %v", c.ID, ErrDuplicateCriterion)
			continue
		}
		if c.MaxMarks <= 0 || math.IsNaN(c.MaxMarks) || math.IsInf(c.MaxMarks, 0) {
			verr.Add("criterion %q: max_marks must be > 0, got %v", c.ID, c.MaxMarks)
		}
		if c.Weight <= 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			verr.Add("criterion %q: weight must be > 0, got %v", c.ID, c.Weight)
		}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	if verr.HasViolations() {
		return nil, verr
	}
	sort.Strings(ids)

	return &ScoreValidator{criteria: byID, criterionIDs: ids}, nil
}

// ValidateEvaluation checks one evaluation's score map against the rubric.
// It returns nil when the evaluation is acceptable, or a
// *domain.ValidationError enumerating every violation found.
func (v *ScoreValidator) ValidateEvaluation(ev domain.Evaluation) error {
	verr := domain.NewValidationError("evaluation " + ev.JudgeID + "/" + ev.TeamID)

	if ev.JudgeID == "" {
		verr.Add("judge_id is empty")
	}
	if ev.TeamID == "" {
		verr.Add("team_id is empty")
	}
	if ev.IsDraft {
		verr.Add("draft evaluations are not valid input")
	}
	if len(ev.Scores) == 0 {
		verr.Add("score map is empty")
	}

	for _, key := range sortedKeys(ev.Scores) {
		score := ev.Scores[key]

		if _, reserved := reservedScoreKeys[key]; reserved {
			verr.Add("score key %q is a computed field and must not be supplied", key)
			continue
		}

		criterion, known := v.criteria[key]
		if !known {
			if hint := v.closestCriterion(key); hint != "" {
				verr.Add("unknown criterion %q (did you mean %q?)", key, hint)
			} else {
				verr.Add("unknown criterion %q", key)
			}
			continue
		}

		if math.IsNaN(score) || math.IsInf(score, 0) {
			verr.Add("criterion %q: score is not a finite number", key)
			continue
		}
		if score < 0 || score > criterion.MaxMarks {
			verr.Add("criterion %q: score %v outside [0, %v]", key, score, criterion.MaxMarks)
		}
	}

	if verr.HasViolations() {
		return verr
	}
	return nil
}

// ValidateAll checks every evaluation and merges the violations into a
// single *domain.ValidationError, or returns nil when all pass. A compute
// run is all-or-nothing: one malformed evaluation fails the whole batch.
func (v *ScoreValidator) ValidateAll(evaluations []domain.Evaluation) error {
	if len(evaluations) == 0 {
		return domain.ErrNoEvaluations
	}

	combined := domain.NewValidationError("evaluations")
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, ev := range evaluations {
		pair := ev.JudgeID + "/" + ev.TeamID
		if !seen.Add(pair) {
			combined.Add("evaluation %s: duplicate (judge, team) submission", pair)
		}
		if err := v.ValidateEvaluation(ev); err != nil {
			verr := err.(*domain.ValidationError)
			for _, msg := range verr.Violations {
				combined.Add("%s: %s", verr.Entity, msg)
			}
		}
	}
	if combined.HasViolations() {
		return combined
	}
	return nil
}

// closestCriterion returns the criterion ID nearest to key by edit distance,
// or "" when nothing is close enough to be a plausible typo.
func (v *ScoreValidator) closestCriterion(key string) string {
	best, bestDist := "", suggestionMaxDistance+1
	for _, id := range v.criterionIDs {
		if d := levenshtein.ComputeDistance(key, id); d < bestDist {
			best, bestDist = id, d
		}
	}
	if bestDist > suggestionMaxDistance {
		return ""
	}
	return best
}
