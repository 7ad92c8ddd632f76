// Package stages implements the five pure transformations of the ranking
// pipeline: raw-score validation, per-judge statistics, normalization,
// aggregation, and rank conversion with deterministic tie-breaking, plus the
// selection engine that decides which teams advance.
//
// Every stage is a synchronous, stateless function of its inputs. Nothing in
// this package performs I/O, reads the clock, or consults global state, so
// identical inputs always produce bit-identical outputs.
package stages

import (
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/fairscore/rankcore/internal/domain"
)

// Epsilon is the tolerance used for tie detection and every tie-break
// comparator. Two values within Epsilon of each other are treated as equal.
const Epsilon = 1e-4

// madConsistency scales the median absolute deviation so it estimates the
// standard deviation under a normal distribution.
const madConsistency = 1.4826

// spreadFloor guards the degenerate-spread check against floating-point
// residue from the statistics routines; anything below it is treated as an
// exact zero spread.
const spreadFloor = 1e-12

// Common errors returned by pipeline stages.
var (
	// ErrEmptyCriteria is returned when a stage is constructed without criteria.
	ErrEmptyCriteria = errors.New("criteria list is empty")

	// ErrDuplicateCriterion is returned when two criteria share an ID.
	ErrDuplicateCriterion = errors.New("duplicate criterion id")

	// ErrNothingToNormalize is returned when no evaluations reach the normalizer.
	ErrNothingToNormalize = errors.New("no evaluations to normalize")

	// ErrNothingToAggregate is returned when no normalized rows reach the aggregator.
	ErrNothingToAggregate = errors.New("no normalized evaluations to aggregate")

	// ErrNothingToRank is returned when no aggregates reach the ranker.
	ErrNothingToRank = errors.New("no aggregated results to rank")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// orderedCriteria returns the criteria sorted by weight descending, then ID
// ascending. This is the canonical iteration order for every stage that sums
// or compares per-criterion values: floating-point accumulation order must
// never depend on how the caller happened to build the slice.
func orderedCriteria(criteria []domain.Criterion) []domain.Criterion {
	ordered := make([]domain.Criterion, len(criteria))
	copy(ordered, criteria)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Weight != ordered[j].Weight {
			return ordered[i].Weight > ordered[j].Weight
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
