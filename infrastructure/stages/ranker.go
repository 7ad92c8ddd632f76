package stages

import (
	"math"
	"sort"

	"github.com/fairscore/rankcore/internal/domain"
)

// comparator is one level of the tie-break cascade: a named accessor whose
// value is compared between two teams. Higher wins. The cascade is an
// ordered list evaluated until one level is decisive, which keeps each level
// testable in isolation and makes adding levels trivial.
type comparator struct {
	name string
	read func(r domain.AggregatedTeamResult) float64
}

// Ranker orders teams by aggregated score, assigns percentile and rank, and
// resolves ties deterministically. It is a stateless sort-and-classify: no
// randomness, no clock, no dependence on input order.
type Ranker struct {
	cascade []comparator
}

// NewRanker builds the tie-break cascade for a round's criteria:
//
//  1. summed per-criterion weighted z, criteria by weight descending
//  2. mean of raw sheet totals
//  3. median of raw sheet totals
//  4. judge count (more judges scoring a team implies higher confidence)
//
// A pair the full cascade cannot separate is a genuine tie, flagged for
// manual resolution.
func NewRanker(criteria []domain.Criterion) (*Ranker, error) {
	if len(criteria) == 0 {
		return nil, ErrEmptyCriteria
	}

	cascade := make([]comparator, 0, len(criteria)+3)
	for _, criterion := range orderedCriteria(criteria) {
		id := criterion.ID
		cascade = append(cascade, comparator{
			name: "per_criterion:" + id,
			read: func(r domain.AggregatedTeamResult) float64 { return r.PerCriterion[id] },
		})
	}
	cascade = append(cascade,
		comparator{
			name: "mean_raw_total",
			read: func(r domain.AggregatedTeamResult) float64 { return r.MeanRawTotal },
		},
		comparator{
			name: "median_raw_total",
			read: func(r domain.AggregatedTeamResult) float64 { return r.MedianRawTotal },
		},
		comparator{
			name: "judge_count",
			read: func(r domain.AggregatedTeamResult) float64 { return float64(r.JudgeCount) },
		},
	)
	return &Ranker{cascade: cascade}, nil
}

// Rank produces one RankedResult per team. Ties within Epsilon on the
// aggregated score are ordered by the cascade; fully tied groups share a
// rank and the next rank jumps by the group size (standard competition
// ranking). Every cascade application is recorded in the tie-breaker trace
// for audit.
func (rk *Ranker) Rank(aggregated []domain.AggregatedTeamResult) ([]domain.RankedResult, error) {
	if len(aggregated) == 0 {
		return nil, ErrNothingToRank
	}

	teams := make([]domain.AggregatedTeamResult, len(aggregated))
	copy(teams, aggregated)

	// First pass: strict score order, with team ID making the order total
	// so recomputation is stable regardless of input order.
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].AggregatedScore != teams[j].AggregatedScore {
			return teams[i].AggregatedScore > teams[j].AggregatedScore
		}
		return teams[i].TeamID < teams[j].TeamID
	})

	// Second pass: within each run of epsilon-adjacent scores, the cascade
	// decides the order.
	for start := 0; start < len(teams); {
		end := start + 1
		for end < len(teams) &&
			math.Abs(teams[end-1].AggregatedScore-teams[end].AggregatedScore) <= Epsilon {
			end++
		}
		if end-start > 1 {
			chain := teams[start:end]
			sort.SliceStable(chain, func(i, j int) bool {
				return rk.outranks(chain[i], chain[j])
			})
		}
		start = end
	}

	n := len(teams)
	ranked := make([]domain.RankedResult, n)
	groupStart := 0
	for i, team := range teams {
		result := domain.RankedResult{
			TeamID:          team.TeamID,
			AggregatedScore: team.AggregatedScore,
			Percentile:      percentile(i, n),
		}

		rank := i + 1
		if i > 0 {
			prev := teams[i-1]
			if math.Abs(prev.AggregatedScore-team.AggregatedScore) <= Epsilon {
				trace, decided := rk.trace(team, prev)
				result.Trace = trace
				if !decided {
					// Genuine tie: inherit the group rank and flag
					// both members.
					rank = ranked[groupStart].Rank
					result.IsTied = true
					result.RequiresManualResolution = true
					ranked[groupStart].IsTied = true
					ranked[groupStart].RequiresManualResolution = true
				} else {
					groupStart = i
				}
			} else {
				groupStart = i
			}
		}
		result.Rank = rank
		ranked[i] = result
	}
	return ranked, nil
}

// outranks reports whether a places above b: aggregated score first, then
// the cascade, each level decisive only beyond Epsilon. Team ID is the final
// fallback so the produced order is total; it never influences rank values,
// only storage order within a fully tied group.
func (rk *Ranker) outranks(a, b domain.AggregatedTeamResult) bool {
	if d := a.AggregatedScore - b.AggregatedScore; d > Epsilon {
		return true
	} else if d < -Epsilon {
		return false
	}
	for _, cmp := range rk.cascade {
		if d := cmp.read(a) - cmp.read(b); d > Epsilon {
			return true
		} else if d < -Epsilon {
			return false
		}
	}
	return a.TeamID < b.TeamID
}

// trace runs the full cascade of team against the adjacent higher-ranked
// team and records every comparator's inputs. It returns the audit trace and
// whether any level was decisive. All levels are recorded even after a
// decisive one, so exports show the complete evidence.
func (rk *Ranker) trace(team, above domain.AggregatedTeamResult) (*domain.TieBreakerTrace, bool) {
	t := &domain.TieBreakerTrace{
		ComparedWith: above.TeamID,
		Comparisons: []domain.TraceComparison{{
			Comparator: "aggregated_score",
			Self:       team.AggregatedScore,
			Other:      above.AggregatedScore,
			Delta:      team.AggregatedScore - above.AggregatedScore,
		}},
	}

	decided := false
	for _, cmp := range rk.cascade {
		self, other := cmp.read(team), cmp.read(above)
		entry := domain.TraceComparison{
			Comparator: cmp.name,
			Self:       self,
			Other:      other,
			Delta:      self - other,
		}
		if !decided && math.Abs(entry.Delta) > Epsilon {
			entry.Decisive = true
			decided = true
		}
		t.Comparisons = append(t.Comparisons, entry)
	}
	return t, decided
}

// percentile rescales a 0-indexed position to [0, 100], 100 being best.
func percentile(i, n int) float64 {
	if n == 1 {
		return 100
	}
	return 100 * float64(n-1-i) / float64(n-1)
}
