package stages

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/fairscore/rankcore/internal/domain"
)

// SelectionConfig configures which teams advance to the next round.
// Exactly one sizing parameter applies per mode: TopN for per-judge
// selection, TopK for global selection.
type SelectionConfig struct {
	// Mode selects the strategy: "per_judge_top_n" or "global_top_k".
	Mode domain.SelectionMode `yaml:"mode" json:"mode" validate:"required,oneof=per_judge_top_n global_top_k"`

	// TopN is how many teams each judge advances in per-judge mode.
	TopN int `yaml:"top_n,omitempty" json:"top_n,omitempty" validate:"required_if=Mode per_judge_top_n,omitempty,oneof=2 5 10"`

	// TopK is how many teams advance in global mode.
	TopK int `yaml:"top_k,omitempty" json:"top_k,omitempty" validate:"required_if=Mode global_top_k,omitempty,min=1"`

	// JudgeTypeFilter optionally restricts per-judge selection to judges
	// carrying one of these type tags. Empty means every assigned judge
	// participates.
	JudgeTypeFilter []string `yaml:"judge_type_filter,omitempty" json:"judge_type_filter,omitempty" validate:"omitempty,dive,min=1"`
}

// Selector computes the set of teams advancing to the next round, either as
// the union of each judge's personal top N (by that judge's own raw totals)
// or as the global top K of the final ranking.
type Selector struct {
	config SelectionConfig
}

// NewSelector creates a selector with a validated configuration.
func NewSelector(config SelectionConfig) (*Selector, error) {
	if !config.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSelectionMode, config.Mode)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
	}
	return &Selector{config: config}, nil
}

// Select computes the advancing team set.
//
// A round with exactly one assigned judge short-circuits to a stop result:
// per-judge and global selection coincide with one judge, and a next round
// of identical composition is meaningless. The caller treats Stop as a
// successful no-op, not an error.
func (s *Selector) Select(
	judges []domain.JudgeAssignment,
	normalized []domain.NormalizedEvaluation,
	ranked []domain.RankedResult,
) (*domain.SelectionResult, error) {
	if len(judges) == 0 {
		return nil, domain.ErrNoJudges
	}
	if len(judges) == 1 {
		return &domain.SelectionResult{
			Mode:            s.config.Mode,
			Stop:            true,
			SelectedTeamIDs: mapset.NewThreadUnsafeSet[string](),
		}, nil
	}

	switch s.config.Mode {
	case domain.PerJudgeTopN:
		return s.selectPerJudge(judges, normalized), nil
	case domain.GlobalTopK:
		return s.selectGlobal(ranked), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSelectionMode, s.config.Mode)
	}
}

// selectPerJudge takes each participating judge's top N teams by their own
// raw sheet totals and unions the sets; duplicates collapse. The per-judge
// breakdown is retained for transparency.
func (s *Selector) selectPerJudge(
	judges []domain.JudgeAssignment,
	normalized []domain.NormalizedEvaluation,
) *domain.SelectionResult {
	typeFilter := mapset.NewThreadUnsafeSet(s.config.JudgeTypeFilter...)

	byJudge := make(map[string][]domain.NormalizedEvaluation)
	for _, row := range normalized {
		byJudge[row.JudgeID] = append(byJudge[row.JudgeID], row)
	}

	ordered := make([]domain.JudgeAssignment, len(judges))
	copy(ordered, judges)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].JudgeID < ordered[j].JudgeID })

	selected := mapset.NewThreadUnsafeSet[string]()
	var breakdown []domain.JudgeSelection
	for _, judge := range ordered {
		if typeFilter.Cardinality() > 0 && !typeFilter.Contains(judge.JudgeType) {
			continue
		}
		rows := byJudge[judge.JudgeID]
		if len(rows) == 0 {
			continue
		}

		// The judge's own raw totals decide their personal top N;
		// team ID breaks exact raw-total ties deterministically.
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].RawTotal != rows[j].RawTotal {
				return rows[i].RawTotal > rows[j].RawTotal
			}
			return rows[i].TeamID < rows[j].TeamID
		})

		n := s.config.TopN
		if n > len(rows) {
			n = len(rows)
		}
		teamIDs := make([]string, 0, n)
		for _, row := range rows[:n] {
			teamIDs = append(teamIDs, row.TeamID)
			selected.Add(row.TeamID)
		}
		breakdown = append(breakdown, domain.JudgeSelection{
			JudgeID: judge.JudgeID,
			TeamIDs: teamIDs,
		})
	}

	return &domain.SelectionResult{
		Mode:            domain.PerJudgeTopN,
		SelectedTeamIDs: selected,
		PerJudge:        breakdown,
	}
}

// selectGlobal takes the first K positions of the final ranking.
func (s *Selector) selectGlobal(ranked []domain.RankedResult) *domain.SelectionResult {
	k := s.config.TopK
	if k > len(ranked) {
		k = len(ranked)
	}

	selected := mapset.NewThreadUnsafeSet[string]()
	topK := make([]string, 0, k)
	for _, result := range ranked[:k] {
		topK = append(topK, result.TeamID)
		selected.Add(result.TeamID)
	}

	return &domain.SelectionResult{
		Mode:            domain.GlobalTopK,
		SelectedTeamIDs: selected,
		Ranked:          topK,
	}
}
