package domain

// NormalizationMethod selects how a judge's personal center and spread are
// derived from their submitted scores.
type NormalizationMethod string

// Supported normalization methods.
const (
	// ZScore uses mean and population standard deviation. Sensitive to
	// outlier scores but familiar and cheap.
	ZScore NormalizationMethod = "z_score"

	// RobustMAD uses median and scaled median absolute deviation
	// (MAD * 1.4826, consistent with stddev under normality). Resistant
	// to a judge's occasional extreme score.
	RobustMAD NormalizationMethod = "robust_mad"
)

// String returns the string representation of the method.
func (m NormalizationMethod) String() string { return string(m) }

// Valid reports whether the method is one of the supported values.
func (m NormalizationMethod) Valid() bool {
	return m == ZScore || m == RobustMAD
}

// SelectionMode selects how the advancing team set is computed.
type SelectionMode string

// Supported selection modes.
const (
	// PerJudgeTopN advances the union of every assigned judge's personal
	// top N teams by raw totals.
	PerJudgeTopN SelectionMode = "per_judge_top_n"

	// GlobalTopK advances the first K teams of the final ranking.
	GlobalTopK SelectionMode = "global_top_k"
)

// String returns the string representation of the mode.
func (m SelectionMode) String() string { return string(m) }

// Valid reports whether the mode is one of the supported values.
func (m SelectionMode) Valid() bool {
	return m == PerJudgeTopN || m == GlobalTopK
}
