package stats

import "math"

// Conventional magnitude thresholds for the two effect sizes.
var (
	cohensThresholds = thresholds{small: 0.2, medium: 0.5, large: 0.8}
	cliffsThresholds = thresholds{small: 0.147, medium: 0.33, large: 0.474}
)

type thresholds struct {
	small, medium, large float64
}

// CohensMagnitude labels a Cohen's d value.
func CohensMagnitude(d float64) string {
	return cohensThresholds.label(d)
}

// CliffsMagnitude labels a Cliff's delta value.
func CliffsMagnitude(delta float64) string {
	return cliffsThresholds.label(delta)
}

func (t thresholds) label(v float64) string {
	v = math.Abs(v)
	switch {
	case v < t.small:
		return "negligible"
	case v < t.medium:
		return "small"
	case v < t.large:
		return "medium"
	default:
		return "large"
	}
}
