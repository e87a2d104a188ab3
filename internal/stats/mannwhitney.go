package stats

import (
	"math"
	"sort"

	"github.com/cowrite/cowrite/internal/errors"
)

// MannWhitneyU runs the two-sided Mann-Whitney U test using the normal
// approximation with tie and continuity corrections, and reports
// Cliff's delta as the effect size. The reported statistic is U for the
// first sample.
func MannWhitneyU(x, y []float64) (TestResult, error) {
	if len(x) == 0 || len(y) == 0 {
		return TestResult{}, errors.New(errors.ErrCategoryStats, errors.CodeTooFewSamples,
			"stats: mann-whitney requires non-empty samples")
	}
	nx, ny := float64(len(x)), float64(len(y))

	ranks, tieTerm := midRanks(x, y)
	r1 := 0.0
	for i := range x {
		r1 += ranks[i]
	}
	u1 := r1 - nx*(nx+1)/2

	mu := nx * ny / 2
	n := nx + ny
	sigma2 := nx * ny / 12 * (n + 1 - tieTerm/(n*(n-1)))
	if sigma2 <= 0 {
		return TestResult{}, errors.New(errors.ErrCategoryStats, errors.CodeTooFewSamples,
			"stats: mann-whitney undefined for all-tied samples")
	}
	// Continuity correction toward the mean.
	num := u1 - mu
	if num > 0 {
		num -= 0.5
	} else if num < 0 {
		num += 0.5
	}
	z := num / math.Sqrt(sigma2)
	p := 2 * (1 - normalCDF(math.Abs(z)))
	if p > 1 {
		p = 1
	}
	delta := CliffsDelta(x, y)

	return TestResult{
		Stat:        u1,
		P:           p,
		EffectSize:  delta,
		Magnitude:   CliffsMagnitude(delta),
		Significant: p < alpha,
	}, nil
}

// CliffsDelta is the dominance statistic 2U/(n1 n2) - 1, positive when
// x tends to exceed y.
func CliffsDelta(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	gt, lt := 0, 0
	for _, a := range x {
		for _, b := range y {
			switch {
			case a > b:
				gt++
			case a < b:
				lt++
			}
		}
	}
	return float64(gt-lt) / float64(len(x)*len(y))
}

// midRanks assigns mid-ranks to the pooled sample, x first. The second
// return value is the tie correction term sum(t^3 - t).
func midRanks(x, y []float64) ([]float64, float64) {
	pooled := make([]float64, 0, len(x)+len(y))
	pooled = append(pooled, x...)
	pooled = append(pooled, y...)

	order := make([]int, len(pooled))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return pooled[order[a]] < pooled[order[b]] })

	ranks := make([]float64, len(pooled))
	tieTerm := 0.0
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && pooled[order[j]] == pooled[order[i]] {
			j++
		}
		// Tied values share the average of the ranks they span.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		i = j
	}
	return ranks, tieTerm
}
