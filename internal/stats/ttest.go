package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"

	"github.com/cowrite/cowrite/internal/errors"
)

// TestResult is the outcome of a two-sample location test.
type TestResult struct {
	Stat        float64
	P           float64
	DF          float64
	EffectSize  float64
	Magnitude   string
	Significant bool
}

const alpha = 0.05

// TTest runs the two-sample Student t-test with pooled variance and
// reports Cohen's d as the effect size.
func TTest(x, y []float64) (TestResult, error) {
	if len(x) < 2 || len(y) < 2 {
		return TestResult{}, errors.New(errors.ErrCategoryStats, errors.CodeTooFewSamples,
			"stats: t-test requires at least two samples per group")
	}
	nx, ny := float64(len(x)), float64(len(y))
	mx, my := mean(x), mean(y)
	vx, vy := sampleVariance(x, mx), sampleVariance(y, my)

	df := nx + ny - 2
	pooled := ((nx-1)*vx + (ny-1)*vy) / df
	se := math.Sqrt(pooled * (1/nx + 1/ny))
	if se == 0 {
		return TestResult{}, errors.New(errors.ErrCategoryStats, errors.CodeTooFewSamples,
			"stats: t-test undefined for zero pooled variance")
	}
	t := (mx - my) / se
	p := studentTwoSidedP(t, df)
	d := CohensD(x, y)

	return TestResult{
		Stat:        t,
		P:           p,
		DF:          df,
		EffectSize:  d,
		Magnitude:   CohensMagnitude(d),
		Significant: p < alpha,
	}, nil
}

// CohensD is the pooled-variance standardized mean difference.
func CohensD(x, y []float64) float64 {
	nx, ny := float64(len(x)), float64(len(y))
	mx, my := mean(x), mean(y)
	vx, vy := sampleVariance(x, mx), sampleVariance(y, my)
	dof := nx + ny - 2
	pooled := math.Sqrt(((nx-1)*vx + (ny-1)*vy) / dof)
	if pooled == 0 {
		return 0
	}
	return (mx - my) / pooled
}

// ShapiroNormal reports whether the Shapiro-Wilk p-value fails to
// reject normality at the 0.05 level.
func ShapiroNormal(p float64) bool {
	return p > alpha
}

func mean(data []float64) float64 {
	m, _ := mstats.Mean(mstats.Float64Data(data))
	return m
}

func sampleVariance(data []float64, m float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(data)-1)
}
