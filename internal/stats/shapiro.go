package stats

import (
	"math"
	"sort"

	"github.com/cowrite/cowrite/internal/errors"
)

// ShapiroWilk computes the Shapiro-Wilk W statistic and its p-value
// (Royston's 1995 approximation, AS R94). Valid for 3 <= n <= 5000.
func ShapiroWilk(data []float64) (w, p float64, err error) {
	n := len(data)
	if n < 3 {
		return 0, 0, errors.New(errors.ErrCategoryStats, errors.CodeTooFewSamples,
			"stats: shapiro-wilk requires at least three samples")
	}
	if n > 5000 {
		return 0, 0, errors.New(errors.ErrCategoryStats, errors.CodeTooFewSamples,
			"stats: shapiro-wilk approximation is valid up to 5000 samples")
	}

	x := make([]float64, n)
	copy(x, data)
	sort.Float64s(x)
	if x[0] == x[n-1] {
		return 0, 0, errors.New(errors.ErrCategoryStats, errors.CodeTooFewSamples,
			"stats: shapiro-wilk undefined for a constant sample")
	}

	// Expected normal order statistics (Blom scores).
	fn := float64(n)
	m := make([]float64, n)
	ssq := 0.0
	for i := 0; i < n; i++ {
		m[i] = normalQuantile((float64(i+1) - 0.375) / (fn + 0.25))
		ssq += m[i] * m[i]
	}

	// Polynomial-corrected weights for the upper tail.
	rsn := 1 / math.Sqrt(fn)
	a := make([]float64, n)
	an := poly(rsn, -2.706056, 4.434685, -2.071190, -0.147981, 0.221157, m[n-1]/math.Sqrt(ssq))
	var phi float64
	tail := 1
	if n > 5 {
		tail = 2
		an1 := poly(rsn, -3.582633, 5.682633, -1.752461, -0.293762, 0.042981, m[n-2]/math.Sqrt(ssq))
		phi = (ssq - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		a[n-1], a[0] = an, -an
		a[n-2], a[1] = an1, -an1
	} else {
		phi = (ssq - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		a[n-1], a[0] = an, -an
	}
	for i := tail; i < n-tail; i++ {
		a[i] = m[i] / math.Sqrt(phi)
	}

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= fn
	num, den := 0.0, 0.0
	for i, v := range x {
		num += a[i] * v
		d := v - mean
		den += d * d
	}
	w = num * num / den
	if w > 1 {
		w = 1
	}

	p = shapiroP(w, n)
	return w, p, nil
}

// poly evaluates c5*r^5 + c4*r^4 + c3*r^3 + c2*r^2 + c1*r + c0.
func poly(r, c5, c4, c3, c2, c1, c0 float64) float64 {
	return ((((c5*r+c4)*r+c3)*r+c2)*r+c1)*r + c0
}

func shapiroP(w float64, n int) float64 {
	fn := float64(n)
	switch {
	case n == 3:
		const pi6 = 6 / math.Pi
		p := pi6 * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		if p < 0 {
			return 0
		}
		if p > 1 {
			return 1
		}
		return p
	case n <= 11:
		g := -2.273 + 0.459*fn
		mu := 0.5440 - 0.39978*fn + 0.025054*fn*fn - 0.0006714*fn*fn*fn
		sigma := math.Exp(1.3822 - 0.77857*fn + 0.062767*fn*fn - 0.0020322*fn*fn*fn)
		z := (-math.Log(g-math.Log(1-w)) - mu) / sigma
		return 1 - normalCDF(z)
	default:
		ln := math.Log(fn)
		mu := -1.5861 - 0.31082*ln - 0.083751*ln*ln + 0.0038915*ln*ln*ln
		sigma := math.Exp(-0.4803 - 0.082676*ln + 0.0030302*ln*ln)
		z := (math.Log(1-w) - mu) / sigma
		return 1 - normalCDF(z)
	}
}
