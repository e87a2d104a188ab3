// Package stats provides the inferential helpers used to compare the
// two study groups: a normality screen, two-sample location tests, and
// standardized effect sizes with conventional magnitude labels.
package stats

import (
	"fmt"

	mstats "github.com/montanaflynn/stats"

	"github.com/cowrite/cowrite/internal/errors"
)

// Summary holds descriptive moments for one sample.
type Summary struct {
	N      int
	Mean   float64
	SD     float64
	Median float64
	Min    float64
	Max    float64
}

// Describe computes descriptive moments for the sample.
func Describe(data []float64) (Summary, error) {
	if len(data) == 0 {
		return Summary{}, errors.New(errors.ErrCategoryStats, errors.CodeTooFewSamples,
			"stats: describe requires at least one sample")
	}
	d := mstats.Float64Data(data)
	mean, err := d.Mean()
	if err != nil {
		return Summary{}, fmt.Errorf("stats: mean: %w", err)
	}
	median, err := d.Median()
	if err != nil {
		return Summary{}, fmt.Errorf("stats: median: %w", err)
	}
	min, err := d.Min()
	if err != nil {
		return Summary{}, fmt.Errorf("stats: min: %w", err)
	}
	max, err := d.Max()
	if err != nil {
		return Summary{}, fmt.Errorf("stats: max: %w", err)
	}
	sd := 0.0
	if len(data) > 1 {
		sd, err = d.StandardDeviationSample()
		if err != nil {
			return Summary{}, fmt.Errorf("stats: stddev: %w", err)
		}
	}
	return Summary{
		N:      len(data),
		Mean:   mean,
		SD:     sd,
		Median: median,
		Min:    min,
		Max:    max,
	}, nil
}
