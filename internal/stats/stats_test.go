package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowrite/cowrite/internal/errors"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, s.N)
	assert.InDelta(t, 2.5, s.Mean, 1e-9)
	assert.InDelta(t, 2.5, s.Median, 1e-9)
	assert.InDelta(t, 1.2909944487, s.SD, 1e-6)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
}

func TestDescribeEmpty(t *testing.T) {
	_, err := Describe(nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTooFewSamples, errors.GetCode(err))
}

func TestTTestKnownValue(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 3, 4, 5, 6}
	res, err := TTest(x, y)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, res.Stat, 1e-9)
	assert.InDelta(t, 8.0, res.DF, 1e-9)
	assert.InDelta(t, 0.3466, res.P, 0.005)
	assert.False(t, res.Significant)
	assert.InDelta(t, -0.6324555, res.EffectSize, 1e-6)
	assert.Equal(t, "medium", res.Magnitude)
}

func TestTTestIdenticalGroups(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	res, err := TTest(x, x)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Stat, 1e-12)
	assert.InDelta(t, 1.0, res.P, 1e-9)
}

func TestTTestTooFewSamples(t *testing.T) {
	_, err := TTest([]float64{1}, []float64{2, 3})
	require.Error(t, err)
	assert.Equal(t, errors.CodeTooFewSamples, errors.GetCode(err))
}

func TestCohensDZeroVariance(t *testing.T) {
	assert.Zero(t, CohensD([]float64{2, 2}, []float64{2, 2}))
}

func TestMannWhitneyDisjointGroups(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{4, 5, 6}
	res, err := MannWhitneyU(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Stat, 1e-9)
	assert.InDelta(t, -1.0, res.EffectSize, 1e-9)
	assert.Equal(t, "large", res.Magnitude)
	assert.InDelta(t, 0.081, res.P, 0.005)
}

func TestMannWhitneyAllTied(t *testing.T) {
	_, err := MannWhitneyU([]float64{1, 1}, []float64{1, 1})
	require.Error(t, err)
}

func TestMannWhitneyEffectSizeIsCliffsDelta(t *testing.T) {
	// The reported effect size is the dominance statistic, including
	// under ties where 2U/(n1 n2) - 1 only agrees via mid-ranks.
	x := []float64{1, 2, 2, 5}
	y := []float64{2, 3, 4}
	res, err := MannWhitneyU(x, y)
	require.NoError(t, err)
	assert.InDelta(t, CliffsDelta(x, y), res.EffectSize, 1e-9)
}

func TestCliffsDelta(t *testing.T) {
	assert.InDelta(t, 1.0, CliffsDelta([]float64{4, 5}, []float64{1, 2}), 1e-9)
	assert.InDelta(t, -0.5, CliffsDelta([]float64{1, 3}, []float64{2, 4}), 1e-9)
	assert.Zero(t, CliffsDelta(nil, []float64{1}))
}

func TestShapiroWilkNearNormal(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	w, p, err := ShapiroWilk(data)
	require.NoError(t, err)
	assert.InDelta(t, 0.970, w, 0.01)
	assert.Greater(t, p, 0.5)
	assert.True(t, ShapiroNormal(p))
}

func TestShapiroWilkSkewed(t *testing.T) {
	data := []float64{1, 1, 1, 1, 1, 1, 1, 1, 2, 50}
	w, p, err := ShapiroWilk(data)
	require.NoError(t, err)
	assert.Less(t, w, 0.7)
	assert.Less(t, p, 0.01)
	assert.False(t, ShapiroNormal(p))
}

func TestShapiroWilkErrors(t *testing.T) {
	_, _, err := ShapiroWilk([]float64{1, 2})
	require.Error(t, err)
	assert.Equal(t, errors.CodeTooFewSamples, errors.GetCode(err))

	_, _, err = ShapiroWilk([]float64{3, 3, 3, 3})
	require.Error(t, err)
}

func TestNormalQuantileRoundTrip(t *testing.T) {
	assert.InDelta(t, 1.959964, normalQuantile(0.975), 1e-5)
	assert.InDelta(t, 0.975, normalCDF(1.959964), 1e-5)
	assert.InDelta(t, 0.0, normalQuantile(0.5), 1e-9)
}

func TestMagnitudeLabels(t *testing.T) {
	assert.Equal(t, "negligible", CohensMagnitude(0.1))
	assert.Equal(t, "small", CohensMagnitude(-0.3))
	assert.Equal(t, "medium", CohensMagnitude(0.6))
	assert.Equal(t, "large", CohensMagnitude(1.2))

	assert.Equal(t, "negligible", CliffsMagnitude(0.1))
	assert.Equal(t, "small", CliffsMagnitude(0.2))
	assert.Equal(t, "medium", CliffsMagnitude(-0.4))
	assert.Equal(t, "large", CliffsMagnitude(0.9))
}
