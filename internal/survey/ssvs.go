package survey

import "github.com/cowrite/cowrite/pkg/types"

// Published regression weights mapping the ten Schwartz value ratings
// onto the two higher-order dimensions.
var (
	conservationIntercept = 0.92
	conservationWeights   = map[string]float64{
		"power":          0.15,
		"achievement":    0.03,
		"hedonism":       -0.17,
		"stimulation":    -0.25,
		"self-direction": -0.31,
		"universalism":   -0.26,
		"benevolence":    0.04,
		"tradition":      0.30,
		"conformity":     0.30,
		"security":       0.20,
	}

	transcendenceIntercept = -0.56
	transcendenceWeights   = map[string]float64{
		"power":          -0.30,
		"achievement":    -0.33,
		"hedonism":       -0.16,
		"stimulation":    -0.14,
		"self-direction": 0.04,
		"universalism":   0.22,
		"benevolence":    0.24,
		"tradition":      0.12,
		"conformity":     0.03,
		"security":       0.03,
	}
)

// Conservation returns the conservation score for the given trait
// ratings. Missing traits contribute zero.
func Conservation(scores map[string]float64) float64 {
	return weightedSum(conservationIntercept, conservationWeights, scores)
}

// Transcendence returns the self-transcendence score for the given
// trait ratings. Missing traits contribute zero.
func Transcendence(scores map[string]float64) float64 {
	return weightedSum(transcendenceIntercept, transcendenceWeights, scores)
}

// ComputeScores fills in Conservation and Transcendence for every user
// in place.
func ComputeScores(users []*types.User) {
	for _, u := range users {
		u.Conservation = Conservation(u.SSVSScores)
		u.Transcendence = Transcendence(u.SSVSScores)
	}
}

func weightedSum(intercept float64, weights, scores map[string]float64) float64 {
	sum := intercept
	for _, trait := range types.SSVSTraits {
		sum += weights[trait] * scores[trait]
	}
	return sum
}
