package inference

import (
	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

// Hidden-state components, in the order used by vectors in this package.
const (
	CompX = iota
	CompY
	CompAngle
	CompNutrient
	numComponents
)

// Vec holds one value per hidden-state component.
type Vec [numComponents]float64

// BeliefMean is the posterior mean over hidden state.
type BeliefMean struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	Nutrient float64 `json:"nutrient"`
}

// BeliefState is a Gaussian posterior q(s) = N(mean, diag(variance)).
type BeliefState struct {
	Mean     BeliefMean `json:"mean"`
	Variance Vec        `json:"variance"`
}

func NewBeliefState(x, y, angle float64) BeliefState {
	b := BeliefState{
		Mean: BeliefMean{
			X:        x,
			Y:        y,
			Angle:    numeric.WrapAngle(angle),
			Nutrient: params.InitialNutrientBelief,
		},
	}
	for i := range b.Variance {
		b.Variance[i] = params.InitialBeliefVariance
	}
	return b
}

// SyncPose overwrites the pose components with proprioceptive truth.
func (b *BeliefState) SyncPose(x, y, angle float64) {
	b.Mean.X = x
	b.Mean.Y = y
	b.Mean.Angle = numeric.WrapAngle(angle)
}

// Update takes one gradient-descent step on free energy.
func (b *BeliefState) Update(gradient Vec, learningRate float64) {
	step := func(g float64, name string) float64 {
		g = numeric.Clamp(numeric.Finite(g, name), -params.MaxGradient, params.MaxGradient)
		return learningRate * g
	}
	b.Mean.X -= step(gradient[CompX], "belief gradient x")
	b.Mean.Y -= step(gradient[CompY], "belief gradient y")
	b.Mean.Angle = numeric.WrapAngle(b.Mean.Angle - step(gradient[CompAngle], "belief gradient angle"))
	b.Mean.Nutrient = numeric.Clamp(b.Mean.Nutrient-step(gradient[CompNutrient], "belief gradient nutrient"), -1, 1)
}

// DecreaseUncertainty shrinks every variance after an observation; factor < 1.
func (b *BeliefState) DecreaseUncertainty(factor float64) {
	b.scaleVariance(factor)
}

// IncreaseUncertainty grows every variance for a forecast; factor > 1.
func (b *BeliefState) IncreaseUncertainty(factor float64) {
	b.scaleVariance(factor)
}

func (b *BeliefState) scaleVariance(factor float64) {
	for i := range b.Variance {
		b.Variance[i] = numeric.Clamp(b.Variance[i]*factor, params.MinBeliefVariance, params.MaxBeliefVariance)
	}
}

func (b BeliefState) TotalUncertainty() float64 {
	total := 0.0
	for _, v := range b.Variance {
		total += v
	}
	return total
}
