package inference

import (
	"math"

	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

const precisionEpsilon = 1e-6

// PrecisionEstimator learns sensory precision online as the inverse of an
// exponentially smoothed absolute prediction error per channel.
type PrecisionEstimator struct {
	errLeft  float64
	errRight float64
}

func NewPrecisionEstimator() PrecisionEstimator {
	initial := 1 / params.InitialSensoryPrecision
	return PrecisionEstimator{errLeft: initial, errRight: initial}
}

func (p *PrecisionEstimator) Update(errLeft, errRight float64) {
	p.errLeft = smooth(p.errLeft, errLeft, "precision error left")
	p.errRight = smooth(p.errRight, errRight, "precision error right")
}

func smooth(avg, err float64, name string) float64 {
	a := params.PrecisionSmoothing
	return (1-a)*avg + a*math.Abs(numeric.Finite(err, name))
}

func (p PrecisionEstimator) PrecisionLeft() float64 {
	return toPrecision(p.errLeft)
}

func (p PrecisionEstimator) PrecisionRight() float64 {
	return toPrecision(p.errRight)
}

func toPrecision(avgErr float64) float64 {
	return numeric.Clamp(1/(avgErr+precisionEpsilon), params.MinSensoryPrecision, params.MaxSensoryPrecision)
}
