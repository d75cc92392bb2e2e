package inference

import (
	"math"

	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

// Observation is one pair of chemoreceptor readings.
type Observation struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

func (o Observation) Mean() float64 {
	return (o.Left + o.Right) / 2
}

// EFE is an expected free energy split into its two terms. Lower Total is
// better: Total = Pragmatic - Epistemic.
type EFE struct {
	Pragmatic float64 `json:"pragmatic"`
	Epistemic float64 `json:"epistemic"`
	Total     float64 `json:"total"`
}

// PredictionErrors returns observed minus predicted per channel.
func PredictionErrors(obs Observation, b BeliefState, m GenerativeModel) (float64, float64) {
	predLeft, predRight := m.ObservationFunction(b.Mean)
	return obs.Left - predLeft, obs.Right - predRight
}

// VariationalFreeEnergy is accuracy (precision-weighted prediction error)
// plus complexity (precision-weighted divergence from the prior).
func VariationalFreeEnergy(obs Observation, b BeliefState, m GenerativeModel) float64 {
	errLeft, errRight := PredictionErrors(obs, b, m)
	accuracy := 0.5 * (m.SensoryPrecision.Left*errLeft*errLeft + m.SensoryPrecision.Right*errRight*errRight)

	dev := priorDeviation(b.Mean, m.PriorMean)
	complexity := 0.0
	for i, d := range dev {
		complexity += 0.5 * m.PriorPrecision[i] * d * d
	}
	return numeric.Finite(accuracy+complexity, "variational free energy")
}

// Gradient returns ∂F/∂μ for every belief component.
func Gradient(obs Observation, b BeliefState, m GenerativeModel) Vec {
	errLeft, errRight := PredictionErrors(obs, b, m)
	jac := m.ObservationJacobian(b.Mean)
	wl := m.SensoryPrecision.Left * errLeft
	wr := m.SensoryPrecision.Right * errRight

	dev := priorDeviation(b.Mean, m.PriorMean)
	var g Vec
	for i, d := range dev {
		g[i] = m.PriorPrecision[i] * d
	}
	g[CompNutrient] -= wl*jac.DNutrient[0] + wr*jac.DNutrient[1]
	g[CompAngle] -= wl*jac.DAngle[0] + wr*jac.DAngle[1]
	return g
}

// ExpectedFreeEnergy scores a predicted belief state: the pragmatic term is
// the precision-weighted distance of the predicted nutrient from the
// preference, the epistemic term is the information an observation with the
// current sensory precision would bring given the predicted uncertainty.
func ExpectedFreeEnergy(predicted BeliefState, m GenerativeModel) EFE {
	d := predicted.Mean.Nutrient - m.PriorMean.Nutrient
	pragmatic := 0.5 * m.PriorPrecision[CompNutrient] * d * d

	sensory := m.SensoryPrecision.Left + m.SensoryPrecision.Right
	epistemic := params.EpistemicWeight * 0.5 * math.Log1p(predicted.Variance[CompNutrient]*sensory)

	pragmatic = numeric.Finite(pragmatic, "efe pragmatic")
	epistemic = numeric.Finite(epistemic, "efe epistemic")
	return EFE{
		Pragmatic: pragmatic,
		Epistemic: epistemic,
		Total:     pragmatic - epistemic,
	}
}

func priorDeviation(mean, prior BeliefMean) Vec {
	var d Vec
	d[CompX] = mean.X - prior.X
	d[CompY] = mean.Y - prior.Y
	d[CompAngle] = numeric.AngleDiff(mean.Angle, prior.Angle)
	d[CompNutrient] = mean.Nutrient - prior.Nutrient
	return d
}
