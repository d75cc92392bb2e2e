package morphology

import (
	"math"

	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

// Morphology is the adaptable part of the organism: sensor geometry, belief
// learning rate and the homeostatic set-point. Every field stays within its
// physiological range after each adjustment.
type Morphology struct {
	SensorDist          float64 `json:"sensor_dist" yaml:"sensor_dist"`
	SensorAngle         float64 `json:"sensor_angle" yaml:"sensor_angle"`
	BeliefLearningRate  float64 `json:"belief_learning_rate" yaml:"belief_learning_rate"`
	TargetConcentration float64 `json:"target_concentration" yaml:"target_concentration"`
}

func New() Morphology {
	return Morphology{
		SensorDist:          params.SensorDist,
		SensorAngle:         params.SensorAngle,
		BeliefLearningRate:  params.BeliefLearningRate,
		TargetConcentration: params.TargetConcentration,
	}
}

// AdjustSensorDist moves the sensors outward for positive surprise and
// inward for negative surprise.
func (m *Morphology) AdjustSensorDist(surpriseDelta float64) {
	m.SensorDist = numeric.Clamp(
		m.SensorDist+params.SensorDistRate*surpriseDelta,
		params.MinSensorDist,
		params.MaxSensorDist,
	)
}

func (m *Morphology) AdjustSensorAngle(surpriseDelta float64) {
	m.SensorAngle = numeric.Clamp(
		m.SensorAngle+params.SensorAngleRate*surpriseDelta,
		params.MinSensorAngle,
		params.MaxSensorAngle,
	)
}

func (m *Morphology) AdjustBeliefLearningRate(surpriseDelta float64) {
	m.BeliefLearningRate = numeric.Clamp(
		m.BeliefLearningRate+params.LearningRateRate*surpriseDelta,
		params.MinLearningRate,
		params.MaxLearningRate,
	)
}

// AdjustTargetConcentration lowers the set-point under frustration
// (allostatic load). A non-positive delta lets it recover toward the ideal.
func (m *Morphology) AdjustTargetConcentration(frustrationDelta float64) {
	if frustrationDelta > 0 {
		m.TargetConcentration -= params.TargetRate * frustrationDelta
	} else {
		m.TargetConcentration += (params.TargetConcentration - m.TargetConcentration) * params.TargetRecovery
	}
	m.TargetConcentration = numeric.Clamp(m.TargetConcentration, params.MinTarget, params.MaxTarget)
}

// Clamped returns m with every parameter forced into its range.
func (m Morphology) Clamped() Morphology {
	return Morphology{
		SensorDist:          numeric.Clamp(m.SensorDist, params.MinSensorDist, params.MaxSensorDist),
		SensorAngle:         numeric.Clamp(m.SensorAngle, params.MinSensorAngle, params.MaxSensorAngle),
		BeliefLearningRate:  numeric.Clamp(m.BeliefLearningRate, params.MinLearningRate, params.MaxLearningRate),
		TargetConcentration: numeric.Clamp(m.TargetConcentration, params.MinTarget, params.MaxTarget),
	}
}

func (m Morphology) WithinBounds() bool {
	return m == m.Clamped()
}

// Complexity scores how much sensing structure the organism maintains.
func (m Morphology) Complexity() float64 {
	return params.BaseComplexityWeight +
		params.SensorDistComplexityFactor*m.SensorDist +
		params.SensorAngleComplexityFactor*m.SensorAngle +
		params.LearningRateComplexityFactor*m.BeliefLearningRate
}

// ChangeCost is the energy spent growing from prev into m.
func (m Morphology) ChangeCost(prev Morphology) float64 {
	return params.SensorDistEnergyCost*math.Abs(m.SensorDist-prev.SensorDist) +
		params.SensorAngleEnergyCost*math.Abs(m.SensorAngle-prev.SensorAngle) +
		params.LearningRateEnergyCost*math.Abs(m.BeliefLearningRate-prev.BeliefLearningRate)
}
