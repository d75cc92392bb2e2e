package inference

import (
	"math"

	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

// GenerativeModel is p(o, s) = p(o|s) p(s). The nutrient prior mean is the
// organism's preference.
type GenerativeModel struct {
	PriorMean        BeliefMean       `json:"prior_mean"`
	PriorPrecision   Vec              `json:"prior_precision"`
	SensoryPrecision SensoryPrecision `json:"sensory_precision"`
	SensorAngle      float64          `json:"sensor_angle"`
}

type SensoryPrecision struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// ObservationJacobian holds ∂g/∂s for the two channels.
type ObservationJacobian struct {
	DNutrient [2]float64
	DAngle    [2]float64
}

func NewGenerativeModel(width, height float64) GenerativeModel {
	var prec Vec
	prec[CompX] = params.PositionPriorPrecision
	prec[CompY] = params.PositionPriorPrecision
	prec[CompAngle] = params.HeadingPriorPrecision
	prec[CompNutrient] = params.NutrientPriorPrecision
	return GenerativeModel{
		PriorMean: BeliefMean{
			X:        width / 2,
			Y:        height / 2,
			Nutrient: params.TargetConcentration,
		},
		PriorPrecision: prec,
		SensoryPrecision: SensoryPrecision{
			Left:  params.InitialSensoryPrecision,
			Right: params.InitialSensoryPrecision,
		},
		SensorAngle: params.SensorAngle,
	}
}

func (m GenerativeModel) gain() float64 {
	return math.Sin(m.SensorAngle) * params.ObservationGain
}

// ObservationFunction predicts (left, right) readings from beliefs.
func (m GenerativeModel) ObservationFunction(b BeliefMean) (float64, float64) {
	diff := m.gain() * math.Sin(b.Angle)
	return numeric.Clamp(b.Nutrient+diff, 0, 1), numeric.Clamp(b.Nutrient-diff, 0, 1)
}

func (m GenerativeModel) ObservationJacobian(b BeliefMean) ObservationJacobian {
	dAngle := m.gain() * math.Cos(b.Angle)
	return ObservationJacobian{
		DNutrient: [2]float64{1, 1},
		DAngle:    [2]float64{dAngle, -dAngle},
	}
}

// UpdateSensoryPrecision overwrites the channel precisions, clamped to the
// configured bounds.
func (m *GenerativeModel) UpdateSensoryPrecision(left, right float64) {
	m.SensoryPrecision.Left = clampPrecision(left)
	m.SensoryPrecision.Right = clampPrecision(right)
}

func (m *GenerativeModel) UpdateSensorAngle(angle float64) {
	m.SensorAngle = angle
}

// SetPreference moves the homeostatic set-point encoded in the nutrient prior.
func (m *GenerativeModel) SetPreference(target float64) {
	m.PriorMean.Nutrient = target
}

// Mean is the precision of an average sensor.
func (p SensoryPrecision) Mean() float64 {
	return (p.Left + p.Right) / 2
}

func clampPrecision(p float64) float64 {
	if !numeric.IsFinite(p) {
		p = params.InitialSensoryPrecision
	}
	return numeric.Clamp(p, params.MinSensoryPrecision, params.MaxSensoryPrecision)
}
