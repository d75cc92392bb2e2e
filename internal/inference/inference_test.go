package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

func TestMain(m *testing.M) {
	numeric.SetStrict(true)
	m.Run()
}

func newModel() GenerativeModel {
	return NewGenerativeModel(params.DishWidth, params.DishHeight)
}

func TestGenerativeModelEncodesPreference(t *testing.T) {
	m := newModel()
	assert.Equal(t, params.TargetConcentration, m.PriorMean.Nutrient)
	m.SetPreference(0.6)
	assert.Equal(t, 0.6, m.PriorMean.Nutrient)
}

func TestObservationFunctionBoundsAndSymmetry(t *testing.T) {
	m := newModel()
	for _, b := range []BeliefMean{
		{Nutrient: 0.5, Angle: 1.0},
		{Nutrient: 1.0, Angle: math.Pi / 2},
		{Nutrient: -0.5, Angle: 4.0},
	} {
		l, r := m.ObservationFunction(b)
		assert.True(t, l >= 0 && l <= 1, "left %v", l)
		assert.True(t, r >= 0 && r <= 1, "right %v", r)
	}

	l, r := m.ObservationFunction(BeliefMean{Nutrient: 0.5})
	assert.InDelta(t, l, r, 1e-12)
}

func TestObservationJacobian(t *testing.T) {
	m := newModel()
	jac := m.ObservationJacobian(BeliefMean{Nutrient: 0.5, Angle: 0.5})
	assert.Equal(t, [2]float64{1, 1}, jac.DNutrient)
	assert.LessOrEqual(t, jac.DAngle[0]*jac.DAngle[1], 0.0)
}

func TestSensoryPrecisionIsClamped(t *testing.T) {
	m := newModel()
	m.UpdateSensoryPrecision(1000, 0)
	assert.Equal(t, params.MaxSensoryPrecision, m.SensoryPrecision.Left)
	assert.Equal(t, params.MinSensoryPrecision, m.SensoryPrecision.Right)
	assert.InDelta(t, (params.MaxSensoryPrecision+params.MinSensoryPrecision)/2, m.SensoryPrecision.Mean(), 1e-12)
}

func TestVariationalFreeEnergyIsZeroAtPerfectFit(t *testing.T) {
	m := newModel()
	b := NewBeliefState(m.PriorMean.X, m.PriorMean.Y, 0)
	b.Mean.Nutrient = m.PriorMean.Nutrient
	f := VariationalFreeEnergy(Observation{Left: 0.8, Right: 0.8}, b, m)
	assert.InDelta(t, 0, f, 1e-12)

	f = VariationalFreeEnergy(Observation{}, b, m)
	assert.Greater(t, f, 0.0)
}

func TestGradientStepReducesFreeEnergy(t *testing.T) {
	m := newModel()
	b := NewBeliefState(50, 25, 0)
	obs := Observation{Left: 0.3, Right: 0.3}

	before := VariationalFreeEnergy(obs, b, m)
	g := Gradient(obs, b, m)
	require.InDelta(t, 0, g[CompAngle], 1e-12)
	b.Update(g, 0.05)
	after := VariationalFreeEnergy(obs, b, m)

	assert.Less(t, after, before)
	assert.Less(t, b.Mean.Nutrient, params.InitialNutrientBelief)
}

func TestGradientIsClampedAndFinite(t *testing.T) {
	b := NewBeliefState(50, 25, 0)
	var g Vec
	g[CompNutrient] = 1e9
	b.Update(g, 1)
	assert.GreaterOrEqual(t, b.Mean.Nutrient, -1.0)
	assert.True(t, numeric.IsFinite(b.Mean.Nutrient))
}

func TestUncertaintyShrinksAndGrowsWithinBounds(t *testing.T) {
	b := NewBeliefState(0, 0, 0)
	total := b.TotalUncertainty()

	b.DecreaseUncertainty(params.UncertaintyReduction)
	assert.Less(t, b.TotalUncertainty(), total)
	for i := 0; i < 1000; i++ {
		b.DecreaseUncertainty(params.UncertaintyReduction)
	}
	for _, v := range b.Variance {
		assert.Equal(t, params.MinBeliefVariance, v)
	}

	shrunk := b.TotalUncertainty()
	b.IncreaseUncertainty(params.UncertaintyGrowth)
	assert.Greater(t, b.TotalUncertainty(), shrunk)
	for i := 0; i < 1000; i++ {
		b.IncreaseUncertainty(params.UncertaintyGrowth)
	}
	for _, v := range b.Variance {
		assert.Equal(t, params.MaxBeliefVariance, v)
	}
}

func TestSyncPoseWrapsHeading(t *testing.T) {
	b := NewBeliefState(0, 0, 0)
	b.SyncPose(10, 20, -10*math.Pi+0.25)
	assert.Equal(t, 10.0, b.Mean.X)
	assert.Equal(t, 20.0, b.Mean.Y)
	assert.InDelta(t, 0.25, b.Mean.Angle, 1e-9)
}

func TestPrecisionEstimatorLearnsFromErrors(t *testing.T) {
	p := NewPrecisionEstimator()
	assert.InDelta(t, params.InitialSensoryPrecision, p.PrecisionLeft(), 1e-3)

	for i := 0; i < 200; i++ {
		p.Update(0.001, 0.9)
	}
	assert.Greater(t, p.PrecisionLeft(), params.InitialSensoryPrecision)
	assert.Less(t, p.PrecisionRight(), params.InitialSensoryPrecision)
	assert.LessOrEqual(t, p.PrecisionLeft(), params.MaxSensoryPrecision)
	assert.GreaterOrEqual(t, p.PrecisionRight(), params.MinSensoryPrecision)

	for i := 0; i < 500; i++ {
		p.Update(0, 50)
	}
	assert.Equal(t, params.MaxSensoryPrecision, p.PrecisionLeft())
	assert.Equal(t, params.MinSensoryPrecision, p.PrecisionRight())
}

func TestExpectedFreeEnergyTerms(t *testing.T) {
	m := newModel()
	atTarget := NewBeliefState(50, 25, 0)
	atTarget.Mean.Nutrient = m.PriorMean.Nutrient
	efe := ExpectedFreeEnergy(atTarget, m)
	assert.InDelta(t, 0, efe.Pragmatic, 1e-12)
	assert.Greater(t, efe.Epistemic, 0.0)
	assert.InDelta(t, efe.Pragmatic-efe.Epistemic, efe.Total, 1e-12)

	starving := atTarget
	starving.Mean.Nutrient = 0
	assert.Greater(t, ExpectedFreeEnergy(starving, m).Total, efe.Total)

	uncertain := atTarget
	uncertain.IncreaseUncertainty(5)
	assert.Greater(t, ExpectedFreeEnergy(uncertain, m).Epistemic, efe.Epistemic)
}

func TestObservationMean(t *testing.T) {
	assert.Equal(t, 0.5, Observation{Left: 0.6, Right: 0.4}.Mean())
}
