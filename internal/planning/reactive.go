package planning

import (
	"math"

	"protozoa/internal/inference"
	"protozoa/internal/memory"
	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

// PriorMap is the read side of the spatial grid used for forecasting.
type PriorMap interface {
	Cell(x, y float64) memory.CellPrior
}

// World is the rectangle predicted positions are clamped to.
type World struct {
	Width  float64
	Height float64
}

// PredictBeliefs forecasts the posterior one step after taking action a at
// the given speed. The nutrient estimate is blended with the remembered cell
// at the predicted position. Every variance grows by UncertaintyGrowth; the
// remembered cell never makes a forecast more certain than the belief.
func PredictBeliefs(b inference.BeliefState, a Action, speed float64, priors PriorMap, world World) inference.BeliefState {
	predicted := b
	predicted.Mean.Angle = numeric.WrapAngle(b.Mean.Angle + a.AngleDelta())

	step := math.Max(speed, params.MinPredictedSpeed)
	predicted.Mean.X = numeric.Clamp(b.Mean.X+step*math.Cos(predicted.Mean.Angle), 0, world.Width)
	predicted.Mean.Y = numeric.Clamp(b.Mean.Y+step*math.Sin(predicted.Mean.Angle), 0, world.Height)

	cell := priors.Cell(predicted.Mean.X, predicted.Mean.Y)
	predicted.Mean.Nutrient = 0.5*b.Mean.Nutrient + 0.5*numeric.Clamp(cell.Mean, 0, 1)

	predicted.IncreaseUncertainty(params.UncertaintyGrowth)
	return predicted
}

// SelectReactive returns the action whose one-step forecast has the lowest
// expected free energy, with the score of every action in Actions() order.
func SelectReactive(
	b inference.BeliefState,
	model inference.GenerativeModel,
	speed float64,
	priors PriorMap,
	world World,
) (Action, []inference.EFE) {
	scores := make([]inference.EFE, len(allActions))
	best := Straight
	bestTotal := math.Inf(1)
	for i, a := range allActions {
		scores[i] = inference.ExpectedFreeEnergy(PredictBeliefs(b, a, speed, priors, world), model)
		if scores[i].Total < bestTotal {
			bestTotal = scores[i].Total
			best = a
		}
	}
	return best, scores
}
