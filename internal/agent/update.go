package agent

import (
	"math"

	"protozoa/internal/inference"
	"protozoa/internal/memory"
	"protozoa/internal/numeric"
	"protozoa/internal/params"
	"protozoa/internal/planning"
	"protozoa/internal/scape"
)

// UpdateState runs one full tick on the readings taken by the last Sense:
// belief update, precision learning, action selection, heading and speed,
// memory writes, metabolism, movement, then morphological regulation.
func (p *Protozoa) UpdateState(field scape.Field) {
	obs := inference.Observation{Left: p.left, Right: p.right}
	mean := numeric.Finite(obs.Mean(), "mean sense")

	// Inference.
	p.beliefs.SyncPose(p.x, p.y, p.heading)
	grad := inference.Gradient(obs, p.beliefs, p.model)
	p.beliefs.Update(grad, p.morph.BeliefLearningRate)
	p.beliefs.DecreaseUncertainty(params.UncertaintyReduction)
	p.vfe = inference.VariationalFreeEnergy(obs, p.beliefs, p.model)

	// Precision learning.
	errL, errR := inference.PredictionErrors(obs, p.beliefs, p.model)
	p.precision.Update(errL, errR)
	p.model.UpdateSensoryPrecision(p.precision.PrecisionLeft(), p.precision.PrecisionRight())

	// Action selection.
	p.tempGradient = mean - p.lastMeanSense
	p.lastMeanSense = mean

	p.reactive, _ = planning.SelectReactive(p.beliefs, p.model, p.speed, p.grid, p.world)
	if p.replanDue() {
		state := planning.State{X: p.x, Y: p.y, Heading: p.heading, Speed: p.speed, Energy: p.energy}
		p.plannedAction = p.planner.Plan(state, p.grid, p.morph.TargetConcentration, p.rng)
		p.lastPlanTick = p.tick
	}

	p.heading = numeric.WrapAngle(p.heading + p.headingDelta(mean))
	p.speed = params.MaxSpeed * numeric.Clamp(p.vfe/params.MaxVFE, params.MinSpeedFraction, 1)

	p.remember(mean)
	p.metabolize(mean)
	p.move(field)

	// Regulation signals.
	p.surprise += p.vfe
	predicted := planning.PredictBeliefs(p.beliefs, p.plannedAction, p.speed, p.grid, p.world)
	if efe := inference.ExpectedFreeEnergy(predicted, p.model); efe.Total > 0 {
		p.frustration += efe.Total
	}
	p.regulate()
}

func (p *Protozoa) replanDue() bool {
	return p.tick == 0 ||
		p.tick-p.lastPlanTick >= params.MCTSReplanInterval ||
		p.energy < params.MCTSUrgentEnergy
}

func (p *Protozoa) headingDelta(mean float64) float64 {
	efe := p.reactive.AngleDelta()
	plan := p.plannedAction.AngleDelta()

	spatialPrecision := p.grid.Cell(p.x, p.y).Precision()
	homeostaticErr := mean - p.morph.TargetConcentration
	reactive := -params.ReactiveGain * homeostaticErr * spatialPrecision * (p.left - p.right)

	explore := p.uniform(-1, 1) * params.ExplorationScale / spatialPrecision
	noise := p.uniform(-params.NoiseScale, params.NoiseScale) * numeric.Clamp(p.vfe/params.MaxVFE, 0, 1)

	panicTurn := 0.0
	if p.tempGradient < params.PanicThreshold {
		panicTurn = p.uniform(-params.PanicTurnRange, params.PanicTurnRange)
	}

	return numeric.Finite(
		params.EFEWeight*efe+
			params.PlanningWeight*plan+
			params.ReactiveWeight*reactive+
			explore+
			noise+
			panicTurn+
			p.goalAttraction(),
		"heading delta",
	)
}

// goalAttraction steers toward the best remembered landmark away from the
// current spot, only while energy is low.
func (p *Protozoa) goalAttraction() float64 {
	if p.energy >= params.MCTSUrgentEnergy {
		return 0
	}
	lm, ok := p.episodic.BestDistant(p.x, p.y, params.LandmarkVisitRadius)
	if !ok {
		return 0
	}
	target := math.Atan2(lm.Y-p.y, lm.X-p.x)
	return params.LandmarkAttractionScale * numeric.AngleDiff(target, p.heading) * lm.Reliability
}

// remember writes the tick's experience at the pose it was sensed from.
func (p *Protozoa) remember(mean float64) {
	p.grid.Update(p.x, p.y, mean)
	p.history.Push(memory.SensorSnapshot{
		Left:   p.left,
		Right:  p.right,
		X:      p.x,
		Y:      p.y,
		Energy: p.energy,
		Tick:   p.tick,
	})
	p.tick++

	p.episodic.DecayAll()
	if mean > params.LandmarkThreshold {
		p.episodic.MaybeStore(p.x, p.y, mean, p.tick)
	}
	p.episodic.UpdateOnVisit(p.x, p.y, mean, p.tick)
}

func (p *Protozoa) metabolize(mean float64) {
	cost := params.BaseMetabolicCost + params.SpeedMetabolicCost*(p.speed/params.MaxSpeed)
	intake := params.IntakeRate * mean
	p.energy = numeric.Clamp(numeric.Finite(p.energy-cost+intake, "energy"), 0, 1)
	if p.energy <= params.ExhaustionThreshold {
		p.speed *= params.ExhaustionSpeedFactor
	}
}

// move integrates position; the dish edge absorbs rather than reflects.
func (p *Protozoa) move(field scape.Field) {
	x := numeric.Finite(p.x+p.speed*math.Cos(p.heading), "position x")
	y := numeric.Finite(p.y+p.speed*math.Sin(p.heading), "position y")
	p.x = numeric.Clamp(x, 0, field.Width())
	p.y = numeric.Clamp(y, 0, field.Height())
}

func (p *Protozoa) uniform(lo, hi float64) float64 {
	return lo + p.rng.Float64()*(hi-lo)
}
