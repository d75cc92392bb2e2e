package agent

import (
	"math/rand"

	"protozoa/internal/inference"
	"protozoa/internal/memory"
	"protozoa/internal/morphology"
	"protozoa/internal/numeric"
	"protozoa/internal/params"
	"protozoa/internal/planning"
)

// Protozoa is a single organism. It owns its beliefs, memories, planner and
// morphology exclusively and advances them once per UpdateState call.
type Protozoa struct {
	x       float64
	y       float64
	heading float64
	speed   float64
	energy  float64

	left          float64
	right         float64
	lastMeanSense float64
	tempGradient  float64
	tick          uint64

	beliefs   inference.BeliefState
	model     inference.GenerativeModel
	precision inference.PrecisionEstimator
	vfe       float64

	grid     *memory.SpatialGrid
	history  *memory.SensorHistory
	episodic *memory.EpisodicMemory

	planner       *planning.Planner
	lastPlanTick  uint64
	plannedAction planning.Action
	reactive      planning.Action

	morph       morphology.Morphology
	surprise    float64
	frustration float64
	windowStart uint64
	events      []RegulationEvent
	counts      RegulationCounts

	world planning.World
	rng   *rand.Rand
}

type options struct {
	morph   morphology.Morphology
	world   planning.World
	planner planning.Config
	heading *float64
}

type Option func(*options)

// WithMorphology sets the starting morphology; out-of-range values are clamped.
func WithMorphology(m morphology.Morphology) Option {
	return func(o *options) { o.morph = m.Clamped() }
}

// WithWorld sets the rectangle covered by the spatial grid and forecasts.
func WithWorld(width, height float64) Option {
	return func(o *options) { o.world = planning.World{Width: width, Height: height} }
}

func WithPlanner(cfg planning.Config) Option {
	return func(o *options) { o.planner = cfg }
}

// WithHeading fixes the initial heading instead of drawing it from rng.
func WithHeading(h float64) Option {
	return func(o *options) { o.heading = &h }
}

// New places an organism at (x, y). All of its stochastic choices draw from
// rng, including the initial heading unless WithHeading is given.
func New(x, y float64, rng *rand.Rand, opts ...Option) *Protozoa {
	o := options{
		morph:   morphology.New(),
		world:   planning.World{Width: params.DishWidth, Height: params.DishHeight},
		planner: planning.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.planner.World = o.world

	var heading float64
	if o.heading != nil {
		heading = *o.heading
	} else {
		heading = rng.Float64() * params.TwoPi
	}

	model := inference.NewGenerativeModel(o.world.Width, o.world.Height)
	model.UpdateSensorAngle(o.morph.SensorAngle)
	model.SetPreference(o.morph.TargetConcentration)

	return &Protozoa{
		x:             x,
		y:             y,
		heading:       numeric.WrapAngle(heading),
		energy:        1,
		beliefs:       inference.NewBeliefState(x, y, heading),
		model:         model,
		precision:     inference.NewPrecisionEstimator(),
		grid:          memory.NewSpatialGrid(params.GridWidth, params.GridHeight, o.world.Width, o.world.Height),
		history:       memory.NewSensorHistory(),
		episodic:      memory.NewEpisodicMemory(),
		planner:       planning.NewPlanner(o.planner),
		plannedAction: planning.Straight,
		reactive:      planning.Straight,
		morph:         o.morph,
		world:         o.world,
		rng:           rng,
	}
}

func (p *Protozoa) Position() (float64, float64) { return p.x, p.y }
func (p *Protozoa) Heading() float64              { return p.heading }
func (p *Protozoa) Speed() float64                { return p.speed }
func (p *Protozoa) Energy() float64               { return p.energy }
func (p *Protozoa) Tick() uint64                  { return p.tick }

func (p *Protozoa) Sensors() (float64, float64) { return p.left, p.right }

func (p *Protozoa) Morphology() morphology.Morphology { return p.morph }

// FreeEnergy is the variational free energy computed on the last update.
func (p *Protozoa) FreeEnergy() float64 { return p.vfe }

func (p *Protozoa) BelievedNutrient() float64 { return p.beliefs.Mean.Nutrient }

// BeliefUncertainty is the summed posterior variance.
func (p *Protozoa) BeliefUncertainty() float64 { return p.beliefs.TotalUncertainty() }

// TicksUntilReplan counts down to the next scheduled plan. Urgent replans on
// low energy happen regardless.
func (p *Protozoa) TicksUntilReplan() uint64 {
	elapsed := p.tick - p.lastPlanTick
	if p.tick < p.lastPlanTick || elapsed >= params.MCTSReplanInterval {
		return 0
	}
	return params.MCTSReplanInterval - elapsed
}

func (p *Protozoa) PlannedAction() planning.Action { return p.plannedAction }

func (p *Protozoa) ReactiveAction() planning.Action { return p.reactive }

func (p *Protozoa) meanSense() float64 {
	return (p.left + p.right) / 2
}
