package planning

import (
	"math"
	"math/rand"

	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

// State is the physical state a plan starts from.
type State struct {
	X       float64
	Y       float64
	Heading float64
	Speed   float64
	Energy  float64
}

// ActionDetail is the averaged rollout score of one root action. Lower Total
// is better.
type ActionDetail struct {
	Action    Action  `json:"action"`
	Pragmatic float64 `json:"pragmatic"`
	Epistemic float64 `json:"epistemic"`
	Total     float64 `json:"total"`
	Rollouts  int     `json:"rollouts"`
}

type Config struct {
	Rollouts int
	Depth    int
	Discount float64
	World    World
}

func DefaultConfig() Config {
	return Config{
		Rollouts: params.MCTSRollouts,
		Depth:    params.MCTSDepth,
		Discount: params.MCTSDiscount,
		World:    World{Width: params.DishWidth, Height: params.DishHeight},
	}
}

// Planner scores each root action by sampled forward rollouts over the
// spatial prior map. Rollouts are assigned to root actions round-robin so
// every action receives a share of the budget.
type Planner struct {
	cfg     Config
	details []ActionDetail
}

func NewPlanner(cfg Config) *Planner {
	if cfg.Rollouts < len(allActions) {
		cfg.Rollouts = len(allActions)
	}
	if cfg.Depth < 1 {
		cfg.Depth = 1
	}
	if cfg.Discount <= 0 || cfg.Discount > 1 {
		cfg.Discount = params.MCTSDiscount
	}
	return &Planner{cfg: cfg}
}

func (p *Planner) Config() Config {
	return p.cfg
}

// Plan runs the rollout budget and returns the action with the lowest mean
// total. Ties go to the earliest action in Actions() order.
func (p *Planner) Plan(state State, priors PriorMap, target float64, rng *rand.Rand) Action {
	details := make([]ActionDetail, len(allActions))
	for i, a := range allActions {
		details[i].Action = a
	}

	for r := 0; r < p.cfg.Rollouts; r++ {
		idx := r % len(allActions)
		prag, epi := p.rollout(state, allActions[idx], priors, target, rng)
		details[idx].Pragmatic += prag
		details[idx].Epistemic += epi
		details[idx].Rollouts++
	}

	best := 0
	for i := range details {
		d := &details[i]
		n := float64(d.Rollouts)
		d.Pragmatic = numeric.Finite(d.Pragmatic/n, "rollout pragmatic")
		d.Epistemic = numeric.Finite(d.Epistemic/n, "rollout epistemic")
		d.Total = d.Pragmatic - d.Epistemic
		if d.Total < details[best].Total {
			best = i
		}
	}
	p.details = details
	return details[best].Action
}

// rollout simulates one trajectory of Depth steps: the root action first,
// then uniformly sampled actions. Each step is scored against the remembered
// cell it lands in, discounted by depth.
func (p *Planner) rollout(state State, root Action, priors PriorMap, target float64, rng *rand.Rand) (float64, float64) {
	x, y, heading := state.X, state.Y, state.Heading
	step := math.Max(state.Speed, params.MinPredictedSpeed)
	curiosity := params.EpistemicWeight * numeric.Clamp(state.Energy, 0, 1)

	pragmatic, epistemic := 0.0, 0.0
	weight := 1.0
	a := root
	for d := 0; d < p.cfg.Depth; d++ {
		if d > 0 {
			a = allActions[rng.Intn(len(allActions))]
		}
		heading = numeric.WrapAngle(heading + a.AngleDelta())
		x = numeric.Clamp(x+step*math.Cos(heading), 0, p.cfg.World.Width)
		y = numeric.Clamp(y+step*math.Sin(heading), 0, p.cfg.World.Height)

		cell := priors.Cell(x, y)
		miss := numeric.Clamp(cell.Mean, 0, 1) - target
		pragmatic += weight * 0.5 * miss * miss
		epistemic += weight * curiosity / cell.Precision()
		weight *= p.cfg.Discount
	}
	return pragmatic, epistemic
}

// Details returns a copy of the per-action breakdown of the last Plan.
// Details is a copy of the last Plan's per-action scores; empty, never nil,
// before the first Plan.
func (p *Planner) Details() []ActionDetail {
	out := make([]ActionDetail, len(p.details))
	copy(out, p.details)
	return out
}

// Best returns the lowest-total entry of the last Plan.
func (p *Planner) Best() (ActionDetail, bool) {
	return BestDetail(p.details)
}

// BestDetail picks the lowest total, first entry on ties.
func BestDetail(details []ActionDetail) (ActionDetail, bool) {
	if len(details) == 0 {
		return ActionDetail{}, false
	}
	best := details[0]
	for _, d := range details[1:] {
		if d.Total < best.Total {
			best = d
		}
	}
	return best, true
}
