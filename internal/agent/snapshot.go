package agent

import (
	"protozoa/internal/inference"
	"protozoa/internal/memory"
	"protozoa/internal/morphology"
	"protozoa/internal/params"
	"protozoa/internal/planning"
)

// Snapshot is a fully owned copy of the organism's observable state.
type Snapshot struct {
	Tick             uint64  `json:"tick"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Heading          float64 `json:"heading"`
	Speed            float64 `json:"speed"`
	Energy           float64 `json:"energy"`
	Mode             Mode    `json:"mode"`
	Left             float64 `json:"left"`
	Right            float64 `json:"right"`
	TemporalGradient float64 `json:"temporal_gradient"`

	GridCols int                `json:"grid_cols"`
	GridRows int                `json:"grid_rows"`
	Grid     []memory.CellPrior `json:"grid"`

	Plan             []planning.ActionDetail `json:"plan"`
	PlannedAction    planning.Action         `json:"planned_action"`
	ReactiveAction   planning.Action         `json:"reactive_action"`
	TicksUntilReplan uint64                  `json:"ticks_until_replan"`

	Landmarks []memory.Landmark `json:"landmarks"`
	// NavTarget indexes Landmarks while goal navigation is active, else -1.
	NavTarget int `json:"nav_target"`

	Morphology        morphology.Morphology      `json:"morphology"`
	Complexity        float64                    `json:"complexity"`
	FreeEnergy        float64                    `json:"free_energy"`
	BelievedNutrient  float64                    `json:"believed_nutrient"`
	BeliefUncertainty float64                    `json:"belief_uncertainty"`
	SensoryPrecision  inference.SensoryPrecision `json:"sensory_precision"`
	Surprise          float64                    `json:"surprise"`
	Frustration       float64                    `json:"frustration"`
	Regulations       RegulationCounts           `json:"regulations"`
}

// Snapshot never mutates the organism.
func (p *Protozoa) Snapshot() Snapshot {
	cols, rows := p.grid.Dimensions()
	landmarks := p.episodic.Landmarks()
	return Snapshot{
		Tick:              p.tick,
		X:                 p.x,
		Y:                 p.y,
		Heading:           p.heading,
		Speed:             p.speed,
		Energy:            p.energy,
		Mode:              p.Mode(),
		Left:              p.left,
		Right:             p.right,
		TemporalGradient:  p.tempGradient,
		GridCols:          cols,
		GridRows:          rows,
		Grid:              p.grid.Flatten(),
		Plan:              p.planner.Details(),
		PlannedAction:     p.plannedAction,
		ReactiveAction:    p.reactive,
		TicksUntilReplan:  p.TicksUntilReplan(),
		Landmarks:         landmarks,
		NavTarget:         p.navTarget(landmarks),
		Morphology:        p.morph,
		Complexity:        p.morph.Complexity(),
		FreeEnergy:        p.vfe,
		BelievedNutrient:  p.beliefs.Mean.Nutrient,
		BeliefUncertainty: p.beliefs.TotalUncertainty(),
		SensoryPrecision:  p.model.SensoryPrecision,
		Surprise:          p.surprise,
		Frustration:       p.frustration,
		Regulations:       p.counts,
	}
}

func (p *Protozoa) navTarget(landmarks []memory.Landmark) int {
	if p.energy >= params.MCTSUrgentEnergy {
		return -1
	}
	best, ok := p.episodic.BestDistant(p.x, p.y, params.LandmarkVisitRadius)
	if !ok {
		return -1
	}
	for i, lm := range landmarks {
		if lm == best {
			return i
		}
	}
	return -1
}

// History returns the recent sensor samples, oldest first.
func (p *Protozoa) History() []memory.SensorSnapshot {
	return p.history.Snapshots()
}
