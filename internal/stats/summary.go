package stats

import (
	"math"

	"protozoa/internal/agent"
	"protozoa/internal/model"
	"protozoa/internal/morphology"
)

func MorphologyRecord(m morphology.Morphology) model.MorphologyRecord {
	return model.MorphologyRecord{
		SensorDist:          m.SensorDist,
		SensorAngle:         m.SensorAngle,
		BeliefLearningRate:  m.BeliefLearningRate,
		TargetConcentration: m.TargetConcentration,
	}
}

// SampleFromSnapshot flattens the parts of a snapshot that go into a trace.
func SampleFromSnapshot(s agent.Snapshot) model.TickSample {
	return model.TickSample{
		Tick:             s.Tick,
		X:                s.X,
		Y:                s.Y,
		Heading:          s.Heading,
		Speed:            s.Speed,
		Energy:           s.Energy,
		FreeEnergy:       s.FreeEnergy,
		BelievedNutrient: s.BelievedNutrient,
		Left:             s.Left,
		Right:            s.Right,
		Mode:             s.Mode.String(),
		PlannedAction:    s.PlannedAction.String(),
		Landmarks:        len(s.Landmarks),
		Morphology:       MorphologyRecord(s.Morphology),
	}
}

func RegulationFromEvent(e agent.RegulationEvent) model.RegulationRecord {
	return model.RegulationRecord{
		Tick:   e.Tick,
		Kind:   string(e.Kind),
		Signal: e.Signal,
		Cost:   e.Cost,
		Before: MorphologyRecord(e.Before),
		After:  MorphologyRecord(e.After),
	}
}

// Accumulator folds every tick of a run into a RunSummary. It sees all
// ticks, not only the sampled ones, so means are exact.
type Accumulator struct {
	ticks      int
	vfeSum     float64
	minEnergy  float64
	last       agent.Snapshot
	modeTicks  map[string]int
	haveSample bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		minEnergy: math.Inf(1),
		modeTicks: make(map[string]int),
	}
}

func (a *Accumulator) Observe(s agent.Snapshot) {
	a.ticks++
	a.vfeSum += s.FreeEnergy
	if s.Energy < a.minEnergy {
		a.minEnergy = s.Energy
	}
	a.modeTicks[s.Mode.String()]++
	a.last = s
	a.haveSample = true
}

func (a *Accumulator) Ticks() int {
	return a.ticks
}

// Summary reports the run so far. Version fields are left for the store
// layer to stamp.
func (a *Accumulator) Summary(runID string, nonFinite uint64) model.RunSummary {
	modes := make(map[string]int, len(a.modeTicks))
	for k, v := range a.modeTicks {
		modes[k] = v
	}
	summary := model.RunSummary{
		RunID:     runID,
		ModeTicks: modes,
		NonFinite: nonFinite,
	}
	if !a.haveSample {
		return summary
	}
	summary.Ticks = a.last.Tick
	summary.FinalEnergy = a.last.Energy
	summary.MinEnergy = a.minEnergy
	summary.MeanFreeEnergy = a.vfeSum / float64(a.ticks)
	summary.FinalX = a.last.X
	summary.FinalY = a.last.Y
	summary.Landmarks = len(a.last.Landmarks)
	summary.Morphology = MorphologyRecord(a.last.Morphology)
	summary.Complexity = a.last.Complexity
	summary.Morphogenesis = a.last.Regulations.Morphogenesis
	summary.Allostasis = a.last.Regulations.Allostasis
	return summary
}
