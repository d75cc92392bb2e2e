package agent

import (
	"protozoa/internal/morphology"
	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

type RegulationKind string

const (
	// Morphogenesis reshapes sensing after sustained surprise.
	Morphogenesis RegulationKind = "morphogenesis"
	// Allostasis lowers the set-point after sustained frustration.
	Allostasis RegulationKind = "allostasis"
)

// RegulationEvent records one System 2 adjustment.
type RegulationEvent struct {
	Tick   uint64                `json:"tick"`
	Kind   RegulationKind        `json:"kind"`
	Signal float64               `json:"signal"`
	Before morphology.Morphology `json:"before"`
	After  morphology.Morphology `json:"after"`
	Cost   float64               `json:"cost"`
}

type RegulationCounts struct {
	Morphogenesis int `json:"morphogenesis"`
	Allostasis    int `json:"allostasis"`
}

func (p *Protozoa) Regulations() RegulationCounts {
	return p.counts
}

// DrainEvents returns the regulation events since the last call.
func (p *Protozoa) DrainEvents() []RegulationEvent {
	out := p.events
	p.events = nil
	return out
}

// regulate averages surprise and frustration over the current window and
// adapts morphology when either exceeds its threshold. Accumulators that stay
// below threshold decay instead.
func (p *Protozoa) regulate() {
	elapsed := p.tick - p.windowStart
	if p.tick < p.windowStart || elapsed < params.MorphWindowSize {
		return
	}
	avgSurprise := p.surprise / float64(elapsed)
	avgFrustration := p.frustration / float64(elapsed)

	if avgSurprise > params.MorphSurpriseThreshold {
		delta := (avgSurprise - params.MorphSurpriseThreshold) / params.MorphSurpriseThreshold
		before := p.morph
		p.morph.AdjustSensorDist(delta)
		p.morph.AdjustSensorAngle(delta)
		p.morph.AdjustBeliefLearningRate(delta)
		p.model.UpdateSensorAngle(p.morph.SensorAngle)

		cost := p.morph.ChangeCost(before)
		p.energy = numeric.Clamp(p.energy-cost, 0, 1)
		p.record(Morphogenesis, avgSurprise, before, cost)
		p.counts.Morphogenesis++

		p.surprise = 0
		p.windowStart = p.tick
	} else {
		p.surprise *= params.MorphAccumulatorDecay
	}

	if avgFrustration > params.MorphFrustrationThreshold {
		delta := (avgFrustration - params.MorphFrustrationThreshold) / params.MorphFrustrationThreshold
		before := p.morph
		p.morph.AdjustTargetConcentration(delta)
		p.model.SetPreference(p.morph.TargetConcentration)
		p.record(Allostasis, avgFrustration, before, 0)
		p.counts.Allostasis++

		p.frustration = 0
		p.windowStart = p.tick
	} else {
		p.frustration *= params.MorphAccumulatorDecay
		p.morph.AdjustTargetConcentration(0)
		p.model.SetPreference(p.morph.TargetConcentration)
	}
}

func (p *Protozoa) record(kind RegulationKind, signal float64, before morphology.Morphology, cost float64) {
	p.events = append(p.events, RegulationEvent{
		Tick:   p.tick,
		Kind:   kind,
		Signal: signal,
		Before: before,
		After:  p.morph,
		Cost:   cost,
	})
}
