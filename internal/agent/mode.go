package agent

import (
	"fmt"

	"protozoa/internal/params"
)

// Mode is the behavioral state derived from the organism's internals.
type Mode int

const (
	Exploring Mode = iota
	Exploiting
	Panicking
	Exhausted
	GoalNav
)

var modeNames = [...]string{
	Exploring:  "exploring",
	Exploiting: "exploiting",
	Panicking:  "panicking",
	Exhausted:  "exhausted",
	GoalNav:    "goal-nav",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	for i, name := range modeNames {
		if name == string(b) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", string(b))
}

// Mode checks conditions from most to least critical.
func (p *Protozoa) Mode() Mode {
	if p.energy <= params.ExhaustionThreshold {
		return Exhausted
	}
	if p.tempGradient < params.PanicThreshold {
		return Panicking
	}
	if p.energy < params.MCTSUrgentEnergy {
		if _, ok := p.episodic.BestDistant(p.x, p.y, params.LandmarkVisitRadius); ok {
			return GoalNav
		}
	}
	if p.grid.Cell(p.x, p.y).Precision() > params.ExploitMinPrecision &&
		p.meanSense() > params.ExploitMinNutrient &&
		p.vfe < params.ExploitMaxVFE {
		return Exploiting
	}
	return Exploring
}
