package planning

import (
	"fmt"

	"protozoa/internal/params"
)

// Action is one of the three discrete heading changes.
type Action int

const (
	TurnLeft Action = iota
	Straight
	TurnRight
)

var allActions = [...]Action{TurnLeft, Straight, TurnRight}

// Actions lists every legal action in tie-break order.
func Actions() []Action {
	return allActions[:]
}

// AngleDelta is the heading change in radians; left is counter-clockwise.
func (a Action) AngleDelta() float64 {
	switch a {
	case TurnLeft:
		return params.TurnDelta
	case TurnRight:
		return -params.TurnDelta
	default:
		return 0
	}
}

func (a Action) String() string {
	switch a {
	case TurnLeft:
		return "left"
	case Straight:
		return "straight"
	case TurnRight:
		return "right"
	default:
		return "unknown"
	}
}

// Arrow is the glyph used by text surfaces.
func (a Action) Arrow() string {
	switch a {
	case TurnLeft:
		return "↺"
	case TurnRight:
		return "↻"
	default:
		return "↑"
	}
}

func (a Action) Valid() bool {
	return a >= TurnLeft && a <= TurnRight
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	for _, candidate := range allActions {
		if candidate.String() == string(b) {
			*a = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", string(b))
}
