package agent

import (
	"math"

	"protozoa/internal/numeric"
	"protozoa/internal/scape"
)

// Sense samples the field at the two chemoreceptors. The left sensor sits
// SensorAngle counter-clockwise of the heading, the right one clockwise.
func (p *Protozoa) Sense(field scape.Field) {
	dist := p.morph.SensorDist
	angle := p.morph.SensorAngle

	thetaL := p.heading + angle
	p.left = numeric.Finite(field.ConcentrationAt(p.x+dist*math.Cos(thetaL), p.y+dist*math.Sin(thetaL)), "left sensor")

	thetaR := p.heading - angle
	p.right = numeric.Finite(field.ConcentrationAt(p.x+dist*math.Cos(thetaR), p.y+dist*math.Sin(thetaR)), "right sensor")
}
