package scape

import (
	"math"
	"math/rand"

	"protozoa/internal/params"
)

// Source is one Gaussian nutrient blob.
type Source struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Intensity float64 `json:"intensity"`
	Decay     float64 `json:"decay"`
}

func (s Source) At(x, y float64) float64 {
	dx, dy := x-s.X, y-s.Y
	return s.Intensity * math.Exp(-(dx*dx+dy*dy)/(2*s.Radius*s.Radius))
}

// PetriDish is a rectangle of drifting, decaying nutrient sources. Every
// random draw comes from the dish's own source.
type PetriDish struct {
	width   float64
	height  float64
	sources []Source
	rng     *rand.Rand
}

func NewPetriDish(width, height float64, rng *rand.Rand) *PetriDish {
	d := &PetriDish{width: width, height: height, rng: rng}
	n := params.SourceCountMin + rng.Intn(params.SourceCountMax-params.SourceCountMin+1)
	d.sources = make([]Source, 0, n)
	for i := 0; i < n; i++ {
		d.sources = append(d.sources, d.randomSource())
	}
	return d
}

// NewPetriDishWithSources builds a dish with a fixed initial layout.
func NewPetriDishWithSources(width, height float64, sources []Source, rng *rand.Rand) *PetriDish {
	return &PetriDish{
		width:   width,
		height:  height,
		sources: append([]Source(nil), sources...),
		rng:     rng,
	}
}

var _ Scape = (*PetriDish)(nil)

func (d *PetriDish) Name() string {
	return "petri-dish"
}

func (d *PetriDish) Width() float64  { return d.width }
func (d *PetriDish) Height() float64 { return d.height }

// ConcentrationAt sums every source and clamps to [-1, 1].
func (d *PetriDish) ConcentrationAt(x, y float64) float64 {
	total := 0.0
	for _, s := range d.sources {
		total += s.At(x, y)
	}
	return clamp(total, -1, 1)
}

// Advance decays every source, drifts it by a brownian step clamped inside
// the dish and respawns it once it has faded.
func (d *PetriDish) Advance() {
	for i := range d.sources {
		s := &d.sources[i]
		s.Intensity *= s.Decay
		s.X = clamp(s.X+d.uniform(-params.BrownianStep, params.BrownianStep), 0, d.width)
		s.Y = clamp(s.Y+d.uniform(-params.BrownianStep, params.BrownianStep), 0, d.height)
		if s.Intensity < params.RespawnThreshold {
			*s = d.randomSource()
		}
	}
}

// Sources returns a copy of the current layout.
func (d *PetriDish) Sources() []Source {
	return append([]Source(nil), d.sources...)
}

func (d *PetriDish) randomSource() Source {
	marginX := math.Min(params.SourceMargin, d.width/2)
	marginY := math.Min(params.SourceMargin, d.height/2)
	return Source{
		X:         d.uniform(marginX, d.width-marginX),
		Y:         d.uniform(marginY, d.height-marginY),
		Radius:    d.uniform(params.SourceRadiusMin, params.SourceRadiusMax),
		Intensity: d.uniform(params.SourceIntensityMin, params.SourceIntensityMax),
		Decay:     d.uniform(params.SourceDecayMin, params.SourceDecayMax),
	}
}

func (d *PetriDish) uniform(lo, hi float64) float64 {
	return lo + d.rng.Float64()*(hi-lo)
}
