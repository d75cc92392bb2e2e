package scape

// Field is the read side of a nutrient environment. Concentrations are in
// [-1, 1] for every coordinate, inside the rectangle or not.
type Field interface {
	ConcentrationAt(x, y float64) float64
	Width() float64
	Height() float64
}

// Scape is a Field that evolves once per tick.
type Scape interface {
	Field
	Name() string
	Advance()
}

// UniformField reports the same concentration everywhere.
type UniformField struct {
	Value float64
	W     float64
	H     float64
}

func (f UniformField) ConcentrationAt(_, _ float64) float64 {
	return clamp(f.Value, -1, 1)
}

func (f UniformField) Width() float64  { return f.W }
func (f UniformField) Height() float64 { return f.H }

// FieldFunc adapts a function to Field over a fixed rectangle.
type FieldFunc struct {
	Fn func(x, y float64) float64
	W  float64
	H  float64
}

func (f FieldFunc) ConcentrationAt(x, y float64) float64 {
	return clamp(f.Fn(x, y), -1, 1)
}

func (f FieldFunc) Width() float64  { return f.W }
func (f FieldFunc) Height() float64 { return f.H }

func clamp(v, lo, hi float64) float64 {
	if v != v {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
