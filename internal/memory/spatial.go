package memory

import (
	"protozoa/internal/numeric"
	"protozoa/internal/params"
)

// CellPrior is the learned expectation for one grid cell.
type CellPrior struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Visits   uint64  `json:"visits"`
}

// Precision is the inverse variance, clamped to the configured range.
func (c CellPrior) Precision() float64 {
	if c.Variance <= 0 {
		return params.MaxPrecision
	}
	return numeric.Clamp(1/c.Variance, params.MinPrecision, params.MaxPrecision)
}

// SpatialGrid is a fixed-size map of nutrient expectations covering the
// world rectangle [0,width]×[0,height].
type SpatialGrid struct {
	cols   int
	rows   int
	width  float64
	height float64
	cells  []CellPrior
}

func NewSpatialGrid(cols, rows int, width, height float64) *SpatialGrid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	cells := make([]CellPrior, cols*rows)
	for i := range cells {
		cells[i] = CellPrior{Mean: params.InitialCellMean, Variance: params.InitialCellVar}
	}
	return &SpatialGrid{cols: cols, rows: rows, width: width, height: height, cells: cells}
}

func (g *SpatialGrid) Dimensions() (int, int) {
	return g.cols, g.rows
}

// CellFor maps any world coordinate to a valid (col, row); out-of-range and
// non-finite inputs clamp to the nearest edge.
func (g *SpatialGrid) CellFor(x, y float64) (int, int) {
	return axisIndex(x, g.width, g.cols), axisIndex(y, g.height, g.rows)
}

func axisIndex(v, extent float64, n int) int {
	if !numeric.IsFinite(v) || extent <= 0 {
		return 0
	}
	idx := int(v / extent * float64(n))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

func (g *SpatialGrid) Cell(x, y float64) CellPrior {
	col, row := g.CellFor(x, y)
	return g.cells[row*g.cols+col]
}

// Update moves the cell mean toward the observation and tracks the squared
// error as the cell variance, so repeated consistent visits raise precision.
func (g *SpatialGrid) Update(x, y, observed float64) {
	col, row := g.CellFor(x, y)
	cell := &g.cells[row*g.cols+col]
	rate := params.PriorLearningRate
	obs := numeric.Finite(observed, "spatial observation")

	err := obs - cell.Mean
	cell.Mean += rate * err
	cell.Variance = numeric.Clamp(
		(1-rate)*cell.Variance+rate*err*err,
		1/params.MaxPrecision,
		1/params.MinPrecision,
	)
	cell.Visits++
}

// Flatten returns a row-major copy of every cell.
func (g *SpatialGrid) Flatten() []CellPrior {
	return append([]CellPrior(nil), g.cells...)
}
