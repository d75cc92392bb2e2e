package ui

import (
	"fmt"
	"math"
	"strings"

	"protozoa/internal/agent"
	"protozoa/internal/numeric"
	"protozoa/internal/params"
	"protozoa/internal/planning"
	"protozoa/internal/scape"
)

// densityChars runs from empty to saturated.
var densityChars = []rune{' ', '.', ',', ':', ';', '+', '*', '#', '@'}

func densityChar(v float64) rune {
	idx := int(math.Round(numeric.Clamp(v, 0, 1) * float64(len(densityChars)-1)))
	return densityChars[idx]
}

// cellOf maps a world position onto a cols x rows raster.
func cellOf(x, y, width, height float64, cols, rows int) (int, int) {
	if cols <= 0 || rows <= 0 || width <= 0 || height <= 0 {
		return 0, 0
	}
	c := int(math.Floor(x / (width / float64(cols))))
	r := int(math.Floor(y / (height / float64(rows))))
	return min(max(c, 0), cols-1), min(max(r, 0), rows-1)
}

// DishLines samples the field at cell centers and marks the organism with O.
// Row 0 is the top of the dish (largest y).
func DishLines(field scape.Field, cols, rows int, x, y float64) []string {
	w, h := field.Width(), field.Height()
	oc, orow := cellOf(x, y, w, h, cols, rows)
	lines := make([]string, 0, rows)
	for r := rows - 1; r >= 0; r-- {
		var b strings.Builder
		for c := 0; c < cols; c++ {
			if c == oc && r == orow {
				b.WriteRune('O')
				continue
			}
			cx := (float64(c) + 0.5) * w / float64(cols)
			cy := (float64(r) + 0.5) * h / float64(rows)
			b.WriteRune(densityChar(field.ConcentrationAt(cx, cy)))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// GridLines renders the learned spatial priors with the organism's cell as o.
func GridLines(s agent.Snapshot, width, height float64) []string {
	oc, orow := cellOf(s.X, s.Y, width, height, s.GridCols, s.GridRows)
	lines := make([]string, 0, s.GridRows)
	for r := s.GridRows - 1; r >= 0; r-- {
		var b strings.Builder
		for c := 0; c < s.GridCols; c++ {
			idx := r*s.GridCols + c
			switch {
			case c == oc && r == orow:
				b.WriteRune('o')
			case idx < len(s.Grid):
				b.WriteRune(densityChar(s.Grid[idx].Mean))
			default:
				b.WriteRune(' ')
			}
		}
		lines = append(lines, b.String())
	}
	return lines
}

func MetricsLines(s agent.Snapshot) []string {
	precision := s.SensoryPrecision.Mean()
	return []string{
		fmt.Sprintf("Tick %d  Mode %s", s.Tick, strings.ToUpper(s.Mode.String())),
		fmt.Sprintf("F:%6.2f  ρ:%5.2f  σ²:%5.2f", s.FreeEnergy, precision, s.BeliefUncertainty),
		fmt.Sprintf("v:%4.2f  θ:%4.0f°", s.Speed, s.Heading*180/math.Pi),
		fmt.Sprintf("L:%.2f  R:%.2f  ∂t:%+.3f", s.Left, s.Right, s.TemporalGradient),
		fmt.Sprintf("μ nutrient: %.2f", s.BelievedNutrient),
	}
}

// PlanLines summarizes the last plan. The lowest expected free energy wins.
func PlanLines(s agent.Snapshot) []string {
	best, ok := planning.BestDetail(s.Plan)
	if !ok {
		return []string{"No plan yet", fmt.Sprintf("Replan: %d", s.TicksUntilReplan)}
	}
	lines := []string{
		fmt.Sprintf("Best: %s %s", best.Action.Arrow(), best.Action),
		fmt.Sprintf("G: %.3f", best.Total),
		fmt.Sprintf("├─Prag: %.3f", best.Pragmatic),
		fmt.Sprintf("└─Epis: %.3f", best.Epistemic),
	}
	for _, d := range s.Plan {
		marker := " "
		if d.Action == best.Action {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s%-8s %7.3f (%d)", marker, d.Action, d.Total, d.Rollouts))
	}
	lines = append(lines,
		fmt.Sprintf("Reactive: %s", s.ReactiveAction),
		fmt.Sprintf("Rolls %d  Depth %d", params.MCTSRollouts, params.MCTSDepth),
		fmt.Sprintf("Replan: %d", s.TicksUntilReplan),
	)
	return lines
}

func LandmarkLines(s agent.Snapshot) []string {
	lines := []string{
		" # │ Pos       │ Rel │ Vis",
		"───┼───────────┼─────┼────",
	}
	for i, lm := range s.Landmarks {
		prefix := " "
		if i == s.NavTarget {
			prefix = "→"
		}
		lines = append(lines, fmt.Sprintf("%s%d │ (%3.0f,%3.0f) │ %.2f│ %d",
			prefix, i+1, lm.X, lm.Y, numeric.Clamp(lm.Reliability, 0, 1), lm.VisitCount))
	}
	for i := len(s.Landmarks); i < params.MaxLandmarks; i++ {
		lines = append(lines, fmt.Sprintf(" %d │    --     │  -- │ -", i+1))
	}
	return lines
}

func MorphologyLines(s agent.Snapshot) []string {
	m := s.Morphology
	return []string{
		fmt.Sprintf("sensor dist  %.2f", m.SensorDist),
		fmt.Sprintf("sensor angle %.2f", m.SensorAngle),
		fmt.Sprintf("learn rate   %.3f", m.BeliefLearningRate),
		fmt.Sprintf("target       %.3f", m.TargetConcentration),
		fmt.Sprintf("complexity   %.3f", s.Complexity),
		fmt.Sprintf("surprise %.1f  frustr %.1f", s.Surprise, s.Frustration),
		fmt.Sprintf("morph %d  allo %d", s.Regulations.Morphogenesis, s.Regulations.Allostasis),
	}
}
