// Package numeric holds the scalar guards the cognition core applies before
// any value reaches position, heading or energy.
package numeric

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
)

var (
	strict         atomic.Bool
	nonFiniteCount atomic.Uint64
)

func init() {
	strict.Store(strictDefault)
}

// SetStrict switches between panicking on non-finite values and degrading
// to zero. It returns the previous setting.
func SetStrict(enabled bool) bool {
	return strict.Swap(enabled)
}

// NonFiniteCount reports how many non-finite values were replaced since
// process start.
func NonFiniteCount() uint64 {
	return nonFiniteCount.Load()
}

// Finite returns v unchanged when it is a finite number. Otherwise the
// occurrence is counted and logged and zero is returned; in strict mode it
// panics instead.
func Finite(v float64, context string) float64 {
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	nonFiniteCount.Add(1)
	if strict.Load() {
		panic(fmt.Sprintf("non-finite value in %s: %v", context, v))
	}
	slog.Default().Warn("non-finite value replaced", "context", context, "value", v)
	return 0
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WrapAngle maps any finite angle into [0, 2π).
func WrapAngle(a float64) float64 {
	w := math.Mod(a, 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	// Mod of a tiny negative value can round up to exactly 2π.
	if w >= 2*math.Pi {
		w = 0
	}
	return w
}

// AngleDiff returns the shortest signed rotation from `from` to `to`, in
// (-π, π].
func AngleDiff(to, from float64) float64 {
	d := WrapAngle(to - from)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}
