package platform

import (
	"testing"

	"protozoa/internal/logging"
)

func TestRunnerDishIsSeededScape(t *testing.T) {
	a, err := NewRunner(shortRun(4), nil, logging.Discard())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	b, err := NewRunner(shortRun(4), nil, logging.Discard())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if name := a.Dish().Name(); name != "petri-dish" {
		t.Fatalf("unexpected scape name %q", name)
	}
	for i := 0; i < 5; i++ {
		a.Step()
		b.Step()
	}
	for _, pt := range [][2]float64{{10, 10}, {50, 25}, {90, 40}} {
		ca := a.Dish().ConcentrationAt(pt[0], pt[1])
		cb := b.Dish().ConcentrationAt(pt[0], pt[1])
		if ca != cb {
			t.Fatalf("dish diverged at %v: %f vs %f", pt, ca, cb)
		}
	}
	if a.Dish().Width() != a.Config().Width {
		t.Fatalf("dish width %f, config width %f", a.Dish().Width(), a.Config().Width)
	}
}
