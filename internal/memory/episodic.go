package memory

import (
	"math"

	"protozoa/internal/params"
)

// Landmark is a remembered high-nutrient place.
type Landmark struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	PeakNutrient  float64 `json:"peak_nutrient"`
	LastVisitTick uint64  `json:"last_visit_tick"`
	VisitCount    uint64  `json:"visit_count"`
	Reliability   float64 `json:"reliability"`
}

func NewLandmark(x, y, nutrient float64, tick uint64) Landmark {
	return Landmark{
		X:             x,
		Y:             y,
		PeakNutrient:  nutrient,
		LastVisitTick: tick,
		VisitCount:    1,
		Reliability:   1,
	}
}

func (l Landmark) DistanceTo(x, y float64) float64 {
	return math.Hypot(l.X-x, l.Y-y)
}

// Value ranks landmarks for recall and eviction.
func (l Landmark) Value() float64 {
	return l.PeakNutrient * l.Reliability
}

func (l *Landmark) refresh(nutrient float64, tick uint64) {
	l.PeakNutrient = math.Max(l.PeakNutrient, nutrient)
	l.LastVisitTick = tick
	l.VisitCount++
	l.Reliability = 1
}

type landmarkSlot struct {
	used     bool
	landmark Landmark
}

// EpisodicMemory stores up to MaxLandmarks landmarks in fixed slots.
type EpisodicMemory struct {
	slots [params.MaxLandmarks]landmarkSlot
}

func NewEpisodicMemory() *EpisodicMemory {
	return &EpisodicMemory{}
}

func (m *EpisodicMemory) Count() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].used {
			n++
		}
	}
	return n
}

// MaybeStore refreshes a landmark within the visit radius, otherwise fills
// an empty slot, otherwise replaces the least valuable landmark when the
// candidate is worth more.
func (m *EpisodicMemory) MaybeStore(x, y, nutrient float64, tick uint64) {
	for i := range m.slots {
		s := &m.slots[i]
		if s.used && s.landmark.DistanceTo(x, y) < params.LandmarkVisitRadius {
			s.landmark.refresh(nutrient, tick)
			return
		}
	}

	target := -1
	minValue := math.MaxFloat64
	for i := range m.slots {
		s := &m.slots[i]
		if !s.used {
			target = i
			minValue = math.Inf(-1)
			break
		}
		if v := s.landmark.Value(); v < minValue {
			minValue = v
			target = i
		}
	}
	// A fresh landmark has reliability 1, so its value is the nutrient.
	if target >= 0 && nutrient > minValue {
		m.slots[target] = landmarkSlot{used: true, landmark: NewLandmark(x, y, nutrient, tick)}
	}
}

// DecayAll ages every landmark once and frees slots that fall below the
// prune threshold.
func (m *EpisodicMemory) DecayAll() {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.used {
			continue
		}
		s.landmark.Reliability *= params.LandmarkDecay
		if s.landmark.Reliability < params.LandmarkPruneBelow {
			m.slots[i] = landmarkSlot{}
		}
	}
}

// UpdateOnVisit refreshes every landmark within the visit radius.
func (m *EpisodicMemory) UpdateOnVisit(x, y, nutrient float64, tick uint64) {
	for i := range m.slots {
		s := &m.slots[i]
		if s.used && s.landmark.DistanceTo(x, y) < params.LandmarkVisitRadius {
			s.landmark.refresh(nutrient, tick)
		}
	}
}

func (m *EpisodicMemory) Best() (Landmark, bool) {
	return m.best(func(Landmark) bool { return true })
}

// BestDistant returns the most valuable landmark at least minDistance away
// from (x, y).
func (m *EpisodicMemory) BestDistant(x, y, minDistance float64) (Landmark, bool) {
	return m.best(func(l Landmark) bool { return l.DistanceTo(x, y) >= minDistance })
}

func (m *EpisodicMemory) best(keep func(Landmark) bool) (Landmark, bool) {
	var best Landmark
	found := false
	for i := range m.slots {
		s := &m.slots[i]
		if !s.used || !keep(s.landmark) {
			continue
		}
		if !found || s.landmark.Value() > best.Value() {
			best = s.landmark
			found = true
		}
	}
	return best, found
}

// Landmarks returns a copy of the stored landmarks in slot order.
func (m *EpisodicMemory) Landmarks() []Landmark {
	out := make([]Landmark, 0, params.MaxLandmarks)
	for i := range m.slots {
		if m.slots[i].used {
			out = append(out, m.slots[i].landmark)
		}
	}
	return out
}
