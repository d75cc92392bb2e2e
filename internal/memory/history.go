package memory

import "protozoa/internal/params"

// SensorSnapshot is one diagnostic sample of what the organism sensed.
type SensorSnapshot struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Energy float64 `json:"energy"`
	Tick   uint64  `json:"tick"`
}

// SensorHistory is a ring buffer of the most recent snapshots.
type SensorHistory struct {
	buf  [params.HistorySize]SensorSnapshot
	next int
	size int
}

func NewSensorHistory() *SensorHistory {
	return &SensorHistory{}
}

func (h *SensorHistory) Push(s SensorSnapshot) {
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

func (h *SensorHistory) Len() int {
	return h.size
}

// Snapshots returns the stored samples oldest first.
func (h *SensorHistory) Snapshots() []SensorSnapshot {
	out := make([]SensorSnapshot, 0, h.size)
	start := (h.next - h.size + len(h.buf)) % len(h.buf)
	for i := 0; i < h.size; i++ {
		out = append(out, h.buf[(start+i)%len(h.buf)])
	}
	return out
}

func (h *SensorHistory) Latest() (SensorSnapshot, bool) {
	if h.size == 0 {
		return SensorSnapshot{}, false
	}
	return h.buf[(h.next-1+len(h.buf))%len(h.buf)], true
}
