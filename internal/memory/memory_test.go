package memory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protozoa/internal/params"
)

func TestCellForClampsEveryInput(t *testing.T) {
	g := NewSpatialGrid(params.GridWidth, params.GridHeight, params.DishWidth, params.DishHeight)
	cases := []struct {
		x, y     float64
		col, row int
	}{
		{0, 0, 0, 0},
		{-50, -1, 0, 0},
		{params.DishWidth, params.DishHeight, params.GridWidth - 1, params.GridHeight - 1},
		{1e12, 1e12, params.GridWidth - 1, params.GridHeight - 1},
		{math.NaN(), math.Inf(1), 0, 0},
		{52.5, 26, 10, 5},
	}
	for _, tc := range cases {
		col, row := g.CellFor(tc.x, tc.y)
		assert.Equal(t, tc.col, col, "col for (%v,%v)", tc.x, tc.y)
		assert.Equal(t, tc.row, row, "row for (%v,%v)", tc.x, tc.y)
	}
}

func TestSpatialUpdateConvergesAndGainsPrecision(t *testing.T) {
	g := NewSpatialGrid(params.GridWidth, params.GridHeight, params.DishWidth, params.DishHeight)
	before := g.Cell(10, 10).Precision()
	for i := 0; i < 200; i++ {
		g.Update(10, 10, 0.9)
	}
	cell := g.Cell(10, 10)
	assert.InDelta(t, 0.9, cell.Mean, 1e-3)
	assert.Equal(t, uint64(200), cell.Visits)
	assert.Greater(t, cell.Precision(), before)
	assert.LessOrEqual(t, cell.Precision(), params.MaxPrecision)

	untouched := g.Cell(90, 40)
	assert.Equal(t, params.InitialCellMean, untouched.Mean)
	assert.Equal(t, uint64(0), untouched.Visits)
}

func TestFlattenIsRowMajorCopy(t *testing.T) {
	g := NewSpatialGrid(4, 2, 40, 20)
	g.Update(35, 15, 1)
	flat := g.Flatten()
	require.Len(t, flat, 8)
	assert.Equal(t, uint64(1), flat[1*4+3].Visits)

	flat[0].Mean = 42
	assert.NotEqual(t, 42.0, g.Cell(0, 0).Mean)
}

func TestMaybeStoreRefreshesNearbyLandmark(t *testing.T) {
	m := NewEpisodicMemory()
	m.MaybeStore(10, 10, 0.8, 1)
	m.DecayAll()
	m.MaybeStore(12, 10, 0.9, 2)

	require.Equal(t, 1, m.Count())
	lm := m.Landmarks()[0]
	assert.Equal(t, 0.9, lm.PeakNutrient)
	assert.Equal(t, 1.0, lm.Reliability)
	assert.Equal(t, uint64(2), lm.VisitCount)
	assert.Equal(t, uint64(2), lm.LastVisitTick)
}

func TestMaybeStoreNeverExceedsCapacity(t *testing.T) {
	m := NewEpisodicMemory()
	for i := 0; i < 3*params.MaxLandmarks; i++ {
		m.MaybeStore(float64(i)*10, 0, 0.7+0.01*float64(i), uint64(i))
		assert.LessOrEqual(t, m.Count(), params.MaxLandmarks)
	}
	assert.Equal(t, params.MaxLandmarks, m.Count())
}

func TestMaybeStoreEvictsLeastValuable(t *testing.T) {
	m := NewEpisodicMemory()
	for i := 0; i < params.MaxLandmarks; i++ {
		m.MaybeStore(float64(i)*10, 0, 0.8, uint64(i))
	}
	m.MaybeStore(500, 500, 0.75, 100)
	for _, lm := range m.Landmarks() {
		assert.NotEqual(t, 500.0, lm.X, "weaker candidate must not evict")
	}

	m.MaybeStore(500, 500, 0.95, 101)
	best, ok := m.Best()
	require.True(t, ok)
	assert.Equal(t, 500.0, best.X)
	assert.Equal(t, params.MaxLandmarks, m.Count())
}

func TestDecayStrictlyDecreasesAndPrunes(t *testing.T) {
	m := NewEpisodicMemory()
	m.MaybeStore(0, 0, 0.9, 0)
	prev := m.Landmarks()[0].Reliability
	for m.Count() > 0 {
		m.DecayAll()
		if m.Count() == 0 {
			break
		}
		r := m.Landmarks()[0].Reliability
		require.Less(t, r, prev)
		require.Greater(t, r, 0.0)
		require.GreaterOrEqual(t, r, params.LandmarkPruneBelow)
		prev = r
	}
	assert.Less(t, prev*params.LandmarkDecay, params.LandmarkPruneBelow)
}

func TestUpdateOnVisitRefreshesOnlyNearby(t *testing.T) {
	m := NewEpisodicMemory()
	m.MaybeStore(10, 10, 0.8, 0)
	m.MaybeStore(60, 10, 0.8, 0)
	m.DecayAll()
	m.UpdateOnVisit(11, 11, 0.1, 5)

	for _, lm := range m.Landmarks() {
		if lm.X == 10 {
			assert.Equal(t, 1.0, lm.Reliability)
			assert.Equal(t, 0.8, lm.PeakNutrient)
			assert.Equal(t, uint64(5), lm.LastVisitTick)
		} else {
			assert.Less(t, lm.Reliability, 1.0)
		}
	}
}

func TestBestDistantSkipsCurrentNeighborhood(t *testing.T) {
	m := NewEpisodicMemory()
	m.MaybeStore(10, 10, 0.95, 0)
	m.MaybeStore(40, 30, 0.8, 1)

	best, ok := m.Best()
	require.True(t, ok)
	assert.Equal(t, 10.0, best.X)

	distant, ok := m.BestDistant(10, 10, params.LandmarkVisitRadius)
	require.True(t, ok)
	assert.Equal(t, 40.0, distant.X)
	assert.Equal(t, 30.0, distant.Y)

	_, ok = NewEpisodicMemory().BestDistant(0, 0, 1)
	assert.False(t, ok)
}

func TestSensorHistoryKeepsNewestInOrder(t *testing.T) {
	h := NewSensorHistory()
	_, ok := h.Latest()
	assert.False(t, ok)

	for i := 0; i < params.HistorySize+5; i++ {
		h.Push(SensorSnapshot{Tick: uint64(i)})
	}
	require.Equal(t, params.HistorySize, h.Len())
	snaps := h.Snapshots()
	require.Len(t, snaps, params.HistorySize)
	assert.Equal(t, uint64(5), snaps[0].Tick)
	assert.Equal(t, uint64(params.HistorySize+4), snaps[len(snaps)-1].Tick)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(params.HistorySize+4), latest.Tick)
}
