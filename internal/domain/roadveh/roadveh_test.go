package roadveh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

func newTestRoadVeh(t *testing.T, m *grid.Map, pool *vehicle.Pool, tile grid.TileIndex) *RoadVehicle {
	v, ok := pool.Allocate(vehicle.KindRoadVeh, grid.Owner(0), tile)
	require.True(t, ok)
	v.Tile = tile
	return &RoadVehicle{Veh: v, Trackdir: trackdir.TrackdirDiag1NE}
}

func TestStepFrameAdvancesOntoDeadEndTurnsAround(t *testing.T) {
	m := grid.NewMap(4, 4)
	tile := m.TileOf(8, 8)
	m.At(tile).Kind = grid.KindStreet
	m.At(tile).M5 = uint8(trackdir.TrackBitDiag1)

	pool, err := vehicle.NewPool()
	require.NoError(t, err)
	c := NewController(m, pool)

	rv := newTestRoadVeh(t, m, pool, tile)
	c.stepFrame(rv) // advances onto the road-less tile ahead
	c.stepFrame(rv) // no trackdir continues there
	assert.Equal(t, StateTurningAround, rv.State)
}

func TestDeadlockDriveThroughAfterThreshold(t *testing.T) {
	m := grid.NewMap(4, 4)
	tile := m.TileOf(8, 8)
	m.At(tile).Kind = grid.KindStreet
	m.At(tile).M5 = uint8(trackdir.TrackBitDiag1)
	next := m.TileOf(8, 7)
	m.At(next).Kind = grid.KindStreet
	m.At(next).M5 = uint8(trackdir.TrackBitDiag1)

	pool, err := vehicle.NewPool()
	require.NoError(t, err)
	c := NewController(m, pool)

	rv := newTestRoadVeh(t, m, pool, tile)
	blocker, ok := pool.Allocate(vehicle.KindRoadVeh, grid.Owner(0), tile)
	require.True(t, ok)
	blocker.X, blocker.Y = rv.Veh.X, rv.Veh.Y
	require.NoError(t, pool.PositionChanged(blocker))
	require.NoError(t, pool.PositionChanged(rv.Veh))

	for i := 0; i < DeadlockTicks-1; i++ {
		c.stepFrame(rv)
		assert.Equal(t, tile, rv.Veh.Tile)
	}
	c.stepFrame(rv)
	assert.Equal(t, next, rv.Veh.Tile)
}

func TestAssignStopSlotPicksNearestFreeSlot(t *testing.T) {
	m := grid.NewMap(4, 4)
	from := m.TileOf(0, 0)
	far := m.TileOf(3, 3)
	near := m.TileOf(1, 1)

	busy := func(tile grid.TileIndex, slot uint8) bool { return false }
	got := AssignStopSlot(m, []grid.TileIndex{far, near}, busy, from)
	assert.Equal(t, near, got.StationTile)
}

func TestSlotExpiredAfterMaxAge(t *testing.T) {
	assert.False(t, SlotExpired(StopSlot{AgeDays: SlotMaxAgeDays}))
	assert.True(t, SlotExpired(StopSlot{AgeDays: SlotMaxAgeDays + 1}))
}
