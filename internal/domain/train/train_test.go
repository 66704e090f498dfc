package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/shared"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

func newTestTrain(t *testing.T, m *grid.Map, pool *vehicle.Pool, tile grid.TileIndex) *Train {
	v, ok := pool.Allocate(vehicle.KindTrain, grid.Owner(0), tile)
	require.True(t, ok)
	v.Tile = tile
	return &Train{
		Cars: []*Car{{Veh: v, Trackdir: trackdir.TrackdirDiag1NE, Length: 4, Power: 1000, Weight: 80}},
	}
}

func TestBreakdownSlowsThenStopsTrain(t *testing.T) {
	m := grid.NewMap(4, 4)
	pool, err := vehicle.NewPool()
	require.NoError(t, err)
	c := NewController(m, pool, DefaultConfig())

	tr := newTestTrain(t, m, pool, m.TileOf(8, 8))
	tr.BrokenDown = true
	tr.Speed = 1000

	for i := 0; i < len(breakdownSpeedTable); i++ {
		c.breakdownTick(tr)
	}
	assert.Equal(t, int32(0), tr.Speed)
}

func TestCrashTickRemovesOneCarPer32Ticks(t *testing.T) {
	m := grid.NewMap(4, 4)
	pool, err := vehicle.NewPool()
	require.NoError(t, err)
	c := NewController(m, pool, DefaultConfig())

	tr := newTestTrain(t, m, pool, m.TileOf(8, 8))
	v2, _ := pool.Allocate(vehicle.KindTrain, grid.Owner(0), m.TileOf(8, 8))
	tr.Cars = append(tr.Cars, &Car{Veh: v2, Trackdir: trackdir.TrackdirDiag1NE, Length: 4})
	tr.Crashed = true

	for i := 0; i < 32; i++ {
		c.crashTick(tr)
	}
	assert.Len(t, tr.Cars, 1)
}

func TestDepotDwellWaitsConfiguredTicksBeforeCheckingExit(t *testing.T) {
	m := grid.NewMap(4, 4)
	tile := m.TileOf(8, 8)
	m.At(tile).Kind = grid.KindRailway
	m.At(tile).M5 = uint8(trackdir.TrackBitDiag1)

	pool, err := vehicle.NewPool()
	require.NoError(t, err)
	c := NewController(m, pool, DefaultConfig())

	tr := newTestTrain(t, m, pool, tile)
	tr.InDepot = true

	for i := uint32(0); i < c.Config.DepotDwellTicks-1; i++ {
		err := c.depotDwell(tr)
		assert.Nil(t, err)
		assert.True(t, tr.InDepot)
	}
	err2 := c.depotDwell(tr)
	assert.Nil(t, err2)
	assert.False(t, tr.InDepot)
}

func TestAgeTickAccumulatesOncePerEightDays(t *testing.T) {
	m := grid.NewMap(4, 4)
	pool, err := vehicle.NewPool()
	require.NoError(t, err)
	c := NewController(m, pool, DefaultConfig())
	tr := newTestTrain(t, m, pool, m.TileOf(8, 8))

	before := tr.AgeTicks
	c.Tick(tr, shared.Tick(8*shared.TicksPerDay))
	assert.Greater(t, tr.AgeTicks, before)
}
