package ship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

func TestShipEntersDockOnceApproachReached(t *testing.T) {
	m := grid.NewMap(4, 4)
	pool, err := vehicle.NewPool()
	require.NoError(t, err)
	c := NewController(m, pool)

	approach := m.TileOf(5, 5)
	dock := m.TileOf(6, 5)
	v, ok := pool.Allocate(vehicle.KindShip, grid.Owner(0), approach)
	require.True(t, ok)
	v.Tile = approach

	s := &Ship{Veh: v, ApproachTile: approach, DestTile: dock}
	c.Tick(s)
	assert.True(t, s.AtDock)
	assert.Equal(t, dock, s.Veh.Tile)
}

func TestReachedBuoyFuzzyWithinRadius(t *testing.T) {
	m := grid.NewMap(4, 4)
	center := m.TileOf(8, 8)
	near := m.TileOf(9, 9)
	far := m.TileOf(12, 12)
	assert.True(t, ReachedBuoyFuzzy(m, near, center))
	assert.False(t, ReachedBuoyFuzzy(m, far, center))
}
