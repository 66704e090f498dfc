package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiletransit/simcore/internal/domain/grid"
)

func TestAllocateAssignsStableIDsAboveReservedRange(t *testing.T) {
	p, err := NewPool()
	require.NoError(t, err)

	v1, ok := p.Allocate(KindTrain, grid.Owner(0), grid.TileIndex(10))
	require.True(t, ok)
	assert.GreaterOrEqual(t, v1.ID, uint32(ReservedBlocks*BlockSize))

	v2, ok := p.Allocate(KindTrain, grid.Owner(0), grid.TileIndex(11))
	require.True(t, ok)
	assert.NotEqual(t, v1.ID, v2.ID)
	assert.Equal(t, 2, p.Count())
}

func TestAllocateEffectDrawsFromReservedRange(t *testing.T) {
	p, err := NewPool()
	require.NoError(t, err)

	v, ok := p.AllocateEffect(grid.Owner(-1), grid.TileIndex(0))
	require.True(t, ok)
	assert.Less(t, v.ID, uint32(ReservedBlocks*BlockSize))
}

func TestFreeRemovesVehicleFromPool(t *testing.T) {
	p, err := NewPool()
	require.NoError(t, err)

	v, ok := p.Allocate(KindRoadVeh, grid.Owner(0), grid.TileIndex(5))
	require.True(t, ok)

	p.Free(v.ID)
	assert.Nil(t, p.Get(v.ID))
	assert.Equal(t, 0, p.Count())
}

func TestVehicleFromPosFindsNearbyVehicle(t *testing.T) {
	p, err := NewPool()
	require.NoError(t, err)

	v, ok := p.Allocate(KindTrain, grid.Owner(0), grid.TileIndex(5))
	require.True(t, ok)
	v.X, v.Y = 100, 100
	require.NoError(t, p.PositionChanged(v))

	found := p.VehicleFromPos(100, 100, func(c *Vehicle) bool { return c.ID == v.ID })
	assert.NotNil(t, found)
	assert.Equal(t, v.ID, found.ID)
}
