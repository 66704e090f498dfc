package tilekind

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

func TestTrackStatusPackLayout(t *testing.T) {
	s := TrackStatus{
		Trackdirs:    trackdir.TrackdirBits(0x00FF),
		SignalStates: trackdir.TrackdirBits(0x0F0F),
	}
	got := s.Pack()
	assert.Equal(t, uint32(0x0F0F)<<16|uint32(0x00FF), got)
}

func TestEnterResultStationIDShift(t *testing.T) {
	r := EnterResult(42<<StationIDShift | uint32(EnterResultEnteredStation))
	assert.Equal(t, uint32(42), r.StationID())
}

func TestForReturnsZeroValueForUnregisteredKind(t *testing.T) {
	h := For(grid.KindHouse)
	assert.Nil(t, h.TrackStatus)
	assert.Nil(t, h.VehicleEnter)
}

func TestForReturnsRegisteredRailHandlers(t *testing.T) {
	h := For(grid.KindRailway)
	assert.NotNil(t, h.TrackStatus)
	assert.NotNil(t, h.ClearCost)
}

func TestTrackStatusOfPlainRailExposesItsTrackBits(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindRailway}
	tile.M5 = uint8(trackdir.TrackBitDiag1)
	status := TrackStatusOf(tile, StatusModeNormal)
	want := trackdir.TrackBitsToTrackdirBits(trackdir.TrackBitDiag1)
	assert.Equal(t, want, status.Trackdirs)
	assert.Equal(t, want, status.SignalStates, "plain rail has no signal, so both directions read green")
}

func TestTrackStatusOfSignalledRailRedBlocksOneDirection(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindRailway}
	tile.M5 = uint8(grid.RailSubKindSignals)<<6 | uint8(trackdir.TrackBitDiag1)

	along := trackdir.TrackDiag1.ToTrackdir()
	against := trackdir.ReverseTrackdir(along)

	presenceBit := uint8(1) // slot 0, along
	tile.M3 = presenceBit << 4
	// state nibble left at zero: the signal is red.

	status := TrackStatusOf(tile, StatusModeNormal)
	assert.False(t, status.SignalStates.HasTrackdir(along), "red signal should not report green along its own direction")
	assert.True(t, status.SignalStates.HasTrackdir(against), "the opposite direction carries no signal and reads green")
}

func TestTrackStatusOfUnregisteredKindIsEmpty(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindHouse}
	status := TrackStatusOf(tile, StatusModeNormal)
	assert.Equal(t, trackdir.TrackdirBits(0), status.Trackdirs)
}

func TestTrackStatusOfRoadCrossingBlockedWithLightsOn(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindStreet}
	// roadSubKindCrossing == 1, axis bit 0 (DIAG1), lights-on bit set.
	tile.M5 = uint8(1)<<4 | 1<<2

	blocked := TrackStatusOf(tile, StatusModeNoLevelCrossing)
	assert.Equal(t, trackdir.TrackdirBits(0), blocked.Trackdirs, "a lit crossing must be impassable in no-level-crossing mode")

	open := TrackStatusOf(tile, StatusModeNormal)
	assert.NotEqual(t, trackdir.TrackdirBits(0), open.Trackdirs, "normal mode ignores the crossing lights")
}

func TestTrackStatusOfWaterOffersEveryTrack(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindWater}
	status := TrackStatusOf(tile, StatusModeNormal)
	want := trackdir.TrackBitsToTrackdirBits(trackdir.TrackBitAll)
	assert.Equal(t, want, status.Trackdirs)
}

func TestIsBuoyReadsM3Bit0(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindWater}
	assert.False(t, IsBuoy(tile))
	tile.M3 = 0x1
	assert.True(t, IsBuoy(tile))
}

func TestRailClearCostRequiresTrackRemovedFirst(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindRailway}
	tile.M5 = uint8(trackdir.TrackBitDiag1)
	_, err := railClearCost(tile, false)
	assert.NotNil(t, err)

	tile.M5 = 0
	cost, err := railClearCost(tile, true)
	assert.Nil(t, err)
	assert.Equal(t, int64(40), cost)
	assert.Equal(t, grid.KindClear, tile.Kind)
}
