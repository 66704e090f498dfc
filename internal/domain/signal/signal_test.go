package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

func TestPBSReserveAndClearRoundTrip(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindRailway}
	ok := PBSReserveTrack(tile, trackdir.TrackUpper)
	assert.True(t, ok)
	assert.True(t, PBSReserved(tile).HasTrack(trackdir.TrackUpper))

	PBSClearTrack(tile, trackdir.TrackUpper)
	assert.Equal(t, trackdir.TrackBitNone, PBSReserved(tile))
}

func TestPBSReserveParallelTracksAllowed(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindRailway}
	assert.True(t, PBSReserveTrack(tile, trackdir.TrackUpper))
	assert.True(t, PBSReserveTrack(tile, trackdir.TrackLower))
	bits := PBSReserved(tile)
	assert.True(t, bits.HasTrack(trackdir.TrackUpper))
	assert.True(t, bits.HasTrack(trackdir.TrackLower))
}

func TestPBSReserveConflictingTrackRejected(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindRailway}
	assert.True(t, PBSReserveTrack(tile, trackdir.TrackUpper))
	assert.False(t, PBSReserveTrack(tile, trackdir.TrackDiag1))
}

func TestSetGreenIsPerTrackdir(t *testing.T) {
	tile := &grid.Tile{Kind: grid.KindRailway}
	td := trackdir.TrackUpper.ToTrackdir()
	SetGreen(tile, td, true)
	assert.True(t, IsGreen(tile, td))
	assert.False(t, IsGreen(tile, trackdir.TrackLower.ToTrackdir()))
}

func TestReservePathAllOrNothing(t *testing.T) {
	m := grid.NewMap(3, 3)
	a, _ := m.AddWrapped(m.TileOf(2, 2), 0, 0)
	b, _ := m.AddWrapped(a, 1, 0)
	m.At(a).Kind = grid.KindRailway
	m.At(b).Kind = grid.KindRailway

	path := []PathStep{{Tile: a, Track: trackdir.TrackDiag1}, {Tile: b, Track: trackdir.TrackDiag1}}
	assert.True(t, ReservePath(m, path))
	assert.True(t, PBSReserved(m.At(a)).HasTrack(trackdir.TrackDiag1))
	assert.True(t, PBSReserved(m.At(b)).HasTrack(trackdir.TrackDiag1))

	ClearPath(m, path)
	assert.Equal(t, trackdir.TrackBitNone, PBSReserved(m.At(a)))
	assert.Equal(t, trackdir.TrackBitNone, PBSReserved(m.At(b)))
}
