package follower

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

func TestFollowTrackWalksStraightLineAndStopsAtDeadEnd(t *testing.T) {
	m := grid.NewMap(4, 4)
	start := m.TileOf(8, 8)
	const length = 3
	for i := 0; i < length; i++ {
		tt, ok := m.AddWrapped(start, 0, -int32(i))
		assert.True(t, ok)
		m.At(tt).Kind = grid.KindRailway
		m.At(tt).M5 = uint8(trackdir.TrackBitDiag1)
	}

	res := FollowTrack(m, start, trackdir.TrackdirDiag1NE, false)

	assert.Len(t, res.Steps, length-1)
	last := res.Steps[len(res.Steps)-1]
	wantLast, _ := m.AddWrapped(start, 0, -int32(length-1))
	assert.Equal(t, wantLast, last.Tile)
}

func TestFollowTrackStopsImmediatelyWithNoContinuation(t *testing.T) {
	m := grid.NewMap(4, 4)
	start := m.TileOf(8, 8)
	m.At(start).Kind = grid.KindRailway
	m.At(start).M5 = uint8(trackdir.TrackBitDiag1)

	res := FollowTrack(m, start, trackdir.TrackdirDiag1NE, false)
	assert.Empty(t, res.Steps)
}
