package npf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/pathfind/aystar"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

func straightRailLine(m *grid.Map, from grid.TileIndex, n int) grid.TileIndex {
	last := from
	for i := 0; i < n; i++ {
		tt, _ := m.AddWrapped(from, 0, -int32(i))
		m.At(tt).Kind = grid.KindRailway
		m.At(tt).M5 = uint8(trackdir.TrackBitDiag1)
		last = tt
	}
	return last
}

func TestFinderRoutesRailStraightLine(t *testing.T) {
	m := grid.NewMap(4, 4)
	start := m.TileOf(8, 8)
	end := straightRailLine(m, start, 5)

	f := NewFinder(m, ModeRail, DefaultPenalties(), PBSNone, false, 0, 0, 1000)
	f.Start(Target{Kind: TargetTile, Tile: end}, aystar.Node{Tile: start, Trackdir: trackdir.TrackdirDiag1NE}, nil, 0)

	outcome := f.Run()
	assert.Equal(t, aystar.OutcomeFoundEnd, outcome)
	path := f.Path()
	assert.NotEmpty(t, path)
	assert.Equal(t, end, path[len(path)-1].Tile)
}

func TestFinderNoPathWhenDisconnected(t *testing.T) {
	m := grid.NewMap(4, 4)
	start := m.TileOf(8, 8)
	m.At(start).Kind = grid.KindRailway
	m.At(start).M5 = uint8(trackdir.TrackBitDiag1)
	missing := m.TileOf(2, 2)

	f := NewFinder(m, ModeRail, DefaultPenalties(), PBSNone, false, 0, 0, 200)
	f.Start(Target{Kind: TargetTile, Tile: missing}, aystar.Node{Tile: start, Trackdir: trackdir.TrackdirDiag1NE}, nil, 0)

	assert.Equal(t, aystar.OutcomeNoPath, f.Run())
}
