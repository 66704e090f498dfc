package aystar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// linearGraphHooks builds a trivial 1-D graph 0 -> 1 -> 2 -> ... -> goal,
// used to exercise the open/closed bookkeeping without depending on grid
// track semantics.
func linearGraphHooks(goal grid.TileIndex) Hooks {
	return Hooks{
		CalculateG: func(current, parent Node) (int64, bool) { return 1, true },
		CalculateH: func(current, parent Node) int64 {
			if current.Tile > goal {
				return int64(current.Tile - goal)
			}
			return int64(goal - current.Tile)
		},
		GetNeighbours: func(current Node) []Node {
			if current.Tile >= goal {
				return nil
			}
			return []Node{{Tile: current.Tile + 1, Trackdir: trackdir.TrackdirDiag1NE}}
		},
		EndNodeCheck: func(current Node) bool { return current.Tile == goal },
	}
}

func TestEngineFindsShortestLinearPath(t *testing.T) {
	goal := grid.TileIndex(5)
	e := NewEngine(linearGraphHooks(goal), 0, 0, 100)
	e.Reset(Node{Tile: 0, Trackdir: trackdir.TrackdirDiag1NE})

	outcome := e.Run()
	assert.Equal(t, OutcomeFoundEnd, outcome)
	assert.Equal(t, goal, e.FoundNode().Tile)
	assert.Len(t, e.Path(), 6) // tiles 0..5 inclusive
	assert.Equal(t, grid.TileIndex(0), e.Path()[0].Tile)
	assert.Equal(t, goal, e.Path()[len(e.Path())-1].Tile)
}

func TestEngineResumesAcrossLoopsPerTick(t *testing.T) {
	goal := grid.TileIndex(10)
	e := NewEngine(linearGraphHooks(goal), 2, 0, 100)
	e.Reset(Node{Tile: 0, Trackdir: trackdir.TrackdirDiag1NE})

	busyCount := 0
	for {
		outcome := e.Run()
		if outcome == OutcomeFoundEnd {
			break
		}
		assert.Equal(t, OutcomeStillBusy, outcome)
		busyCount++
		if busyCount > 20 {
			t.Fatal("search never converged")
		}
	}
	assert.Equal(t, goal, e.FoundNode().Tile)
}

func TestEngineReportsNoPath(t *testing.T) {
	hooks := Hooks{
		CalculateG:    func(current, parent Node) (int64, bool) { return 1, true },
		CalculateH:    func(current, parent Node) int64 { return 0 },
		GetNeighbours: func(current Node) []Node { return nil },
		EndNodeCheck:  func(current Node) bool { return false },
	}
	e := NewEngine(hooks, 0, 0, 100)
	e.Reset(Node{Tile: 0})
	assert.Equal(t, OutcomeNoPath, e.Run())
}

func TestEngineReportsLimitReached(t *testing.T) {
	goal := grid.TileIndex(1000)
	e := NewEngine(linearGraphHooks(goal), 0, 0, 3)
	e.Reset(Node{Tile: 0, Trackdir: trackdir.TrackdirDiag1NE})
	assert.Equal(t, OutcomeLimitReached, e.Run())
}
