package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/signal"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

type signalSegmentContext struct {
	m          *grid.Map
	tiles      []grid.TileIndex
	signalTile grid.TileIndex
	occupied   map[grid.TileIndex]bool
}

func (c *signalSegmentContext) reset() {
	c.m = nil
	c.tiles = nil
	c.signalTile = grid.TileIndex(0)
	c.occupied = make(map[grid.TileIndex]bool)
}

// a20TileHorizontalStraightRailSegmentWithATwoWaySignalAtTile builds a row
// of 20 plain TrackDiag2 tiles at y=2, x=1..20, then promotes tileIndex to
// the signalled sub-kind and installs both an east-facing (along) and a
// west-facing (against) normal signal on it.
func (c *signalSegmentContext) a20TileHorizontalStraightRailSegmentWithATwoWaySignalAtTile(idx int) error {
	c.m = grid.NewMap(5, 5) // logX=5 => width 32, enough for 20 tiles plus border
	c.tiles = make([]grid.TileIndex, 20)
	for x := 0; x < 20; x++ {
		ti := c.m.TileOf(uint32(x+1), 2)
		t := c.m.At(ti)
		t.Kind = grid.KindRailway
		t.M5 = uint8(trackdir.TrackBitDiag2)
		c.tiles[x] = ti
	}

	signalTile := c.m.At(c.tiles[idx])
	signalTile.M5 = uint8(grid.RailSubKindSignals)<<6 | uint8(trackdir.TrackBitDiag2)
	signal.AddSignal(signalTile, trackdir.TrackdirDiag2SE, signal.SignalNormal, false)
	signal.AddSignal(signalTile, trackdir.TrackdirDiag2NW, signal.SignalNormal, false)
	c.signalTile = c.tiles[idx]
	return nil
}

func (c *signalSegmentContext) noTileInTheSegmentIsOccupied() error {
	return nil
}

func (c *signalSegmentContext) tileInTheSegmentIsOccupied(idx int) error {
	c.occupied[c.tiles[idx]] = true
	return nil
}

func (c *signalSegmentContext) iUpdateTheSignalsWalkingEastFromTile(idx int) error {
	isOccupied := func(ti grid.TileIndex) bool { return c.occupied[ti] }
	signal.UpdateSignalsOnSegment(c.m, c.tiles[idx], trackdir.TrackdirDiag2SE, isOccupied)
	return nil
}

func (c *signalSegmentContext) theWestFacingSignalAtTileShouldBeGreen(idx int) error {
	t := c.m.At(c.tiles[idx])
	if !signal.IsGreen(t, trackdir.TrackdirDiag2NW) {
		return fmt.Errorf("expected the west-facing signal at tile %d to be green, it is red", idx)
	}
	return nil
}

func (c *signalSegmentContext) theWestFacingSignalAtTileShouldBeRed(idx int) error {
	t := c.m.At(c.tiles[idx])
	if signal.IsGreen(t, trackdir.TrackdirDiag2NW) {
		return fmt.Errorf("expected the west-facing signal at tile %d to be red, it is green", idx)
	}
	return nil
}

// InitializeSignalSegmentScenario registers the block-signal segment step
// definitions (spec.md §4.4/§8 scenario S1).
func InitializeSignalSegmentScenario(sc *godog.ScenarioContext) {
	c := &signalSegmentContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^a 20-tile horizontal straight rail segment with a two-way signal at tile (\d+)$`,
		c.a20TileHorizontalStraightRailSegmentWithATwoWaySignalAtTile)
	sc.Step(`^no tile in the segment is occupied$`, c.noTileInTheSegmentIsOccupied)
	sc.Step(`^tile (\d+) in the segment is occupied$`, c.tileInTheSegmentIsOccupied)
	sc.Step(`^I update the signals walking east from tile (\d+)$`, c.iUpdateTheSignalsWalkingEastFromTile)
	sc.Step(`^the west-facing signal at tile (\d+) should be green$`, c.theWestFacingSignalAtTileShouldBeGreen)
	sc.Step(`^the west-facing signal at tile (\d+) should be red$`, c.theWestFacingSignalAtTileShouldBeRed)
}
