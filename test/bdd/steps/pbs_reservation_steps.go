package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cucumber/godog"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/signal"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

type pbsReservationContext struct {
	m        *grid.Map
	tile     grid.TileIndex
	tile2    grid.TileIndex
	lastOK   bool
	pathOK   bool
}

func (c *pbsReservationContext) reset() {
	c.m = grid.NewMap(4, 4)
	c.tile = c.m.TileOf(2, 2)
	c.tile2 = c.m.TileOf(3, 2)
	c.lastOK = true
	c.pathOK = false
}

func (c *pbsReservationContext) aPlainRailTile() error {
	t := c.m.At(c.tile)
	t.Kind = grid.KindRailway
	t.M5 = uint8(trackdir.TrackBitAll)
	return nil
}

func (c *pbsReservationContext) aTwoTileRailPathWithTheSecondTilesTrackAlreadyReserved(trackName string) error {
	for _, idx := range []grid.TileIndex{c.tile, c.tile2} {
		t := c.m.At(idx)
		t.Kind = grid.KindRailway
		t.M5 = uint8(trackdir.TrackBitAll)
	}
	tr := trackByName[trackName]
	if !signal.PBSReserveTrack(c.m.At(c.tile2), tr) {
		return fmt.Errorf("setup: could not pre-reserve track %s on the second tile", trackName)
	}
	return nil
}

func (c *pbsReservationContext) iReserveTrack(name string) error {
	tr, ok := trackByName[name]
	if !ok {
		return fmt.Errorf("unknown track %q", name)
	}
	c.lastOK = signal.PBSReserveTrack(c.m.At(c.tile), tr)
	if !c.lastOK {
		return fmt.Errorf("reservation of track %s was rejected", name)
	}
	return nil
}

func (c *pbsReservationContext) iTryToReserveTrack(name string) error {
	tr, ok := trackByName[name]
	if !ok {
		return fmt.Errorf("unknown track %q", name)
	}
	c.lastOK = signal.PBSReserveTrack(c.m.At(c.tile), tr)
	return nil
}

func (c *pbsReservationContext) iClearTrack(name string) error {
	tr, ok := trackByName[name]
	if !ok {
		return fmt.Errorf("unknown track %q", name)
	}
	signal.PBSClearTrack(c.m.At(c.tile), tr)
	return nil
}

func (c *pbsReservationContext) iReserveAPathOverTrackOnBothTiles(name string) error {
	tr, ok := trackByName[name]
	if !ok {
		return fmt.Errorf("unknown track %q", name)
	}
	path := []signal.PathStep{
		{Tile: c.tile, Track: tr},
		{Tile: c.tile2, Track: tr},
	}
	c.pathOK = signal.ReservePath(c.m, path)
	return nil
}

func (c *pbsReservationContext) theReservationAttemptShouldBeRejected() error {
	if c.lastOK {
		return fmt.Errorf("expected the reservation attempt to be rejected, but it succeeded")
	}
	return nil
}

func (c *pbsReservationContext) thePathReservationShouldFail() error {
	if c.pathOK {
		return fmt.Errorf("expected the path reservation to fail, but it succeeded")
	}
	return nil
}

func (c *pbsReservationContext) theFirstTileShouldHaveNoReservedTracks() error {
	if got := signal.PBSReserved(c.m.At(c.tile)); got != trackdir.TrackBitNone {
		return fmt.Errorf("expected no reserved tracks on the first tile, got %v", got.Tracks())
	}
	return nil
}

func (c *pbsReservationContext) theTilesReservedTracksShouldBe(namesCSV string) error {
	want := strings.Split(namesCSV, ",")
	sort.Strings(want)

	var gotNames []string
	for _, tr := range signal.PBSReserved(c.m.At(c.tile)).Tracks() {
		gotNames = append(gotNames, tr.String())
	}
	sort.Strings(gotNames)

	if namesCSV == "" {
		want = nil
	}
	if len(gotNames) != len(want) {
		return fmt.Errorf("reserved tracks = %v, want %v", gotNames, want)
	}
	for i := range want {
		if gotNames[i] != want[i] {
			return fmt.Errorf("reserved tracks = %v, want %v", gotNames, want)
		}
	}
	return nil
}

func (c *pbsReservationContext) theUnavailableTrackdirsShouldIncludeBothDirectionsOfTrack(name string) error {
	tr, ok := trackByName[name]
	if !ok {
		return fmt.Errorf("unknown track %q", name)
	}
	unavail := signal.PBSUnavailableTrackdirs(c.m.At(c.tile))
	along := tr.ToTrackdir()
	against := trackdir.ReverseTrackdir(along)
	if !unavail.HasTrackdir(along) || !unavail.HasTrackdir(against) {
		return fmt.Errorf("expected both directions of %s unavailable, got bits %x", name, unavail)
	}
	return nil
}

// InitializePBSReservationScenario registers the PBS reservation step
// definitions (spec.md §4.4/§8 property 2).
func InitializePBSReservationScenario(sc *godog.ScenarioContext) {
	c := &pbsReservationContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^a plain rail tile$`, c.aPlainRailTile)
	sc.Step(`^a two-tile rail path with the second tile's track "([^"]*)" already reserved$`,
		c.aTwoTileRailPathWithTheSecondTilesTrackAlreadyReserved)
	sc.Step(`^I reserve track "([^"]*)"$`, c.iReserveTrack)
	sc.Step(`^I try to reserve track "([^"]*)"$`, c.iTryToReserveTrack)
	sc.Step(`^I clear track "([^"]*)"$`, c.iClearTrack)
	sc.Step(`^I reserve a path over track "([^"]*)" on both tiles$`, c.iReserveAPathOverTrackOnBothTiles)
	sc.Step(`^the reservation attempt should be rejected$`, c.theReservationAttemptShouldBeRejected)
	sc.Step(`^the path reservation should fail$`, c.thePathReservationShouldFail)
	sc.Step(`^the first tile should have no reserved tracks$`, c.theFirstTileShouldHaveNoReservedTracks)
	sc.Step(`^the tile's reserved tracks should be "([^"]*)"$`, c.theTilesReservedTracksShouldBe)
	sc.Step(`^the unavailable trackdirs should include both directions of track "([^"]*)"$`,
		c.theUnavailableTrackdirsShouldIncludeBothDirectionsOfTrack)
}
