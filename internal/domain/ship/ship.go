// Package ship implements the ship controller (C10, water half): coarse
// diagonal/orthogonal water-track routing via NPF, dock-approach-tile
// targeting, and fuzzy buoy arrival. Grounded on the same
// `internal/application/navigation` per-tick shape C9's train controller
// and the road half of C10 reuse, simplified to water's single-lane,
// no-signal track model (spec.md §4.10).
package ship

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/pathfind/aystar"
	"github.com/tiletransit/simcore/internal/domain/pathfind/npf"
	"github.com/tiletransit/simcore/internal/domain/tilekind"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

// BuoyFuzzyRadius is the Manhattan distance within which a ship is
// considered to have reached a buoy waypoint without needing an exact
// tile match (spec.md §4.10).
const BuoyFuzzyRadius = 3

// Ship is the per-tick aggregate for one ship.
type Ship struct {
	Veh      *vehicle.Vehicle
	Trackdir trackdir.Trackdir
	DestTile grid.TileIndex
	// ApproachTile is the dock's designated one-tile-off approach point;
	// a ship routes to this tile, then steps onto the dock tile itself as
	// a final, unconditional move (the dock tile carries no track bits).
	ApproachTile grid.TileIndex
	AtDock       bool
}

// Controller drives one Ship's per-tick behaviour.
type Controller struct {
	Map  *grid.Map
	Pool *vehicle.Pool
}

// NewController builds a ship Controller over m/pool.
func NewController(m *grid.Map, pool *vehicle.Pool) *Controller {
	return &Controller{Map: m, Pool: pool}
}

// Tick advances one ship by one tick.
func (c *Controller) Tick(s *Ship) {
	if s.AtDock {
		return
	}
	if c.reachedApproach(s) {
		c.enterDock(s)
		return
	}
	c.stepTowardApproach(s)
}

func (c *Controller) reachedApproach(s *Ship) bool {
	return s.Veh.Tile == s.ApproachTile
}

func (c *Controller) enterDock(s *Ship) {
	handlers := tilekind.For(c.Map.At(s.DestTile).Kind)
	if handlers.VehicleEnter != nil {
		handlers.VehicleEnter(vehicleAdapter{s.Veh}, c.Map.At(s.DestTile), 0, 0)
	}
	s.Veh.Tile = s.DestTile
	c.Pool.PositionChanged(s.Veh)
	s.AtDock = true
}

func (c *Controller) stepTowardApproach(s *Ship) {
	status := tilekind.TrackStatusOf(c.Map.At(s.Veh.Tile), tilekind.StatusModeNormal)
	reachable := status.Trackdirs & trackdir.TrackdirReachesTrackdirs(s.Trackdir)
	if reachable == 0 {
		return
	}

	f := npf.NewFinder(c.Map, npf.ModeWater, npf.DefaultPenalties(), npf.PBSNone, false, 32, 0, 4096)
	f.Start(npf.Target{Kind: npf.TargetTile, Tile: s.ApproachTile}, aystar.Node{Tile: s.Veh.Tile, Trackdir: s.Trackdir}, nil, 0)
	if f.Run() != aystar.OutcomeFoundEnd {
		return
	}
	path := f.Path()
	if len(path) < 2 {
		return
	}
	chosen := path[1].Trackdir
	if !reachable.HasTrackdir(chosen) {
		chosen = soleTrackdir(reachable)
	}

	exit := trackdir.TrackdirToExitdir(chosen)
	dx, dy := exitDelta(exit)
	next, ok := c.Map.AddWrapped(s.Veh.Tile, dx, dy)
	if !ok {
		return
	}
	s.Veh.Tile = next
	s.Trackdir = chosen
	c.Pool.PositionChanged(s.Veh)
}

// ReachedBuoyFuzzy implements the fuzzy buoy-arrival rule: a ship may pass
// a buoy waypoint once within BuoyFuzzyRadius tiles, rather than requiring
// an exact tile match (spec.md §4.10).
func ReachedBuoyFuzzy(m *grid.Map, shipTile, buoyTile grid.TileIndex) bool {
	return m.DistanceManhattan(shipTile, buoyTile) <= BuoyFuzzyRadius
}

func soleTrackdir(b trackdir.TrackdirBits) trackdir.Trackdir {
	for td := trackdir.Trackdir(0); td < trackdir.TrackdirEnd; td++ {
		if b.HasTrackdir(td) {
			return td
		}
	}
	return trackdir.TrackdirInvalid
}

func exitDelta(d trackdir.DiagDir) (int32, int32) {
	switch d {
	case trackdir.DiagDirNE:
		return 0, -1
	case trackdir.DiagDirSE:
		return 1, 0
	case trackdir.DiagDirSW:
		return 0, 1
	case trackdir.DiagDirNW:
		return -1, 0
	}
	return 0, 0
}

type vehicleAdapter struct {
	v *vehicle.Vehicle
}

func (a vehicleAdapter) ID() uint32          { return a.v.ID }
func (a vehicleAdapter) OwnerID() grid.Owner { return a.v.Owner }
