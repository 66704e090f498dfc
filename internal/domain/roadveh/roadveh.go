// Package roadveh implements the road vehicle controller (C10, road
// half): per-tile sub-coordinate frame stepping, multi-stop slot
// reservation, overtaking, and a deadlock-avoidance drive-through rule.
// Grounded on the teacher's `internal/application/navigation` per-tick
// orchestration, the same shape C9's train controller reuses, simplified
// here to match spec.md §4.10's smaller road-vehicle state machine.
package roadveh

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/pathfind/aystar"
	"github.com/tiletransit/simcore/internal/domain/pathfind/npf"
	"github.com/tiletransit/simcore/internal/domain/tilekind"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

// State tags which phase of the drive-data frame table a vehicle is in.
type State uint8

const (
	StateOnRoad State = iota
	StateEnteringTile
	StateTurningAround
	StateAtStationFrame
	StateInDepot
)

// StopSlot is one of the two reservable positions at a multi-stop truck
// station.
type StopSlot struct {
	StationTile grid.TileIndex
	SlotIndex   uint8 // 0 or 1
	AgeDays     uint16
}

// SlotMaxAgeDays is how long a reserved slot may go unvisited before it
// expires and forces re-selection (spec.md §4.10).
const SlotMaxAgeDays = 5

// OvertakeTicks is how long an overtaking manoeuvre latches for once
// started (spec.md §4.10).
const OvertakeTicks = 35

// DeadlockTicks is how long a road vehicle waits on the same obstacle
// before driving through it regardless (spec.md §4.10).
const DeadlockTicks = 1480

// RoadVehicle is the per-tick aggregate for one road vehicle.
type RoadVehicle struct {
	Veh   *vehicle.Vehicle
	Trackdir trackdir.Trackdir
	State State

	Slot       *StopSlot
	Overtaking bool
	OvertakeCtr uint16

	BlockedByID uint32
	BlockedTicks uint32

	DestTile grid.TileIndex
}

// Controller drives one RoadVehicle's per-tick behaviour.
type Controller struct {
	Map  *grid.Map
	Pool *vehicle.Pool
}

// NewController builds a road vehicle Controller over m/pool.
func NewController(m *grid.Map, pool *vehicle.Pool) *Controller {
	return &Controller{Map: m, Pool: pool}
}

// Tick advances one road vehicle by one tick.
func (c *Controller) Tick(rv *RoadVehicle) {
	if rv.State == StateInDepot {
		return
	}
	c.maybeStartOvertake(rv)
	c.stepFrame(rv)
}

// maybeStartOvertake latches the overtaking flag when a slower vehicle
// blocks the same straight two-lane segment (track bits == 3, no
// junctions), per spec.md §4.10.
func (c *Controller) maybeStartOvertake(rv *RoadVehicle) {
	if rv.Overtaking {
		rv.OvertakeCtr++
		if rv.OvertakeCtr >= OvertakeTicks || !c.isStraightTwoLane(rv.Veh.Tile) {
			rv.Overtaking = false
			rv.OvertakeCtr = 0
		}
		return
	}
	blocker := c.Pool.VehicleFromPos(rv.Veh.X, rv.Veh.Y, func(v *vehicle.Vehicle) bool {
		return v.Kind == vehicle.KindRoadVeh && v.ID != rv.Veh.ID
	})
	if blocker != nil && c.isStraightTwoLane(rv.Veh.Tile) {
		rv.Overtaking = true
		rv.OvertakeCtr = 0
	}
}

func (c *Controller) isStraightTwoLane(tile grid.TileIndex) bool {
	t := c.Map.At(tile)
	b := t.M5 & 0xF
	return t.Kind == grid.KindStreet && (b == 0x5 || b == 0xA) // NW+SE or SW+NE pair only, no branch bits
}

// stepFrame advances the vehicle's frame along its current tile, crossing
// into the next tile once the frame table is exhausted, honouring the
// deadlock-avoidance drive-through rule.
func (c *Controller) stepFrame(rv *RoadVehicle) {
	status := tilekind.TrackStatusOf(c.Map.At(rv.Veh.Tile), tilekind.StatusModeNormal)
	reachable := status.Trackdirs & trackdir.TrackdirReachesTrackdirs(rv.Trackdir)
	if reachable == 0 {
		rv.State = StateTurningAround
		rv.Trackdir = trackdir.ReverseTrackdir(rv.Trackdir)
		return
	}

	blocked := c.Pool.VehicleFromPos(rv.Veh.X, rv.Veh.Y, func(v *vehicle.Vehicle) bool {
		return v.ID != rv.Veh.ID && v.Kind == vehicle.KindRoadVeh
	})
	if blocked != nil {
		if rv.BlockedByID == blocked.ID {
			rv.BlockedTicks++
		} else {
			rv.BlockedByID = blocked.ID
			rv.BlockedTicks = 1
		}
		if rv.BlockedTicks < DeadlockTicks {
			return
		}
	} else {
		rv.BlockedTicks = 0
	}

	chosen := soleOrChoose(c, rv, reachable)
	exit := trackdir.TrackdirToExitdir(chosen)
	dx, dy := exitDelta(exit)
	next, ok := c.Map.AddWrapped(rv.Veh.Tile, dx, dy)
	if !ok {
		return
	}
	rv.Veh.Tile = next
	rv.Trackdir = chosen
	rv.State = StateOnRoad
	c.Pool.PositionChanged(rv.Veh)

	handlers := tilekind.For(c.Map.At(next).Kind)
	if handlers.VehicleEnter != nil {
		handlers.VehicleEnter(vehicleAdapter{rv.Veh}, c.Map.At(next), 0, 0)
	}
}

type vehicleAdapter struct {
	v *vehicle.Vehicle
}

func (a vehicleAdapter) ID() uint32          { return a.v.ID }
func (a vehicleAdapter) OwnerID() grid.Owner { return a.v.Owner }

func soleOrChoose(c *Controller, rv *RoadVehicle, reachable trackdir.TrackdirBits) trackdir.Trackdir {
	n := 0
	var only trackdir.Trackdir
	for td := trackdir.Trackdir(0); td < trackdir.TrackdirEnd; td++ {
		if reachable.HasTrackdir(td) {
			n++
			only = td
		}
	}
	if n == 1 {
		return only
	}
	f := npf.NewFinder(c.Map, npf.ModeRoad, npf.DefaultPenalties(), npf.PBSNone, false, 32, 0, 2048)
	f.Start(npf.Target{Kind: npf.TargetTile, Tile: rv.DestTile}, aystar.Node{Tile: rv.Veh.Tile, Trackdir: rv.Trackdir}, nil, 0)
	if f.Run() == aystar.OutcomeFoundEnd {
		path := f.Path()
		if len(path) > 1 && reachable.HasTrackdir(path[1].Trackdir) {
			return path[1].Trackdir
		}
	}
	return only
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

// AssignStopSlot implements the multi-stop slot reservation daily loop:
// pick the nearest station stop with a free slot, falling back to the
// first stop if all are busy, per spec.md §4.10.
func AssignStopSlot(m *grid.Map, stops []grid.TileIndex, busy func(tile grid.TileIndex, slot uint8) bool, from grid.TileIndex) StopSlot {
	bestDist := int32(1 << 30)
	best := StopSlot{StationTile: stops[0], SlotIndex: 0}
	for _, stop := range stops {
		for slot := uint8(0); slot < 2; slot++ {
			if busy(stop, slot) {
				continue
			}
			d := m.DistanceManhattan(from, stop)
			if d < bestDist {
				bestDist = d
				best = StopSlot{StationTile: stop, SlotIndex: slot}
			}
		}
	}
	return best
}

// SlotExpired reports whether a reserved slot has gone unvisited long
// enough to force re-selection.
func SlotExpired(s StopSlot) bool { return s.AgeDays > SlotMaxAgeDays }
