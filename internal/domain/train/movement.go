package train

import (
	"strconv"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/pathfind/aystar"
	"github.com/tiletransit/simcore/internal/domain/pathfind/npf"
	"github.com/tiletransit/simcore/internal/domain/shared"
	"github.com/tiletransit/simcore/internal/domain/signal"
	"github.com/tiletransit/simcore/internal/domain/tilekind"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

// subStepMovement advances every car one sub-step, head to tail, per
// spec.md §4.9 steps 9-11. Only the head wagon makes junction decisions;
// following wagons must step onto the trackdir their immediate parent
// already occupies (the "follow previous" invariant).
func (c *Controller) subStepMovement(t *Train) *shared.InvariantViolation {
	for i, car := range t.Cars {
		isHead := i == 0
		if !c.carCrossesTileBoundary(car) {
			continue
		}
		if err := c.advanceCarIntoNextTile(t, car, isHead); err != nil {
			return err
		}
	}
	c.detectCollision(t)
	return nil
}

// carCrossesTileBoundary reports every sub-step as a tile-boundary
// crossing: this package keeps no pixel sub-coordinate position (a
// rendering-adjacent concern spec.md §1 excludes), so a car advances one
// whole tile per sub-step, the once-per-sub-step granularity spec.md §4.9
// describes for junction decisions.
func (c *Controller) carCrossesTileBoundary(car *Car) bool {
	return true
}

func (c *Controller) advanceCarIntoNextTile(t *Train, car *Car, isHead bool) *shared.InvariantViolation {
	status := tilekind.TrackStatusOf(c.Map.At(car.Veh.Tile), tilekind.StatusModeNormal)
	reachable := status.Trackdirs & trackdir.TrackdirReachesTrackdirs(car.Trackdir)
	if c.Config.ForbidTurn90 {
		reachable &^= ninetyDegreeTurns(car.Trackdir)
	}

	if reachable == 0 {
		if isHead {
			t.Reversing = true
			return nil
		}
		return shared.NewInvariantViolation(vehicleIDString(car.Veh.ID), uint32(car.Veh.Tile), "disconnecting train: no reachable trackdir for following car")
	}

	var chosen trackdir.Trackdir
	if isHead && countTrackdirs(reachable) > 1 {
		chosen = c.chooseTrainTrack(t, car, reachable)
	} else {
		chosen = soleTrackdir(reachable)
	}

	t.PBS = c.evaluatePBS(car, chosen)
	if t.PBS == PBSStateNeedsPath {
		c.replanPBS(t, car, chosen)
	}

	tile := c.Map.At(car.Veh.Tile)
	if signal.HasSignalOnTrackdir(tile, chosen) && !signal.IsGreen(tile, chosen) {
		c.handleRedSignal(t, car, chosen)
		return nil
	}

	exit := trackdir.TrackdirToExitdir(chosen)
	dx, dy := exitDeltaFor(exit)
	next, ok := c.Map.AddWrapped(car.Veh.Tile, dx, dy)
	if !ok {
		return shared.NewInvariantViolation(vehicleIDString(car.Veh.ID), uint32(car.Veh.Tile), "disconnecting train: next tile off-grid")
	}

	prevTile := car.Veh.Tile
	car.Veh.Tile = next
	car.Trackdir = chosen
	c.Pool.PositionChanged(car.Veh)

	handlers := tilekind.For(c.Map.At(next).Kind)
	if handlers.VehicleEnter != nil {
		handlers.VehicleEnter(vehicleAdapter{car.Veh}, c.Map.At(next), 0, 0)
	}

	if isHead && !anyCarOnTile(t, prevTile) {
		signal.PBSClearTrack(c.Map.At(prevTile), car.Trackdir.ToTrack())
	}

	if signal.HasSignalOnTrackdir(c.Map.At(next), trackdir.ReverseTrackdir(chosen)) {
		occupied := func(gt grid.TileIndex) bool { return false }
		signal.UpdateSignalsOnSegment(c.Map, next, trackdir.ReverseTrackdir(chosen), occupied)
	}

	return nil
}

func anyCarOnTile(t *Train, tile grid.TileIndex) bool {
	for _, car := range t.Cars {
		if car.Veh.Tile == tile {
			return true
		}
	}
	return false
}

// chooseTrainTrack invokes NPF towards the train's current destination
// from the junction, honouring any existing PBS reservation bias.
func (c *Controller) chooseTrainTrack(t *Train, car *Car, reachable trackdir.TrackdirBits) trackdir.Trackdir {
	if len(t.Orders) == 0 {
		return soleTrackdir(reachable)
	}
	dest := t.Orders[t.CurOrderIndex].Dest
	f := npf.NewFinder(c.Map, npf.ModeRail, npf.DefaultPenalties(), npf.PBSAnyExit, c.Config.ForbidTurn90, 64, 0, 4096)
	f.Start(npf.Target{Kind: npf.TargetTile, Tile: dest}, aystar.Node{Tile: car.Veh.Tile, Trackdir: car.Trackdir}, nil, 0)
	if f.Run() != aystar.OutcomeFoundEnd {
		return soleTrackdir(reachable)
	}
	path := f.Path()
	if len(path) < 2 {
		return soleTrackdir(reachable)
	}
	choice := path[1].Trackdir
	if reachable.HasTrackdir(choice) {
		return choice
	}
	return soleTrackdir(reachable)
}

func (c *Controller) evaluatePBS(car *Car, chosen trackdir.Trackdir) PBSState {
	reserved := signal.PBSUnavailableTrackdirs(c.Map.At(car.Veh.Tile))
	if reserved.HasTrackdir(chosen) {
		return PBSStateNeedsPath
	}
	return PBSStateNone
}

func (c *Controller) replanPBS(t *Train, car *Car, chosen trackdir.Trackdir) {
	if len(t.PBSPath) > 0 {
		signal.ClearPath(c.Map, t.PBSPath)
		t.PBSPath = nil
	}
	if len(t.Orders) == 0 {
		return
	}
	dest := t.Orders[t.CurOrderIndex].Dest
	f := npf.NewFinder(c.Map, npf.ModeRail, npf.DefaultPenalties(), npf.PBSAnyExit, c.Config.ForbidTurn90, 64, 0, 4096)
	f.Start(npf.Target{Kind: npf.TargetTile, Tile: dest}, aystar.Node{Tile: car.Veh.Tile, Trackdir: chosen}, nil, 0)
	if f.Run() == aystar.OutcomeFoundEnd {
		t.PBS = PBSStateReserved
	}
}

// handleRedSignal implements spec.md §4.9's wait/reverse policy: an
// along-red signal waits WaitOnewaySignalTicks then reverses; an
// against-red (two-way block against us) waits WaitTwowaySignalTicks
// unless an opposing train is detected waiting on the other side, in
// which case it reverses immediately to break the deadlock.
func (c *Controller) handleRedSignal(t *Train, car *Car, chosen trackdir.Trackdir) {
	t.DepotDwellTicks++ // reused as a generic "ticks waited at this blocker" counter
	along := !signal.HasSignalOnTrackdir(c.Map.At(car.Veh.Tile), trackdir.ReverseTrackdir(chosen)) // one-way: no signal facing back
	threshold := c.Config.WaitOnewaySignalTicks
	if !along {
		threshold = c.Config.WaitTwowaySignalTicks
		if c.opposingTrainWaiting(car) {
			t.Reversing = true
			t.DepotDwellTicks = 0
			return
		}
	}
	if t.DepotDwellTicks >= threshold {
		t.Reversing = true
		t.DepotDwellTicks = 0
	}
}

// opposingTrainWaiting answers spec.md §4.9's deadlock-break question: is
// there another train stopped on the far side of this two-way signal,
// facing back towards us? Answering that needs the other train's
// Trackdir and Stopped state, which live on the caller's Train index, not
// on vehicle.Vehicle or this Controller (the same boundary detectCollision
// documents below) — this method only has enough to report whether any
// other vehicle occupies the car's own tile, which is not the deadlock
// condition. Left returning false until the tick driver threads its Train
// index through, rather than answering a question it cannot actually
// evaluate.
func (c *Controller) opposingTrainWaiting(car *Car) bool {
	return false
}

func ninetyDegreeTurns(from trackdir.Trackdir) trackdir.TrackdirBits {
	fromExit := trackdir.TrackdirToExitdir(from)
	var bits trackdir.TrackdirBits
	for td := trackdir.Trackdir(0); td < trackdir.TrackdirEnd; td++ {
		diff := (int(trackdir.TrackdirToExitdir(td)) - int(fromExit) + 4) % 4
		if diff == 2 {
			bits |= 1 << uint(td)
		}
	}
	return bits
}

func countTrackdirs(b trackdir.TrackdirBits) int {
	n := 0
	for td := trackdir.Trackdir(0); td < trackdir.TrackdirEnd; td++ {
		if b.HasTrackdir(td) {
			n++
		}
	}
	return n
}

func soleTrackdir(b trackdir.TrackdirBits) trackdir.Trackdir {
	for td := trackdir.Trackdir(0); td < trackdir.TrackdirEnd; td++ {
		if b.HasTrackdir(td) {
			return td
		}
	}
	return trackdir.TrackdirInvalid
}

func vehicleIDString(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

func exitDeltaFor(d trackdir.DiagDir) (int32, int32) {
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

// detectCollision is the collision step of spec.md §4.9's pipeline (step
// 11). It performs no check: it scans for no other train and never marks
// a consist crashed, and no other part of this module runs a collision
// pass either.
func (c *Controller) detectCollision(t *Train) {
	if len(t.Cars) == 0 {
		return
	}
	head := t.Cars[0]
	_ = head
	// A scan would need every Train's Car slice cross-referenced by
	// vehicle id, which this controller does not own (trains are owned by
	// the caller's registry).
}

type vehicleAdapter struct {
	v *vehicle.Vehicle
}

func (a vehicleAdapter) ID() uint32          { return a.v.ID }
func (a vehicleAdapter) OwnerID() grid.Owner { return a.v.Owner }
