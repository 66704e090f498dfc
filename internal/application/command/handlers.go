package command

import (
	"context"

	"github.com/tiletransit/simcore/internal/application/simcontext"
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/roadveh"
	"github.com/tiletransit/simcore/internal/domain/ship"
	"github.com/tiletransit/simcore/internal/domain/shared"
	"github.com/tiletransit/simcore/internal/domain/signal"
	"github.com/tiletransit/simcore/internal/domain/train"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

// Per-tile/vehicle costs. The source engine tables these per railtype and
// vehicle catalogue entry; this core's scope (spec.md §1 Non-goals: no
// economy/finance) only needs stable relative costs to exercise the
// QueryCost/Exec contract, not a balanced economy.
const (
	costBuildRail    Cost = 100
	costRemoveRail   Cost = 20
	costBuildSignal  Cost = 400
	costRemoveSignal Cost = 50
	costBuildDepot   Cost = 5000
	costBuildRoad    Cost = 90
	costRemoveRoad   Cost = 20
	costClearLand    Cost = 20
	costBuildTrain   Cost = 20000
	costBuildRoadVeh Cost = 8000
	costBuildShip    Cost = 60000
)

// RegisterDefaultHandlers installs the command set spec.md §6 names onto
// d, implementing each against the tile kind dispatch (C2), the
// track/trackdir algebra (C3), and the signal/PBS layer (C4), exactly as
// the per-tick controllers (C9/C10) read the same tile state back.
func RegisterDefaultHandlers(d *Dispatcher) {
	d.Register(LandscapeClear, handleLandscapeClear)
	d.Register(BuildSingleRail, handleBuildSingleRail)
	d.Register(RemoveSingleRail, handleRemoveSingleRail)
	d.Register(BuildSignals, handleBuildSignals)
	d.Register(RemoveSignals, handleRemoveSignals)
	d.Register(BuildTrainDepot, handleBuildTrainDepot)
	d.Register(BuildRoad, handleBuildRoad)
	d.Register(RemoveRoad, handleRemoveRoad)
	d.Register(BuildRoadDepot, handleBuildRoadDepot)
	d.Register(BuildRailVehicle, handleBuildRailVehicle)
	d.Register(BuildRoadVeh, handleBuildRoadVeh)
	d.Register(BuildShip, handleBuildShip)
	d.Register(BuildAircraft, handleBuildAircraftUnsupported)
	d.Register(StartStopVehicle, handleStartStopVehicle)
	d.Register(ReverseTrainDirection, handleReverseTrainDirection)
	d.Register(SendToDepot, handleSendToDepot)
	d.Register(SellVehicle, handleSellVehicle)
}

// --- Tile commands -----------------------------------------------------

// handleBuildSingleRail lays track bits p1 (a trackdir.Track, widened to
// uint32) onto an empty or existing plain-rail tile, refusing to overlap a
// different owner's track (spec.md §7 "area owned by another").
func handleBuildSingleRail(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	tr := trackdir.Track(req.P1)

	switch t.Kind {
	case grid.KindClear:
		if !req.Flags.Exec() {
			return costBuildRail, nil
		}
		t.Kind = grid.KindRailway
		t.Owner = req.Player
		t.M5 = uint8(tr.ToTrackBits())
		return costBuildRail, nil
	case grid.KindRailway:
		if t.RailSubKind() != grid.RailSubKindPlain {
			return 0, shared.NewCommandError(shared.ErrMustRemoveFirst, "tile is not clear or plain rail")
		}
		if t.Owner != req.Player {
			return 0, shared.NewCommandError(shared.ErrAreaOwnedByAnother, "")
		}
		existing := trackdir.TrackBits(t.RailTrackBits())
		want := tr.ToTrackBits()
		if existing&want != 0 {
			return 0, shared.NewCommandError(shared.ErrAlreadyBuilt, "")
		}
		if !req.Flags.Exec() {
			return costBuildRail, nil
		}
		t.M5 = (t.M5 &^ 0x3F) | uint8(existing|want)
		return costBuildRail, nil
	default:
		return 0, shared.NewCommandError(shared.ErrMustRemoveFirst, "tile is not clear or plain rail")
	}
}

func handleRemoveSingleRail(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindRailway || t.RailSubKind() != grid.RailSubKindPlain {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "")
	}
	if t.Owner != req.Player {
		return 0, shared.NewCommandError(shared.ErrAreaOwnedByAnother, "")
	}
	tr := trackdir.Track(req.P1)
	bits := trackdir.TrackBits(t.RailTrackBits())
	want := tr.ToTrackBits()
	if bits&want == 0 {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "track not present")
	}
	if !req.Flags.Exec() {
		return costRemoveRail, nil
	}
	remaining := bits &^ want
	if remaining == 0 {
		t.Kind = grid.KindClear
		t.M5 = 0
	} else {
		t.M5 = (t.M5 &^ 0x3F) | uint8(remaining)
	}
	return costRemoveRail, nil
}

// handleBuildSignals adds a signal along trackdir p1 on an existing plain
// or signalled rail tile, promoting the tile's sub-kind to "signals"
// (spec.md §6 M5 [7:6]=1) on first installation.
func handleBuildSignals(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindRailway {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "")
	}
	sub := t.RailSubKind()
	if sub != grid.RailSubKindPlain && sub != grid.RailSubKindSignals {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "")
	}
	td := trackdir.Trackdir(req.P1)
	if signal.HasSignalOnTrackdir(t, td) {
		return 0, shared.NewCommandError(shared.ErrAlreadyBuilt, "")
	}
	if !req.Flags.Exec() {
		return costBuildSignal, nil
	}
	if sub == grid.RailSubKindPlain {
		bits := t.RailTrackBits()
		t.M5 = (1 << 6) | bits
	}
	signal.AddSignal(t, td, signal.SignalNormal, false)
	signal.SetGreen(t, td, true)
	return costBuildSignal, nil
}

func handleRemoveSignals(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindRailway || t.RailSubKind() != grid.RailSubKindSignals {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "")
	}
	td := trackdir.Trackdir(req.P1)
	if !signal.HasSignalOnTrackdir(t, td) {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "no signal on that trackdir")
	}
	if !req.Flags.Exec() {
		return costRemoveSignal, nil
	}
	signal.RemoveSignal(t, td)
	if !signal.AnySignalPresent(t) {
		bits := t.RailTrackBits()
		t.M5 = bits // demote back to plain rail (sub-kind 0)
	}
	return costRemoveSignal, nil
}

// handleBuildTrainDepot lays a depot tile (sub-kind 3, subtype 0) with its
// exit pointing diagdir p1, requiring flat, clear land; a tile that
// already carries rail is refused.
func handleBuildTrainDepot(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindClear {
		return 0, shared.NewCommandError(shared.ErrFlatLandRequired, "")
	}
	if sl, _ := sc.Map.SlopeOf(req.Tile); sl != grid.SlopeFlat {
		return 0, shared.NewCommandError(shared.ErrLandSlopedWrong, "")
	}
	if !req.Flags.Exec() {
		return costBuildDepot, nil
	}
	t.Kind = grid.KindRailway
	t.Owner = req.Player
	t.M5 = (3 << 6) | uint8(req.P1&0x3)
	return costBuildDepot, nil
}

// handleBuildRoad lays road bits p1 (NW=1,SW=2,SE=4,NE=8) onto clear or
// existing road.
func handleBuildRoad(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	switch t.Kind {
	case grid.KindClear:
		if !req.Flags.Exec() {
			return costBuildRoad, nil
		}
		t.Kind = grid.KindStreet
		t.Owner = req.Player
		t.M5 = uint8(req.P1 & 0xF)
		return costBuildRoad, nil
	case grid.KindStreet:
		if t.Owner != req.Player && t.Owner != grid.OwnerTown {
			return 0, shared.NewCommandError(shared.ErrAreaOwnedByAnother, "")
		}
		existing := t.M5 & 0xF
		want := uint8(req.P1 & 0xF)
		if existing&want == want {
			return 0, shared.NewCommandError(shared.ErrAlreadyBuilt, "")
		}
		if !req.Flags.Exec() {
			return costBuildRoad, nil
		}
		t.M5 = (t.M5 &^ 0xF) | (existing | want)
		return costBuildRoad, nil
	default:
		return 0, shared.NewCommandError(shared.ErrMustRemoveFirst, "")
	}
}

func handleRemoveRoad(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindStreet {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "")
	}
	if t.Owner != req.Player {
		return 0, shared.NewCommandError(shared.ErrAreaOwnedByAnother, "")
	}
	want := uint8(req.P1 & 0xF)
	existing := t.M5 & 0xF
	if existing&want != want {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "")
	}
	if !req.Flags.Exec() {
		return costRemoveRoad, nil
	}
	remaining := existing &^ want
	if remaining == 0 {
		t.Kind = grid.KindClear
		t.M5 = 0
	} else {
		t.M5 = remaining
	}
	return costRemoveRoad, nil
}

func handleBuildRoadDepot(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindClear {
		return 0, shared.NewCommandError(shared.ErrFlatLandRequired, "")
	}
	if sl, _ := sc.Map.SlopeOf(req.Tile); sl != grid.SlopeFlat {
		return 0, shared.NewCommandError(shared.ErrLandSlopedWrong, "")
	}
	if !req.Flags.Exec() {
		return costBuildDepot, nil
	}
	t.Kind = grid.KindStreet
	t.Owner = req.Player
	t.M5 = (2 << 4) | uint8(req.P1&0x3)
	return costBuildDepot, nil
}

func handleLandscapeClear(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	switch t.Kind {
	case grid.KindClear:
		return 0, nil
	case grid.KindRailway, grid.KindStreet:
		return 0, shared.NewCommandError(shared.ErrMustRemoveFirst, "remove track before clearing")
	case grid.KindVoid:
		return 0, shared.NewCommandError(shared.ErrFlatLandRequired, "border tile")
	default:
		if !req.Flags.Exec() {
			return costClearLand, nil
		}
		t.Kind = grid.KindClear
		t.Owner = grid.OwnerNone
		t.M2, t.M3, t.M4, t.M5 = 0, 0, 0, 0
		return costClearLand, nil
	}
}

// --- Vehicle commands ----------------------------------------------------

func handleBuildRailVehicle(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindRailway || t.RailSubKind() != grid.RailSubKindDepotWaypoint {
		return 0, shared.NewCommandError(shared.ErrDepotNotFound, "")
	}
	if !sc.Pool.AllocateVehicles(1) {
		return 0, shared.NewCommandError(shared.ErrVehiclePoolFull, "")
	}
	if !req.Flags.Exec() {
		return costBuildTrain, nil
	}
	v, ok := sc.Pool.Allocate(vehicle.KindTrain, req.Player, req.Tile)
	if !ok {
		return 0, shared.NewCommandError(shared.ErrVehiclePoolFull, "")
	}
	t0 := &train.Train{Cars: []*train.Car{{Veh: v, Length: 8}}}
	sc.RegisterTrain(t0)
	return costBuildTrain, nil
}

func handleBuildRoadVeh(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindStreet {
		return 0, shared.NewCommandError(shared.ErrDepotNotFound, "")
	}
	if !sc.Pool.AllocateVehicles(1) {
		return 0, shared.NewCommandError(shared.ErrVehiclePoolFull, "")
	}
	if !req.Flags.Exec() {
		return costBuildRoadVeh, nil
	}
	v, ok := sc.Pool.Allocate(vehicle.KindRoadVeh, req.Player, req.Tile)
	if !ok {
		return 0, shared.NewCommandError(shared.ErrVehiclePoolFull, "")
	}
	sc.RegisterRoadVeh(&roadveh.RoadVehicle{Veh: v})
	return costBuildRoadVeh, nil
}

func handleBuildShip(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Map.At(req.Tile)
	if t.Kind != grid.KindWater {
		return 0, shared.NewCommandError(shared.ErrDepotNotFound, "")
	}
	if !sc.Pool.AllocateVehicles(1) {
		return 0, shared.NewCommandError(shared.ErrVehiclePoolFull, "")
	}
	if !req.Flags.Exec() {
		return costBuildShip, nil
	}
	v, ok := sc.Pool.Allocate(vehicle.KindShip, req.Player, req.Tile)
	if !ok {
		return 0, shared.NewCommandError(shared.ErrVehiclePoolFull, "")
	}
	sc.RegisterShip(&ship.Ship{Veh: v})
	return costBuildShip, nil
}

func handleBuildAircraftUnsupported(_ context.Context, _ *simcontext.Context, _ Request) (Cost, *shared.CommandError) {
	// Aircraft have no controller in this core (spec.md §2 names only
	// train/road/ship controllers, C9/C10) — the command id is kept in the
	// closed set per spec.md §6 but rejected until an air controller
	// exists. See DESIGN.md.
	return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, "aircraft are not modeled by this simulation core")
}

func handleStartStopVehicle(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	id := req.P1
	if t := sc.Train(id); t != nil {
		if !req.Flags.Exec() {
			return 0, nil
		}
		t.Stopped = !t.Stopped
		return 0, nil
	}
	return 0, shared.NewCommandError(shared.ErrVehicleMustBeStopped, "vehicle not found")
}

func handleReverseTrainDirection(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Train(req.P1)
	if t == nil {
		return 0, shared.NewCommandError(shared.ErrVehicleMustBeStopped, "train not found")
	}
	if !req.Flags.Exec() {
		return 0, nil
	}
	t.Reversing = true
	return 0, nil
}

func handleSendToDepot(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	t := sc.Train(req.P1)
	if t == nil {
		return 0, shared.NewCommandError(shared.ErrDepotNotFound, "vehicle not found")
	}
	if !req.Flags.Exec() {
		return 0, nil
	}
	t.Orders = append([]train.Order{{Type: train.OrderGoToDepot, Dest: req.Tile}}, t.Orders...)
	return 0, nil
}

func handleSellVehicle(_ context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError) {
	id := req.P1
	t := sc.Train(id)
	if t == nil {
		return 0, shared.NewCommandError(shared.ErrVehicleMustBeStopped, "vehicle not found")
	}
	if len(t.Cars) == 0 || !t.Stopped {
		return 0, shared.NewCommandError(shared.ErrVehicleMustBeStopped, "vehicle must be stopped inside depot")
	}
	if !req.Flags.Exec() {
		return 0, nil
	}
	for _, c := range t.Cars {
		sc.Pool.Free(c.Veh.ID)
	}
	return 0, nil
}
