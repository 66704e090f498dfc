// Package command implements C12: the uniform command dispatcher,
// `DoCommand(tile, p1, p2, flags, cmdid)`, that every state mutation in
// the engine goes through (spec.md §4.12). Grounded on the teacher's
// `common.Mediator` (a registered-handler-by-type dispatch with a
// middleware chain) generalized from Go-type-keyed requests to the
// source engine's closed `CommandID` enum keyed dispatch, which is the
// shape spec.md §9 "Dynamic dispatch" asks for (a closed set expressed as
// an enum + dispatch table, not runtime polymorphism).
package command

import (
	"context"
	"fmt"

	"github.com/tiletransit/simcore/internal/application/common"
	"github.com/tiletransit/simcore/internal/application/simcontext"
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/shared"
)

// ID enumerates the minimum command set spec.md §6 names.
type ID uint16

const (
	BuildSingleRail ID = iota
	RemoveSingleRail
	BuildRailroadTrack
	RemoveRailroadTrack
	BuildTrainDepot
	BuildSignals
	RemoveSignals
	BuildSignalTrack
	RemoveSignalTrack
	ConvertRail
	BuildRoad
	RemoveRoad
	BuildLongRoad
	RemoveLongRoad
	BuildRoadDepot
	LandscapeClear
	BuildRailVehicle
	BuildRoadVeh
	BuildShip
	BuildAircraft
	SellVehicle
	RefitVehicle
	SendToDepot
	MoveRailVehicle
	CloneVehicle
	CloneOrder
	InsertOrder
	SkipOrder
	StartStopVehicle
	ReverseTrainDirection
	NameVehicle
	ChangeServiceInterval
	IncreaseLoan
	DecreaseLoan
)

// Flags are the bitwise mode flags spec.md §4.12 lists.
type Flags uint8

const (
	FlagExec Flags = 1 << iota
	FlagQueryCost
	FlagAIBuilding
	FlagNoWater
	FlagNoRailOverlap
)

func (f Flags) Exec() bool       { return f&FlagExec != 0 }
func (f Flags) QueryCost() bool  { return f&FlagQueryCost != 0 }
func (f Flags) AIBuilding() bool { return f&FlagAIBuilding != 0 }

// Request bundles one call's arguments, matching the source signature
// `(tile, p1, p2, flags, cmd_id)` plus the calling player.
type Request struct {
	Tile   grid.TileIndex
	P1, P2 uint32
	Flags  Flags
	Player grid.Owner
}

// Cost is the successful result of a command: the money cost committed
// or, under QueryCost, the cost that *would* be committed.
type Cost int64

// Handler implements one command id. Implementations must honor spec.md
// §4.12's query-cost contract: when !req.Flags.Exec(), Handler must
// return the identical cost/error it would under Exec, and must not
// write any durable state (tile/vehicle/order mutation). Effect vehicles,
// sounds and news are allowed either way, per spec.md §7.
type Handler func(ctx context.Context, sc *simcontext.Context, req Request) (Cost, *shared.CommandError)

// Dispatcher is the closed `CommandID -> Handler` table (spec.md §9
// "Dynamic dispatch": the command-id mapping is a closed set, expressed
// as a dispatch table rather than runtime polymorphism).
type Dispatcher struct {
	handlers map[ID]Handler
	sc       *simcontext.Context
}

// NewDispatcher builds an empty dispatcher bound to one simulation
// context; RegisterDefaultHandlers (or package-specific setup) populates
// it before first use.
func NewDispatcher(sc *simcontext.Context) *Dispatcher {
	return &Dispatcher{handlers: make(map[ID]Handler), sc: sc}
}

// Register installs the handler for cmd, panicking on a duplicate
// registration (a programmer error, not a runtime condition).
func (d *Dispatcher) Register(cmd ID, h Handler) {
	if _, exists := d.handlers[cmd]; exists {
		panic(fmt.Sprintf("command: handler already registered for %d", cmd))
	}
	d.handlers[cmd] = h
}

// DoCommand dispatches req to its registered handler, setting
// `_current_player` on the simulation context for the call's duration
// and restoring it afterward, exactly as spec.md §4.12 specifies.
func (d *Dispatcher) DoCommand(ctx context.Context, cmd ID, req Request) (Cost, *shared.CommandError) {
	h, ok := d.handlers[cmd]
	if !ok {
		return 0, shared.NewCommandError(shared.ErrNoSuitableTrack, fmt.Sprintf("unknown command id %d", cmd))
	}

	prevPlayer := d.sc.CurrentPlayer
	d.sc.CurrentPlayer = req.Player
	defer func() { d.sc.CurrentPlayer = prevPlayer }()

	logger := common.LoggerFromContext(ctx)
	logger.Log("debug", "dispatching command", map[string]interface{}{
		"cmd": cmd, "tile": req.Tile, "exec": req.Flags.Exec(),
	})

	return h(ctx, d.sc, req)
}

// QueryCost runs cmd with FlagQueryCost set (and FlagExec cleared),
// guaranteeing no durable mutation per spec.md §7/§8 property 7.
func (d *Dispatcher) QueryCost(ctx context.Context, cmd ID, req Request) (Cost, *shared.CommandError) {
	req.Flags = (req.Flags &^ FlagExec) | FlagQueryCost
	return d.DoCommand(ctx, cmd, req)
}

// Execute runs cmd with FlagExec set, mutating durable state.
func (d *Dispatcher) Execute(ctx context.Context, cmd ID, req Request) (Cost, *shared.CommandError) {
	req.Flags = (req.Flags &^ FlagQueryCost) | FlagExec
	return d.DoCommand(ctx, cmd, req)
}
