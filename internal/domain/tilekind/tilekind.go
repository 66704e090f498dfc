// Package tilekind implements the per-kind tile handler table (C2):
// draw/clear/track-status/enter/leave/tile-loop, dispatched on grid.Kind.
// The source engine uses a C "tile type procs" function-pointer table; this
// models it as a closed tagged union with a dispatch table keyed on the
// tag, per spec.md §9's "Deep inheritance" note.
package tilekind

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/shared"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// StatusMode selects which track-status view a caller wants: the physical
// tracks present, or the tracks usable right now (e.g. excluding a track
// whose level crossing is blocked).
type StatusMode uint8

const (
	StatusModeNormal StatusMode = iota
	StatusModeNoLevelCrossing
)

// TrackStatus is the pathfinder contract return value: which trackdirs are
// traversable and which signal states apply to them. Packing follows
// spec.md §4.2: bits 0-15 trackdir bits, bits 16-31 signal-green bits (a
// bit set means "green" — absence of any signal reads as green in both
// directions).
type TrackStatus struct {
	Trackdirs     trackdir.TrackdirBits
	SignalStates  trackdir.TrackdirBits
}

// Pack returns the 32-bit encoding described in spec.md §4.2.
func (s TrackStatus) Pack() uint32 {
	return uint32(s.SignalStates)<<16 | uint32(s.Trackdirs)
}

// EnterResult is the bitflag result of a tile-enter hook.
type EnterResult uint32

const (
	EnterResultNone           EnterResult = 0
	EnterResultEnteredStation EnterResult = 2
	EnterResultCancelTileChange EnterResult = 4
	EnterResultForbidden      EnterResult = 8
)

// StationIDShift is where a station id is packed into the upper bits of an
// EnterResult that carries EnterResultEnteredStation.
const StationIDShift = 8

func (r EnterResult) StationID() uint32 { return uint32(r) >> StationIDShift }

// Vehicle is the minimal surface tilekind handlers need from a moving
// vehicle, kept narrow so vehicle/train/roadveh/ship never import each
// other through this package.
type Vehicle interface {
	ID() uint32
	OwnerID() grid.Owner
}

// Handlers is the per-kind vtable. Every field is a pure function or a
// function that may mutate tile/owner state only via the command layer
// (C12) — track_status, vehicle_enter and vehicle_leave are the exceptions
// called directly from the vehicle controllers each tick.
type Handlers struct {
	TrackStatus  func(t *grid.Tile, mode StatusMode) TrackStatus
	VehicleEnter func(v Vehicle, t *grid.Tile, x, y uint8) EnterResult
	VehicleLeave func(v Vehicle, t *grid.Tile, x, y uint8)
	ClearCost    func(t *grid.Tile, execute bool) (cost int64, err *shared.CommandError)
	ChangeOwner  func(t *grid.Tile, old, new grid.Owner)
	TileLoop     func(t *grid.Tile)
}

var table [int(grid.KindUnmovable) + 1]Handlers

// Register installs the handler table for a kind. Called from each kind's
// own file's init(), keeping the per-kind logic colocated with its
// registration the way the source's tile_cmd.cpp's per-file vtables do.
func Register(k grid.Kind, h Handlers) {
	table[k] = h
}

// For returns the handler table for a tile's kind. Never nil: unregistered
// kinds get a zero-value Handlers whose fields are checked by callers
// before invocation (e.g. void and house tiles have no vehicle_enter).
func For(k grid.Kind) Handlers {
	return table[k]
}

// TrackStatusOf is the free function form spec.md §9 recommends keeping
// outside a vtable for inlining, matching the "deep inheritance" note: a
// match expression over the closed kind set rather than an indirect call,
// used by the pathfinders on their hot path.
func TrackStatusOf(t *grid.Tile, mode StatusMode) TrackStatus {
	switch t.Kind {
	case grid.KindRailway:
		return railTrackStatus(t, mode)
	case grid.KindStreet:
		return roadTrackStatus(t, mode)
	case grid.KindWater:
		return waterTrackStatus(t)
	case grid.KindTunnelBridge:
		return tunnelBridgeTrackStatus(t)
	default:
		return TrackStatus{}
	}
}
