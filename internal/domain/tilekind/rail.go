package tilekind

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/shared"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

func init() {
	Register(grid.KindRailway, Handlers{
		TrackStatus: railTrackStatus,
		ClearCost:   railClearCost,
		TileLoop:    railTileLoop,
		ChangeOwner: railChangeOwner,
	})
}

// railTrackStatus reads the raw TrackBits out of M5 (per spec.md §6 bit
// layout) and, for the signalled sub-kind, overlays signal state read from
// M2/M3/M4. Depot/waypoint tiles expose their exit trackdir and its reverse.
func railTrackStatus(t *grid.Tile, mode StatusMode) TrackStatus {
	switch t.RailSubKind() {
	case grid.RailSubKindPlain:
		bits := trackdir.TrackBits(t.RailTrackBits())
		return TrackStatus{
			Trackdirs:    trackdir.TrackBitsToTrackdirBits(bits),
			SignalStates: trackdir.TrackBitsToTrackdirBits(bits), // no signal => green both ways
		}
	case grid.RailSubKindSignals:
		bits := trackdir.TrackBits(t.RailTrackBits())
		tdBits := trackdir.TrackBitsToTrackdirBits(bits)
		return TrackStatus{Trackdirs: tdBits, SignalStates: signalGreenMask(t, tdBits)}
	case grid.RailSubKindDepotWaypoint:
		exitDiag := trackdir.DiagDir(t.DepotExitDiagDir())
		td := trackdir.DiagdirToDiagTrackdir(exitDiag)
		rev := trackdir.ReverseTrackdir(td)
		mask := trackdir.TrackdirBits(1<<uint(td)) | trackdir.TrackdirBits(1<<uint(rev))
		return TrackStatus{Trackdirs: mask, SignalStates: mask}
	default:
		return TrackStatus{}
	}
}

// signalNibbleSlot mirrors package signal's trackSlot: a rail tile carries
// signals on at most two parallel tracks at once, so each track's
// along/against pair lives in one of two 2-bit slots within the 4-bit
// presence/state nibbles, keyed by which of the (at most) two signalled
// tracks this one is rather than by its own track number. Duplicated here
// rather than imported because package signal depends on follower, which
// depends on this package — importing it back would cycle.
func signalNibbleSlot(tr trackdir.Track) uint8 {
	switch tr {
	case trackdir.TrackDiag2, trackdir.TrackLower, trackdir.TrackRight:
		return 1
	default:
		return 0
	}
}

// signalGreenMask reports green for every trackdir that either carries no
// signal in that direction, or whose along/against green bit (M2 high
// nibble, spec.md §6) is set.
func signalGreenMask(t *grid.Tile, present trackdir.TrackdirBits) trackdir.TrackdirBits {
	var green trackdir.TrackdirBits
	presenceNibble := t.M3 >> 4
	stateNibble := uint8(t.M2&0xFF) >> 4
	for tr := trackdir.Track(0); tr < trackdir.TrackEnd; tr++ {
		td := tr.ToTrackdir()
		rev := trackdir.ReverseTrackdir(td)
		if !present.HasTrackdir(td) && !present.HasTrackdir(rev) {
			continue
		}
		slot := signalNibbleSlot(tr) * 2
		alongBit := uint8(1) << slot
		againstBit := uint8(1) << (slot + 1)

		if presenceNibble&alongBit == 0 {
			green |= trackdir.TrackdirBits(1 << uint(td))
		} else if stateNibble&alongBit != 0 {
			green |= trackdir.TrackdirBits(1 << uint(td))
		}
		if presenceNibble&againstBit == 0 {
			green |= trackdir.TrackdirBits(1 << uint(rev))
		} else if stateNibble&againstBit != 0 {
			green |= trackdir.TrackdirBits(1 << uint(rev))
		}
	}
	return green
}

func railClearCost(t *grid.Tile, execute bool) (int64, *shared.CommandError) {
	if t.RailTrackBits() != 0 {
		return 0, shared.NewCommandError(shared.ErrMustRemoveFirst, "must remove railroad track first")
	}
	if execute {
		t.Kind = grid.KindClear
		t.M5 = 0
	}
	return 40, nil
}

// railTileLoop runs periodic maintenance: rail snow/desert overlay cycling
// is a draw-only concern (out of scope, §1); nothing here mutates state
// that pathfinding or signalling observes, so it is a no-op placeholder
// kept for dispatch-table completeness.
func railTileLoop(t *grid.Tile) {}

func railChangeOwner(t *grid.Tile, old, new grid.Owner) {
	if t.Owner == old {
		t.Owner = new
	}
}
