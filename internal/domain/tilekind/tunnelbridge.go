package tilekind

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

func init() {
	Register(grid.KindTunnelBridge, Handlers{
		TrackStatus: func(t *grid.Tile, mode StatusMode) TrackStatus { return tunnelBridgeTrackStatus(t) },
	})
}

// tunnelBridgePart distinguishes the bits [7:6] encoding from spec.md §6:
// 11 = middle part, 10 = tunnel entrance, and (by exclusion) a bridge ramp.
type tunnelBridgePart uint8

const (
	partBridgeRamp tunnelBridgePart = 0 // [7:6] unused on ramp tiles themselves
	partTunnelEntrance tunnelBridgePart = 2
	partMiddle         tunnelBridgePart = 3
)

// TunnelBridgeExitDiagDir reads the exit direction packed in the low two
// bits of M5, valid for both tunnel entrances and bridge ramps.
func TunnelBridgeExitDiagDir(t *grid.Tile) trackdir.DiagDir {
	return trackdir.DiagDir(t.M5 & 0x3)
}

// IsTunnelEntrance reports whether tile t is a tunnel mouth (as opposed to
// a bridge ramp or the hidden middle part).
func IsTunnelEntrance(t *grid.Tile) bool {
	return t.Kind == grid.KindTunnelBridge && tunnelBridgePart(t.M5>>6) == partTunnelEntrance && t.M4 == 0
}

// tunnelBridgeTrackStatus exposes the single straight-through trackdir a
// tunnel/bridge ramp offers; C6 has no tunnel jump: it steps tile by tile
// and never reads Penalties.TunnelPerTile.
func tunnelBridgeTrackStatus(t *grid.Tile) TrackStatus {
	exit := TunnelBridgeExitDiagDir(t)
	td := trackdir.DiagdirToDiagTrackdir(exit)
	rev := trackdir.ReverseTrackdir(td)
	mask := trackdir.TrackdirBits(1<<uint(td)) | trackdir.TrackdirBits(1<<uint(rev))
	return TrackStatus{Trackdirs: mask, SignalStates: mask}
}
