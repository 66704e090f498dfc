package tilekind

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/shared"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

func init() {
	Register(grid.KindStreet, Handlers{
		TrackStatus: roadTrackStatus,
		ClearCost:   roadClearCost,
		TileLoop:    roadTileLoop,
	})
}

type roadSubKind uint8

const (
	roadSubKindRoad roadSubKind = iota
	roadSubKindCrossing
	roadSubKindDepot
)

// roadBitToTrackBits: the four road-bits {NW=1,SW=2,SE=4,NE=8} each select
// one diagonal track; opposing pairs combine into the two road "straights".
var roadBitToTrack = map[uint8]trackdir.Track{
	0x1 | 0x4: trackdir.TrackDiag2, // NW+SE, vertical-ish straight
	0x2 | 0x8: trackdir.TrackDiag1, // SW+NE, the other straight
}

func roadTrackStatus(t *grid.Tile, mode StatusMode) TrackStatus {
	switch roadSubKind(t.M5 >> 4) {
	case roadSubKindRoad:
		bits := t.M5 & 0xF
		var tb trackdir.TrackBits
		for mask, tr := range roadBitToTrack {
			if bits&mask == mask {
				tb |= tr.ToTrackBits()
			}
		}
		if tb == 0 {
			// a single unconnected road-bit still offers a track stub so a
			// vehicle can turn around; fall back to both DIAG1 and DIAG2.
			tb = trackdir.TrackBitDiag1 | trackdir.TrackBitDiag2
		}
		td := trackdir.TrackBitsToTrackdirBits(tb)
		return TrackStatus{Trackdirs: td, SignalStates: td}
	case roadSubKindCrossing:
		axis := (t.M5 >> 3) & 1
		lightsOn := (t.M5>>2)&1 != 0
		var tb trackdir.TrackBits
		if axis == 0 {
			tb = trackdir.TrackBitDiag1
		} else {
			tb = trackdir.TrackBitDiag2
		}
		td := trackdir.TrackBitsToTrackdirBits(tb)
		if mode == StatusModeNoLevelCrossing && lightsOn {
			return TrackStatus{}
		}
		return TrackStatus{Trackdirs: td, SignalStates: td}
	case roadSubKindDepot:
		exitDiag := trackdir.DiagDir(t.M5 & 0x3)
		tdv := trackdir.DiagdirToDiagTrackdir(exitDiag)
		rev := trackdir.ReverseTrackdir(tdv)
		mask := trackdir.TrackdirBits(1<<uint(tdv)) | trackdir.TrackdirBits(1<<uint(rev))
		return TrackStatus{Trackdirs: mask, SignalStates: mask}
	default:
		return TrackStatus{}
	}
}

func roadClearCost(t *grid.Tile, execute bool) (int64, *shared.CommandError) {
	if execute {
		t.Kind = grid.KindClear
		t.M5 = 0
	}
	return 20, nil
}

// roadTileLoop does nothing. No code in this module sets or clears a
// crossing's light bit (M5 bit 2); TrackStatus only reads it.
func roadTileLoop(t *grid.Tile) {}
