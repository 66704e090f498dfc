package tilekind

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

func init() {
	Register(grid.KindWater, Handlers{
		TrackStatus: func(t *grid.Tile, mode StatusMode) TrackStatus { return waterTrackStatus(t) },
	})
}

// waterTrackStatus treats open water as offering every track (ships pick
// their own coarse diagonal/orthogonal lanes via NPF); a tile flagged as a
// buoy (M3 bit 0) still offers full connectivity; C6's water mode adds its
// buoy penalty on it.
func waterTrackStatus(t *grid.Tile) TrackStatus {
	td := trackdir.TrackBitsToTrackdirBits(trackdir.TrackBitAll)
	return TrackStatus{Trackdirs: td, SignalStates: td}
}

// IsBuoy reports whether a water tile is a buoy marker (M3 bit 0), per the
// kind-local payload convention described in spec.md §3.
func IsBuoy(t *grid.Tile) bool {
	return t.Kind == grid.KindWater && t.M3&0x1 != 0
}
