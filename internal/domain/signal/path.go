package signal

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/pathfind/follower"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// PathStep is one tile/track hop of a reserved path, in travel order.
type PathStep struct {
	Tile  grid.TileIndex
	Track trackdir.Track
}

// ReservePath claims every track in path, stopping and rolling back the
// partial claim if any step is already reserved by a conflicting track.
// Mirrors the source's TryReservePath: an all-or-nothing walk.
func ReservePath(m *grid.Map, path []PathStep) bool {
	done := make([]PathStep, 0, len(path))
	for _, s := range path {
		if !PBSReserveTrack(m.At(s.Tile), s.Track) {
			for _, d := range done {
				PBSClearTrack(m.At(d.Tile), d.Track)
			}
			return false
		}
		done = append(done, s)
	}
	return true
}

// ClearPath releases every track in path, used once a train has fully
// passed it or an order is aborted before departure.
func ClearPath(m *grid.Map, path []PathStep) {
	for _, s := range path {
		PBSClearTrack(m.At(s.Tile), s.Track)
	}
}

// IsPBSSegment reports whether every signal bounding the block reachable
// from (tile, td) without crossing a signal is PBS-typed, which determines
// whether a train may enter it under path-based reservation rather than
// plain block signalling.
func IsPBSSegment(m *grid.Map, tile grid.TileIndex, td trackdir.Trackdir) bool {
	if HasSignalOnTrackdir(m.At(tile), td) {
		return IsPBSSignal(m.At(tile), td)
	}
	res := follower.FollowTrack(m, tile, td, false)
	for _, end := range res.Ends {
		if HasSignalOnTrackdir(m.At(end.Tile), end.Trackdir) {
			if !IsPBSSignal(m.At(end.Tile), end.Trackdir) {
				return false
			}
		}
	}
	return true
}
