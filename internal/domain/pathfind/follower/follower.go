// Package follower implements the legacy track follower (C7): FollowTrack
// walks one tile at a time along a single line of track and stops at the
// first tile where the track forks or ends, or after MaxTrackLength tiles.
// It does not branch into forks and keeps no visited set; callers such as
// UpdateSignalsOnSegment that need either keep their own.
package follower

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/tilekind"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// MaxTrackLength bounds a single FollowTrack walk, mirroring the source's
// hard _maxlength safety valve against pathological loops.
const MaxTrackLength = 4096

// Step is one hop of a FollowTrack walk: the tile entered and the trackdir
// used to enter it.
type Step struct {
	Tile     grid.TileIndex
	Trackdir trackdir.Trackdir
}

// Result carries every tile reachable in one straight or forking walk from
// a starting trackdir, stopping at a tile that forks (more than one
// trackdir continues) or dead-ends.
type Result struct {
	Steps []Step
	// Ends holds the (tile, trackdir) the walk stopped at when the track
	// there forks (more than one trackdir available) or dead-ends (none);
	// it has at most one entry.
	Ends []Step
}

// FollowTrack walks the grid starting at tile `from`, trackdir `td`,
// advancing tile-by-tile while exactly one trackdir continues, and
// reporting the fork or dead end it stops at. noLevelCrossing requests the
// crossing-aware TrackStatus view (StatusModeNoLevelCrossing) so a blocked
// level crossing is treated as impassable.
func FollowTrack(m *grid.Map, from grid.TileIndex, td trackdir.Trackdir, noLevelCrossing bool) Result {
	mode := tilekind.StatusModeNormal
	if noLevelCrossing {
		mode = tilekind.StatusModeNoLevelCrossing
	}
	var res Result
	tile := from
	cur := td
	for i := 0; i < MaxTrackLength; i++ {
		exit := trackdir.TrackdirToExitdir(cur)
		dx, dy := exitDelta(exit)
		next, ok := m.AddWrapped(tile, dx, dy)
		if !ok {
			break
		}
		entry, ok := enterTrackdir(m, next, exit, mode)
		if !ok {
			break
		}
		res.Steps = append(res.Steps, Step{Tile: next, Trackdir: entry})
		status := tilekind.TrackStatusOf(m.At(next), mode)
		reachable := status.Trackdirs & trackdir.TrackdirReachesTrackdirs(entry)
		n := countTrackdirs(reachable)
		if n != 1 {
			res.Ends = append(res.Ends, Step{Tile: next, Trackdir: entry})
			break
		}
		tile = next
		cur = soleTrackdir(reachable)
	}
	return res
}

// enterTrackdir resolves which trackdir a vehicle enters `next` on, given
// it left the previous tile through exit diagonal `exit`. Returns false if
// no track on `next` accepts that entry direction.
func enterTrackdir(m *grid.Map, next grid.TileIndex, exit trackdir.DiagDir, mode tilekind.StatusMode) (trackdir.Trackdir, bool) {
	status := tilekind.TrackStatusOf(m.At(next), mode)
	reachable := status.Trackdirs & trackdir.EnterTrackdirs(exit)
	if reachable == 0 {
		return trackdir.TrackdirInvalid, false
	}
	return soleOrFirstTrackdir(reachable), true
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

func soleOrFirstTrackdir(b trackdir.TrackdirBits) trackdir.Trackdir {
	return soleTrackdir(b)
}

// exitDelta converts a DiagDir into the (dx, dy) tile step it represents.
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
