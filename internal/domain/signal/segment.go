package signal

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/pathfind/follower"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// UpdateSignalsOnSegment walks every track-circuit segment reachable from
// (tile, td) without crossing a signal, and recomputes each signal's green
// state from whether the segment ahead is occupied. It mirrors the source
// engine's block-signalling update: a segment is the maximal run of track
// between two signal-bearing tiles (or dead ends), and every "against"
// signal on its boundary goes green together once the run is clear.
//
// isOccupied reports whether a tile currently holds a vehicle, which the
// vehicle pool (C8) supplies; this package stays free of any vehicle-pool
// dependency by taking the predicate as a parameter.
func UpdateSignalsOnSegment(m *grid.Map, tile grid.TileIndex, td trackdir.Trackdir, isOccupied func(grid.TileIndex) bool) {
	visited := make(map[grid.TileIndex]bool)
	occupied := false
	var boundary []follower.Step

	queue := []follower.Step{{Tile: tile, Trackdir: td}}
	for len(queue) > 0 {
		step := queue[0]
		queue = queue[1:]
		if visited[step.Tile] {
			continue
		}
		visited[step.Tile] = true
		if isOccupied(step.Tile) {
			occupied = true
		}
		if HasSignalOnTrackdir(m.At(step.Tile), step.Trackdir) {
			boundary = append(boundary, step)
			continue
		}
		// FollowTrack only stops at forks/dead-ends; it has no notion of a
		// signal. A signal tile in the middle of an otherwise straight run
		// (the common case: one signal on a long plain segment, spec.md
		// §8 scenario S1) must still bound the segment, so each interior
		// step is checked for a signal before the walk is trusted past it.
		res := follower.FollowTrack(m, step.Tile, step.Trackdir, false)
		stoppedAtSignal := false
		for _, s := range res.Steps {
			if !visited[s.Tile] && isOccupied(s.Tile) {
				occupied = true
			}
			if HasSignalOnTrackdir(m.At(s.Tile), s.Trackdir) {
				visited[s.Tile] = true
				boundary = append(boundary, s)
				stoppedAtSignal = true
				break
			}
			visited[s.Tile] = true
		}
		if stoppedAtSignal {
			continue
		}
		for _, end := range res.Ends {
			if HasSignalOnTrackdir(m.At(end.Tile), end.Trackdir) {
				boundary = append(boundary, end)
				continue
			}
			queue = append(queue, end)
		}
	}

	for _, b := range boundary {
		against := trackdir.ReverseTrackdir(b.Trackdir)
		t := m.At(b.Tile)
		if HasSignalOnTrackdir(t, against) {
			SetGreen(t, against, !occupied)
		}
	}
}
