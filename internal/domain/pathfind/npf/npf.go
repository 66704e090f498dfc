// Package npf implements the "new pathfinder" (C6): per-transport-mode
// cost and heuristic functions layered on top of the generic aystar engine
// (C5), with PBS reservation integration. Grounded on the teacher's
// `internal/application/navigation` package, which drives a pluggable
// routing engine (there: great-circle distance between waypoints, cost
// tables per fuel mode) the same way this package drives aystar with
// per-transport-mode tables.
package npf

import (
	"math"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/pathfind/aystar"
	"github.com/tiletransit/simcore/internal/domain/signal"
	"github.com/tiletransit/simcore/internal/domain/tilekind"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// Mode selects which per-transport cost/heuristic table a Finder uses.
type Mode uint8

const (
	ModeRoad Mode = iota
	ModeRail
	ModeWater
)

// PBSMode selects how aggressively a rail search honours path-based
// signalling, per spec.md §4.6.
type PBSMode uint8

const (
	PBSNone PBSMode = iota
	PBSGreenOnly
	PBSAnyExit
)

// Penalties bundles the configurable per-mode costs named in spec.md §4.6.
// Values are in the same cost unit as one straight diagonal tile (Diag =
// 1<<ShiftFixed so non-diagonal travel's sqrt(2)/2 factor stays integral).
type Penalties struct {
	Diag              int64
	NonDiag           int64
	SlopeUp           int64
	Curve             int64
	LevelCrossing     int64
	Station           int64
	FirstRedSignal    int64
	FirstRedExit      int64
	LastRedBeforeGoal int64
	DepotReverse      int64
	PBSBlocked        int64
	Buoy              int64
	TunnelPerTile     int64
}

// ShiftFixed matches the source's fixed-point cost representation: one
// diagonal tile step is 1<<ShiftFixed, a non-diagonal (orthogonal) step is
// 1<<ShiftFixed * sqrt(2)/2, rounded.
const ShiftFixed = 4

// DefaultPenalties returns a Penalties table with the diag/non-diag base
// costs set and every other field a modest positive constant, a starting
// point a SimConfig load can override (per SPEC_FULL.md's config section).
func DefaultPenalties() Penalties {
	diag := int64(1) << ShiftFixed
	nonDiag := int64(math.Round(float64(diag) * math.Sqrt2 / 2))
	return Penalties{
		Diag:              diag,
		NonDiag:           nonDiag,
		SlopeUp:           diag * 2,
		Curve:             diag / 2,
		LevelCrossing:     diag * 3,
		Station:           diag,
		FirstRedSignal:    diag * 10,
		FirstRedExit:      diag * 10,
		LastRedBeforeGoal: diag * 20,
		DepotReverse:      diag * 5,
		PBSBlocked:        diag * 50,
		Buoy:              diag / 4,
		TunnelPerTile:     diag,
	}
}

// TargetKind selects how EndNodeCheck decides a node is the destination.
type TargetKind uint8

const (
	TargetTile TargetKind = iota
	TargetStation
	TargetDepotBreadthFirst
	TargetDepotTrialError
)

// Target describes what a Finder is routing towards.
type Target struct {
	Kind        TargetKind
	Tile        grid.TileIndex     // TargetTile, or one depot candidate for trial-error
	StationTiles []grid.TileIndex  // TargetStation: every tile of the rectangle
	Depots      []grid.TileIndex   // TargetDepotTrialError: candidates in caller-supplied (Manhattan) order
}

// Finder wraps an aystar.Engine configured for one transport mode.
type Finder struct {
	Map        *grid.Map
	Mode       Mode
	Penalties  Penalties
	PBS        PBSMode
	ForbidTurn90 bool
	engine     *aystar.Engine
	target     Target
	trialIdx   int
	rearStart  *aystar.Node
}

// NewFinder builds a Finder over m. loopsPerTick/maxPathCost/maxSearchNodes
// forward to the underlying aystar.Engine per spec.md §4.5.
func NewFinder(m *grid.Map, mode Mode, pen Penalties, pbs PBSMode, forbidTurn90 bool, loopsPerTick int, maxPathCost int64, maxSearchNodes int) *Finder {
	f := &Finder{Map: m, Mode: mode, Penalties: pen, PBS: pbs, ForbidTurn90: forbidTurn90}
	f.engine = aystar.NewEngine(aystar.Hooks{
		CalculateG:    f.calculateG,
		CalculateH:    f.calculateH,
		GetNeighbours: f.getNeighbours,
		EndNodeCheck:  f.endNodeCheck,
		BeforeExit:    f.beforeExit,
	}, loopsPerTick, maxPathCost, maxSearchNodes)
	return f
}

// Start begins a search from one or two start nodes (the rear-start cost
// penalty implements the "reverse now vs go forward" two-way start from
// spec.md §4.6) towards target.
func (f *Finder) Start(target Target, start aystar.Node, rearStart *aystar.Node, rearPenalty int64) {
	f.target = target
	f.trialIdx = 0
	f.engine.Reset(start)
	f.rearStart = rearStart
	if rearStart != nil {
		f.engine.AddStart(*rearStart, rearPenalty)
	}
}

// ReverseWon reports whether the found path departs from the rear-start
// node passed to Start, i.e. the caller should issue NPF_FLAG_REVERSE's
// "reverse now" action rather than continuing forward (spec.md §4.6).
func (f *Finder) ReverseWon() bool {
	path := f.engine.Path()
	if f.rearStart == nil || len(path) == 0 {
		return false
	}
	return path[0].Tile == f.rearStart.Tile && path[0].Trackdir == f.rearStart.Trackdir
}

// Run advances the search; see aystar.Engine.Run for the resumable
// still-busy contract.
func (f *Finder) Run() aystar.Outcome { return f.engine.Run() }

// NextTrialDepot advances to the next trial-error depot candidate and
// resets the engine to search towards it, implementing the "pathfind to
// each depot in Manhattan order, stop once better than the next bird
// distance" driver described in spec.md §4.6. The caller compares each
// found path's cost against BirdDistanceToTrial of the following index to
// decide whether to stop early.
func (f *Finder) NextTrialDepot(start aystar.Node) (grid.TileIndex, bool) {
	f.trialIdx++
	if f.trialIdx >= len(f.target.Depots) {
		return 0, false
	}
	f.engine.Reset(start)
	return f.target.Depots[f.trialIdx], true
}

// BirdDistanceToTrial returns the Manhattan distance from from to the
// trial-error depot candidate at index idx, used by the caller's
// best-so-far-vs-next-bird-distance stop condition.
func (f *Finder) BirdDistanceToTrial(from grid.TileIndex, idx int) int32 {
	if idx >= len(f.target.Depots) {
		return math.MaxInt32
	}
	return f.Map.DistanceManhattan(from, f.target.Depots[idx])
}

// Path returns the found path in travel order.
func (f *Finder) Path() []aystar.Node { return f.engine.Path() }

func (f *Finder) calculateG(current, parent aystar.Node) (int64, bool) {
	exit := trackdir.TrackdirToExitdir(parent.Trackdir)
	entry := trackdir.TrackdirToExitdir(current.Trackdir)
	diagonal := exit == entry
	var cost int64
	if diagonal {
		cost = f.Penalties.Diag
	} else {
		cost = f.Penalties.NonDiag
	}

	if parent.Trackdir != current.Trackdir && parent.Trackdir.ToTrack() != current.Trackdir.ToTrack() {
		cost += f.Penalties.Curve
	}

	if f.crossesLevelCrossing(current) {
		cost += f.Penalties.LevelCrossing
	}

	if f.Mode == ModeRail {
		cost += f.railSignalPenalty(current)
	}
	if f.Mode == ModeWater && tilekind.For(grid.KindWater).TrackStatus != nil {
		if isBuoyTile(f.Map.At(current.Tile)) {
			cost += f.Penalties.Buoy
		}
	}

	if f.tileSlopesUp(parent.Tile, current.Tile) {
		cost += f.Penalties.SlopeUp
	}

	return cost, true
}

func (f *Finder) calculateH(current, parent aystar.Node) int64 {
	goal := f.nearestGoalTile(current.Tile)
	switch f.target.Kind {
	case TargetDepotBreadthFirst:
		return 0 // pure Dijkstra per spec.md §4.6
	}
	switch f.Mode {
	case ModeRoad:
		return f.Penalties.Diag * int64(f.Map.DistanceManhattan(current.Tile, goal))
	default: // rail, water: "track distance" = diagonals + sqrt2/2 * non-diagonals
		dMax := int64(f.Map.DistanceMax(current.Tile, goal))
		dMan := int64(f.Map.DistanceManhattan(current.Tile, goal))
		nonDiagSteps := dMan - dMax
		return dMax*f.Penalties.Diag + nonDiagSteps*f.Penalties.NonDiag
	}
}

func (f *Finder) nearestGoalTile(from grid.TileIndex) grid.TileIndex {
	switch f.target.Kind {
	case TargetStation:
		best := f.target.StationTiles[0]
		bestD := f.Map.DistanceManhattan(from, best)
		for _, t := range f.target.StationTiles[1:] {
			if d := f.Map.DistanceManhattan(from, t); d < bestD {
				best, bestD = t, d
			}
		}
		return best
	case TargetDepotTrialError:
		return f.target.Depots[f.trialIdx]
	default:
		return f.target.Tile
	}
}

func (f *Finder) getNeighbours(current aystar.Node) []aystar.Node {
	status := tilekind.TrackStatusOf(f.Map.At(current.Tile), tilekind.StatusModeNormal)
	reachable := status.Trackdirs & trackdir.TrackdirReachesTrackdirs(current.Trackdir)
	if f.PBS == PBSAnyExit {
		reachable &^= signal.PBSUnavailableTrackdirs(f.Map.At(current.Tile))
	}

	var out []aystar.Node
	for td := trackdir.Trackdir(0); td < trackdir.TrackdirEnd; td++ {
		if !reachable.HasTrackdir(td) {
			continue
		}
		if f.ForbidTurn90 && isTurn90(current.Trackdir, td) {
			continue
		}
		exit := trackdir.TrackdirToExitdir(td)
		dx, dy := exitDelta(exit)
		next, ok := f.Map.AddWrapped(current.Tile, dx, dy)
		if !ok {
			continue
		}
		entry, ok := enterTrackdir(f.Map, next, exit)
		if !ok {
			continue
		}
		out = append(out, aystar.Node{Tile: next, Trackdir: entry})
	}
	return out
}

// enterTrackdir resolves which trackdir a path enters `next` on when
// leaving the previous tile through diagonal `exit`, mirroring the legacy
// follower's identical check so both pathfinders agree on what "connected"
// means for a tile boundary.
func enterTrackdir(m *grid.Map, next grid.TileIndex, exit trackdir.DiagDir) (trackdir.Trackdir, bool) {
	status := tilekind.TrackStatusOf(m.At(next), tilekind.StatusModeNormal)
	reachable := status.Trackdirs & trackdir.EnterTrackdirs(exit)
	if reachable == 0 {
		return trackdir.TrackdirInvalid, false
	}
	for td := trackdir.Trackdir(0); td < trackdir.TrackdirEnd; td++ {
		if reachable.HasTrackdir(td) {
			return td, true
		}
	}
	return trackdir.TrackdirInvalid, false
}

func isTurn90(from, to trackdir.Trackdir) bool {
	fromExit := trackdir.TrackdirToExitdir(from)
	toExit := trackdir.TrackdirToExitdir(to)
	diff := (int(toExit) - int(fromExit) + 4) % 4
	return diff == 2
}

func (f *Finder) endNodeCheck(current aystar.Node) bool {
	switch f.target.Kind {
	case TargetStation:
		for _, t := range f.target.StationTiles {
			if t == current.Tile {
				return true
			}
		}
		return false
	case TargetDepotBreadthFirst:
		return f.target.Tile == current.Tile
	case TargetDepotTrialError:
		if current.Tile == f.target.Depots[f.trialIdx] {
			return true
		}
		return false
	default:
		return current.Tile == f.target.Tile
	}
}

// beforeExit implements spec.md §4.6's PBS commit step: walk the found
// path backward from the endpoint, reserving every track until leaving the
// signalled block. If any step is already reserved by another path,
// ReservePath rolls the whole attempt back; that outcome is not reported
// to the caller.
func (f *Finder) beforeExit(eng *aystar.Engine) {
	if f.PBS == PBSNone {
		return
	}
	path := eng.Path()
	if len(path) == 0 {
		return
	}
	var steps []signal.PathStep
	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		steps = append(steps, signal.PathStep{Tile: n.Tile, Track: n.Trackdir.ToTrack()})
		if signal.HasSignalOnTrackdir(f.Map.At(n.Tile), n.Trackdir) {
			break
		}
	}
	signal.ReservePath(f.Map, steps)
}

func (f *Finder) railSignalPenalty(current aystar.Node) int64 {
	t := f.Map.At(current.Tile)
	if !signal.HasSignalOnTrackdir(t, current.Trackdir) {
		return 0
	}
	if signal.IsGreen(t, current.Trackdir) {
		return 0
	}
	if f.target.Kind == TargetTile && f.Map.DistanceManhattan(current.Tile, f.target.Tile) <= 1 {
		return f.Penalties.LastRedBeforeGoal
	}
	return f.Penalties.FirstRedSignal
}

func (f *Finder) crossesLevelCrossing(current aystar.Node) bool {
	t := f.Map.At(current.Tile)
	return t.Kind == grid.KindStreet && t.M5>>4 == 1 // road sub-kind 1: level crossing
}

func (f *Finder) tileSlopesUp(from, to grid.TileIndex) bool {
	_, fromZ := f.Map.SlopeOf(from)
	_, toZ := f.Map.SlopeOf(to)
	return toZ > fromZ
}

func isBuoyTile(t *grid.Tile) bool {
	return t.Kind == grid.KindWater && t.M3&0x1 != 0
}

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
