// Package aystar implements the generic, resumable A* engine (C5): a
// reusable search with pluggable cost/heuristic/neighbour/end-check hooks,
// driven in small bounded slices so a caller can spread one search across
// several ticks. Grounded on the teacher's `internal/application/mediator`
// pipeline: a small ordered set of hook slots invoked by a fixed driver
// loop, the same shape as the mediator's handler/middleware chain, here
// specialised to a search loop instead of a command pipeline.
package aystar

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// Node identifies one A* search vertex: a tile entered along a trackdir,
// plus two caller-owned scratch words (NPF stashes PBS/penalty flags here).
type Node struct {
	Tile      grid.TileIndex
	Trackdir  trackdir.Trackdir
	UserData  [2]uint32
}

// Hash reduces a Node to the engine's open/closed map key. Callers supply
// their own (NPF uses tile+trackdir, which is already a perfect key given
// TrackdirEnd==16), but the default here covers the common case.
func DefaultHash(n Node) uint64 {
	return uint64(n.Tile)<<5 | uint64(n.Trackdir)
}

// Outcome is the terminal state of a Run call.
type Outcome uint8

const (
	OutcomeStillBusy Outcome = iota
	OutcomeFoundEnd
	OutcomeNoPath
	OutcomeLimitReached
)

// Hooks is the full set of caller-supplied callbacks, matching spec.md
// §4.5's AyStar slots one-for-one.
type Hooks struct {
	Hash          func(n Node) uint64
	CalculateG    func(current, parent Node) (int64, bool)
	CalculateH    func(current, parent Node) int64
	GetNeighbours func(current Node) []Node
	EndNodeCheck  func(current Node) (found bool)
	FoundEndNode  func(current Node)
	BeforeExit    func(eng *Engine)
}

type openEntry struct {
	node   Node
	g, f   int64
	parent uint64 // hash of parent node; a root holds its own hash
}

// Engine is one resumable search instance. Callers reuse an Engine across
// Run calls by calling Reset, mirroring the source engine's single
// `_npf_aystar` scratch instance reused call to call instead of
// reallocated (spec.md §5 "Global mutable state" consolidation note).
type Engine struct {
	hooks Hooks

	open     map[uint64]*openEntry
	closed   map[uint64]*openEntry
	closedLRU *lru.Cache // capped mirror of closed-set insertions; never read back, and the closed map itself is unbounded

	LoopsPerTick   int // 0 = uncapped
	MaxPathCost    int64
	MaxSearchNodes int

	nodesVisited int
	path         []Node
	foundNode    Node
}

// NewEngine builds an Engine with the given hooks and limits.
// maxSearchNodes also sizes the LRU closed-node cache
// (github.com/hashicorp/golang-lru); Reset purges it, so nothing in it
// carries over from one search to the next.
func NewEngine(hooks Hooks, loopsPerTick int, maxPathCost int64, maxSearchNodes int) *Engine {
	if hooks.Hash == nil {
		hooks.Hash = DefaultHash
	}
	cacheSize := maxSearchNodes
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	c, _ := lru.New(cacheSize)
	return &Engine{
		hooks:          hooks,
		open:           make(map[uint64]*openEntry),
		closed:         make(map[uint64]*openEntry),
		closedLRU:      c,
		LoopsPerTick:   loopsPerTick,
		MaxPathCost:    maxPathCost,
		MaxSearchNodes: maxSearchNodes,
	}
}

// Reset clears all search state so the Engine can start a fresh Run,
// without reallocating its maps/cache.
func (e *Engine) Reset(start Node) {
	for k := range e.open {
		delete(e.open, k)
	}
	for k := range e.closed {
		delete(e.closed, k)
	}
	e.closedLRU.Purge()
	e.nodesVisited = 0
	e.path = nil
	h := e.hooks.Hash(start)
	e.open[h] = &openEntry{node: start, g: 0, f: e.hooks.CalculateH(start, start), parent: h}
}

// AddStart inserts an additional root node into the open set with its own
// starting cost, for searches with more than one entry point (NPF's
// two-way "reverse now vs go forward" start, spec.md §4.6). Must be called
// after Reset and before the first Run.
func (e *Engine) AddStart(start Node, g int64) {
	h := e.hooks.Hash(start)
	if _, exists := e.open[h]; exists {
		return
	}
	e.open[h] = &openEntry{node: start, g: g, f: g + e.hooks.CalculateH(start, start), parent: h}
}

// Run advances the search by up to LoopsPerTick expansions (or until
// exhaustion if LoopsPerTick<=0), returning the terminal or in-progress
// Outcome. Call Run again on OutcomeStillBusy to resume.
func (e *Engine) Run() Outcome {
	uncapped := e.LoopsPerTick <= 0
	budget := e.LoopsPerTick
	for uncapped || budget > 0 {
		if len(e.open) == 0 {
			return OutcomeNoPath
		}
		if e.MaxSearchNodes > 0 && e.nodesVisited >= e.MaxSearchNodes {
			return OutcomeLimitReached
		}

		h, cur := e.popBestOpen()
		e.nodesVisited++

		if e.hooks.EndNodeCheck(cur.node) {
			e.foundNode = cur.node
			e.closed[h] = cur
			e.reconstructPath(h)
			if e.hooks.FoundEndNode != nil {
				e.hooks.FoundEndNode(cur.node)
			}
			if e.hooks.BeforeExit != nil {
				e.hooks.BeforeExit(e)
			}
			return OutcomeFoundEnd
		}

		e.closed[h] = cur
		e.closedLRU.Add(h, cur)

		for _, nb := range e.hooks.GetNeighbours(cur.node) {
			g, ok := e.hooks.CalculateG(nb, cur.node)
			if !ok {
				continue
			}
			newG := cur.g + g
			if e.MaxPathCost > 0 && newG > e.MaxPathCost {
				continue
			}
			nh := e.hooks.Hash(nb)
			if existing, ok := e.closed[nh]; ok && existing.g <= newG {
				continue
			}
			if existing, ok := e.open[nh]; ok && existing.g <= newG {
				continue
			}
			f := newG + e.hooks.CalculateH(nb, cur.node)
			e.open[nh] = &openEntry{node: nb, g: newG, f: f, parent: h}
			delete(e.closed, nh)
		}

		if budget > 0 {
			budget--
		}
	}
	return OutcomeStillBusy
}

// popBestOpen removes and returns the lowest-f entry from the open set.
func (e *Engine) popBestOpen() (uint64, *openEntry) {
	var bestH uint64
	var best *openEntry
	for h, ent := range e.open {
		if best == nil || ent.f < best.f {
			bestH, best = h, ent
		}
	}
	delete(e.open, bestH)
	return bestH, best
}

// reconstructPath walks parent hashes from the found node back to the
// root, then reverses into travel order.
func (e *Engine) reconstructPath(foundHash uint64) {
	var rev []Node
	h := foundHash
	for {
		cur, ok := e.closed[h]
		if !ok {
			break
		}
		rev = append(rev, cur.node)
		if cur.parent == h {
			break
		}
		h = cur.parent
	}
	path := make([]Node, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	e.path = path
}

// Path returns the found path in travel order (start to end), valid only
// after Run returns OutcomeFoundEnd.
func (e *Engine) Path() []Node { return e.path }

// FoundNode is the node EndNodeCheck accepted, valid after OutcomeFoundEnd.
func (e *Engine) FoundNode() Node { return e.foundNode }

// NodesVisited reports how many nodes have been expanded so far in the
// current search, summed across resumed Run calls (reset by Reset), useful
// for metrics and tests.
func (e *Engine) NodesVisited() int { return e.nodesVisited }
