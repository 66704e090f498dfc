// Package grid implements the packed tile grid and its coordinate math: a
// torus-shaped rectangle whose side lengths are powers of two, plus the
// per-tile bit-packed state described in spec.md §3 and §6.
package grid

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// TileIndex packs (x, y) as (y << logX) | x, matching spec.md §4.1.
type TileIndex uint32

// Kind tags the payload interpretation of a tile.
type Kind uint8

const (
	KindClear Kind = iota
	KindRailway
	KindStreet
	KindHouse
	KindTrees
	KindStation
	KindWater
	KindVoid
	KindIndustry
	KindTunnelBridge
	KindUnmovable
	kindEnd
)

// Owner identifies the controlling player or a reserved pseudo-owner.
type Owner int16

const (
	OwnerNone  Owner = -1
	OwnerTown  Owner = -2
	OwnerWater Owner = -3
)

// Tile is the fixed-size per-cell record. Field names and payload meaning
// follow spec.md §3/§6 bit-for-bit so pathfinding and signalling agree.
type Tile struct {
	Kind   Kind
	Height uint8 `validate:"lte=15"`
	Owner  Owner
	M2     uint16
	M3     uint8
	M4     uint8
	M5     uint8
	Extra  uint8
}

func (t *Tile) validateTile() error {
	return validate.Struct(t)
}

// Map is the packed grid: a power-of-two torus of width 1<<LogX and height
// 1<<LogY (both <= 12 per spec.md §3 Non-goals).
type Map struct {
	LogX, LogY uint
	Tiles      []Tile
}

// NewMap allocates a map with every tile defaulted to the void border kind;
// callers must carve out the interior with SetTile before use.
func NewMap(logX, logY uint) *Map {
	if logX > 12 || logY > 12 {
		panic("grid: log_x/log_y must be <= 12 (spec.md Non-goals)")
	}
	size := 1 << (logX + logY)
	m := &Map{LogX: logX, LogY: logY, Tiles: make([]Tile, size)}
	for i := range m.Tiles {
		m.Tiles[i].Kind = KindVoid
		m.Tiles[i].Owner = OwnerNone
	}
	return m
}

// Width and Height in tiles.
func (m *Map) Width() uint32  { return 1 << m.LogX }
func (m *Map) Height() uint32 { return 1 << m.LogY }

// TileOf packs (x, y) into a TileIndex.
func (m *Map) TileOf(x, y uint32) TileIndex {
	return TileIndex((y << m.LogX) | x)
}

// XOf and YOf unpack a TileIndex.
func (m *Map) XOf(t TileIndex) uint32 { return uint32(t) & (m.Width() - 1) }
func (m *Map) YOf(t TileIndex) uint32 { return uint32(t) >> m.LogX }

// At returns a pointer to the tile's mutable state.
func (m *Map) At(t TileIndex) *Tile { return &m.Tiles[t] }

// IsBorder reports whether tile t lies on the void border ring, which is
// never entered by any vehicle (spec.md §3 invariant).
func (m *Map) IsBorder(t TileIndex) bool {
	x, y := m.XOf(t), m.YOf(t)
	return x == 0 || y == 0 || x == m.Width()-1 || y == m.Height()-1
}

// AddWrapped returns the tile at (x+dx, y+dy), wrapping on the torus, or
// false if the destination would land outside the non-void interior
// rectangle (i.e. on the border ring).
func (m *Map) AddWrapped(t TileIndex, dx, dy int32) (TileIndex, bool) {
	x := int32(m.XOf(t)) + dx
	y := int32(m.YOf(t)) + dy
	w, h := int32(m.Width()), int32(m.Height())
	x = ((x % w) + w) % w
	y = ((y % h) + h) % h
	nt := m.TileOf(uint32(x), uint32(y))
	if m.IsBorder(nt) {
		return 0, false
	}
	return nt, true
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func wrapDelta(a, b, size int32) int32 {
	d := a - b
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// DistanceManhattan is |dx| + |dy| under torus wraparound.
func (m *Map) DistanceManhattan(a, b TileIndex) int32 {
	dx := wrapDelta(int32(m.XOf(a)), int32(m.XOf(b)), int32(m.Width()))
	dy := wrapDelta(int32(m.YOf(a)), int32(m.YOf(b)), int32(m.Height()))
	return absInt32(dx) + absInt32(dy)
}

// DistanceSquare is dx*dx + dy*dy under torus wraparound.
func (m *Map) DistanceSquare(a, b TileIndex) int64 {
	dx := int64(wrapDelta(int32(m.XOf(a)), int32(m.XOf(b)), int32(m.Width())))
	dy := int64(wrapDelta(int32(m.YOf(a)), int32(m.YOf(b)), int32(m.Height())))
	return dx*dx + dy*dy
}

// DistanceMax is max(|dx|, |dy|).
func (m *Map) DistanceMax(a, b TileIndex) int32 {
	dx := absInt32(wrapDelta(int32(m.XOf(a)), int32(m.XOf(b)), int32(m.Width())))
	dy := absInt32(wrapDelta(int32(m.YOf(a)), int32(m.YOf(b)), int32(m.Height())))
	if dx > dy {
		return dx
	}
	return dy
}

// DistanceMaxPlusManhattan is DistanceMax + DistanceManhattan, a common NPF
// heuristic blend for curved diagonal travel.
func (m *Map) DistanceMaxPlusManhattan(a, b TileIndex) int32 {
	return m.DistanceMax(a, b) + m.DistanceManhattan(a, b)
}

// DistanceFromEdge returns the Chebyshev distance from tile t to the
// nearest border-ring tile.
func (m *Map) DistanceFromEdge(t TileIndex) uint32 {
	x, y := m.XOf(t), m.YOf(t)
	w, h := m.Width()-1, m.Height()-1
	dists := []uint32{x, w - x, y, h - y}
	min := dists[0]
	for _, d := range dists[1:] {
		if d < min {
			min = d
		}
	}
	return min
}

// Slope is a 4-bit corner-raised mask; values 16..30 flag a "steep" slope
// (one corner raised two units above its diagonal neighbours).
type Slope uint8

const (
	SlopeFlat Slope = 0
	CornerW   Slope = 1 << 0
	CornerS   Slope = 1 << 1
	CornerE   Slope = 1 << 2
	CornerN   Slope = 1 << 3
	SlopeSteep Slope = 1 << 4
)

// CornerHeights returns the four corner altitudes (N, E, S, W) for tile t,
// read from t's own Height and its three wrapped neighbours, exactly as the
// source engine derives slope from adjacent tile heights.
func (m *Map) CornerHeights(t TileIndex) (n, e, s, w uint8) {
	n = m.At(t).Height
	if et, ok := m.AddWrapped(t, 1, 0); ok {
		e = m.At(et).Height
	} else {
		e = n
	}
	if st, ok := m.AddWrapped(t, 0, 1); ok {
		s = m.At(st).Height
	} else {
		s = n
	}
	if wt, ok := m.AddWrapped(t, 1, 1); ok {
		w = m.At(wt).Height
	} else {
		w = n
	}
	return
}

// SlopeOf derives the 4-bit raised-corner mask and base z for tile t from
// its four corner heights.
func (m *Map) SlopeOf(t TileIndex) (Slope, uint8) {
	n, e, s, w := m.CornerHeights(t)
	base := minU8(minU8(n, e), minU8(s, w))
	var sl Slope
	if n > base {
		sl |= CornerN
	}
	if e > base {
		sl |= CornerE
	}
	if s > base {
		sl |= CornerS
	}
	if w > base {
		sl |= CornerW
	}
	maxH := maxU8(maxU8(n, e), maxU8(s, w))
	if maxH-base >= 2 {
		sl |= SlopeSteep
	}
	return sl, base
}

func minU8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// PartialZ linearly interpolates height across a slope at sub-tile
// fractional coordinates (0..15), used to place a vehicle mid-tile.
func PartialZ(xFrac, yFrac uint8, tileh Slope, baseZ uint8) uint8 {
	z := int(baseZ)
	has := func(c Slope) bool { return tileh&c != 0 }
	// Linear blend of the four raised corners proportional to the fractional
	// position; each raised corner contributes up to 7 (15*15/30, just under
	// half a height unit in the 16-step sub-tile grid) scaled by proximity.
	if has(CornerW) {
		z += int(xFrac) * int(yFrac) / (15 * 2)
	}
	if has(CornerE) {
		z += int(15-xFrac) * int(yFrac) / (15 * 2)
	}
	if has(CornerS) {
		z += int(xFrac) * int(15-yFrac) / (15 * 2)
	}
	if has(CornerN) {
		z += int(15-xFrac) * int(15-yFrac) / (15 * 2)
	}
	return uint8(z)
}

// RailSubKind decodes the top two bits of a railway tile's M5 (spec.md §6).
type RailSubKind uint8

const (
	RailSubKindPlain RailSubKind = iota
	RailSubKindSignals
	railSubKindUnused
	RailSubKindDepotWaypoint
)

func (t *Tile) RailSubKind() RailSubKind {
	return RailSubKind(t.M5 >> 6)
}

// RailTrackBits reads the low six bits of M5 for plain/signalled rail.
func (t *Tile) RailTrackBits() uint8 {
	return t.M5 & 0x3F
}

// DepotExitDiagDir reads the low two bits of M5 for a depot/waypoint tile.
func (t *Tile) DepotExitDiagDir() uint8 {
	return t.M5 & 0x3
}

// IsWaypoint reports whether a depot-subkind tile is a waypoint (subtype 4)
// rather than a plain depot (subtype 0), bits [5:2] of M5.
func (t *Tile) IsWaypoint() bool {
	return (t.M5>>2)&0xF == 4
}
