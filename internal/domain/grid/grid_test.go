package grid

import "testing"

func TestTileOfRoundTrip(t *testing.T) {
	m := NewMap(4, 3)
	for y := uint32(0); y < m.Height(); y++ {
		for x := uint32(0); x < m.Width(); x++ {
			ti := m.TileOf(x, y)
			if gx, gy := m.XOf(ti), m.YOf(ti); gx != x || gy != y {
				t.Fatalf("TileOf(%d,%d) round trip got (%d,%d)", x, y, gx, gy)
			}
		}
	}
}

func TestIsBorderMatchesEdgeRing(t *testing.T) {
	m := NewMap(3, 3) // 8x8
	for y := uint32(0); y < m.Height(); y++ {
		for x := uint32(0); x < m.Width(); x++ {
			ti := m.TileOf(x, y)
			want := x == 0 || y == 0 || x == m.Width()-1 || y == m.Height()-1
			if got := m.IsBorder(ti); got != want {
				t.Fatalf("IsBorder(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestAddWrappedRejectsBorderDestination(t *testing.T) {
	m := NewMap(3, 3) // 8x8, border ring at x/y in {0,7}
	interior := m.TileOf(1, 1)
	if _, ok := m.AddWrapped(interior, -1, -1); ok {
		t.Fatalf("expected AddWrapped to reject landing on the border ring")
	}
}

func TestAddWrappedAcceptsInteriorStep(t *testing.T) {
	m := NewMap(3, 3) // 8x8, interior is x,y in [1,6]
	a := m.TileOf(2, 3)
	got, ok := m.AddWrapped(a, -1, 0)
	if !ok {
		t.Fatalf("expected a one-tile step within the interior to succeed")
	}
	if gx, gy := m.XOf(got), m.YOf(got); gx != 1 || gy != 3 {
		t.Fatalf("AddWrapped(x=2,dx=-1) = (%d,%d), want (1,3)", gx, gy)
	}
}

func TestDistanceManhattanUsesShortestTorusPath(t *testing.T) {
	m := NewMap(4, 4) // 16x16
	a := m.TileOf(1, 5)
	b := m.TileOf(15, 5)
	// going the "wrap" way (1 -> 0 -> 15) is 2 tiles, vs 14 the long way.
	if got := m.DistanceManhattan(a, b); got != 2 {
		t.Fatalf("DistanceManhattan wraparound = %d, want 2", got)
	}
}

func TestDistanceSquareIsSquaredOffsetOnAxisAlignedPoints(t *testing.T) {
	m := NewMap(4, 4)
	a := m.TileOf(2, 2)
	b := m.TileOf(5, 2)
	if got := m.DistanceSquare(a, b); got != 9 {
		t.Fatalf("DistanceSquare = %d, want 9", got)
	}
}

func TestDistanceMaxPlusManhattanCombinesBothMetrics(t *testing.T) {
	m := NewMap(4, 4)
	a := m.TileOf(2, 2)
	b := m.TileOf(5, 4)
	dm := m.DistanceMax(a, b)
	dManhattan := m.DistanceManhattan(a, b)
	if got := m.DistanceMaxPlusManhattan(a, b); got != dm+dManhattan {
		t.Fatalf("DistanceMaxPlusManhattan = %d, want %d", got, dm+dManhattan)
	}
}

func TestDistanceFromEdgeIsZeroOnBorder(t *testing.T) {
	m := NewMap(3, 3)
	border := m.TileOf(0, 3)
	if got := m.DistanceFromEdge(border); got != 0 {
		t.Fatalf("DistanceFromEdge(border tile) = %d, want 0", got)
	}
}

func TestSlopeOfFlatTileHasNoRaisedCorners(t *testing.T) {
	m := NewMap(3, 3)
	for i := range m.Tiles {
		m.Tiles[i].Height = 5
	}
	sl, base := m.SlopeOf(m.TileOf(3, 3))
	if sl != SlopeFlat {
		t.Fatalf("SlopeOf flat tile = %v, want SlopeFlat", sl)
	}
	if base != 5 {
		t.Fatalf("SlopeOf base = %d, want 5", base)
	}
}

func TestSlopeOfRaisedNorthCorner(t *testing.T) {
	m := NewMap(3, 3)
	for i := range m.Tiles {
		m.Tiles[i].Height = 5
	}
	tile := m.TileOf(3, 3)
	m.At(tile).Height = 6
	sl, base := m.SlopeOf(tile)
	if sl&CornerN == 0 {
		t.Fatalf("SlopeOf raised north corner missing CornerN bit, got %v", sl)
	}
	if base != 5 {
		t.Fatalf("SlopeOf base = %d, want 5", base)
	}
}

func TestPartialZIgnoresRaisedNCornerAtOppositeCorner(t *testing.T) {
	base := uint8(10)
	// CornerN's weight (15-x)*(15-y) is zero at (xFrac=15, yFrac=15).
	if got := PartialZ(15, 15, CornerN, base); got != base {
		t.Fatalf("PartialZ at (15,15) with only CornerN raised = %d, want %d", got, base)
	}
}

func TestRailSubKindAndTrackBitsPackIntoM5(t *testing.T) {
	tile := &Tile{Kind: KindRailway}
	tile.M5 = uint8(RailSubKindSignals)<<6 | 0x2A
	if got := tile.RailSubKind(); got != RailSubKindSignals {
		t.Fatalf("RailSubKind() = %v, want RailSubKindSignals", got)
	}
	if got := tile.RailTrackBits(); got != 0x2A {
		t.Fatalf("RailTrackBits() = %#x, want 0x2a", got)
	}
}

func TestDepotExitDiagDirReadsLowTwoBits(t *testing.T) {
	tile := &Tile{Kind: KindRailway}
	tile.M5 = uint8(RailSubKindDepotWaypoint)<<6 | 2
	if got := tile.DepotExitDiagDir(); got != 2 {
		t.Fatalf("DepotExitDiagDir() = %d, want 2", got)
	}
}

func TestIsWaypointReadsSubtypeNibble(t *testing.T) {
	tile := &Tile{Kind: KindRailway}
	tile.M5 = uint8(RailSubKindDepotWaypoint)<<6 | (4 << 2)
	if !tile.IsWaypoint() {
		t.Fatalf("IsWaypoint() = false, want true for subtype nibble 4")
	}
}
