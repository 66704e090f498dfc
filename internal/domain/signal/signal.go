// Package signal implements the per-tile signal layout and PBS reservation
// bitmaps, plus UpdateSignalsOnSegment (C4). It is the one package that
// both the legacy follower (C7) and NPF's path-based-signalling mode (C6)
// depend on, so the reservation tables live here rather than in grid to
// keep grid free of signalling concerns.
package signal

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// SignalType is the per-trackdir signal kind packed into M4 bits [2:0].
type SignalType uint8

const (
	SignalNormal SignalType = iota
	SignalEntry
	SignalExit
	SignalCombo
	SignalPBS
)

// State is red or green.
type State uint8

const (
	StateRed State = iota
	StateGreen
)

// trackSlot maps a track to one of two nibble slots. A rail tile can carry
// signals on at most two parallel tracks at once (the same invariant the
// PBS reservation table enforces), so a track's along/against bits only
// ever need to live in one of two 2-bit slots regardless of which of the
// six tracks it is: the slot identifies which of the (at most) two
// signalled tracks on the tile this one is, not the track's own number.
func trackSlot(tr trackdir.Track) uint8 {
	switch tr {
	case trackdir.TrackDiag2, trackdir.TrackLower, trackdir.TrackRight:
		return 1
	default:
		return 0
	}
}

// isAlong reports whether td is the canonical (non-reversed) direction of
// its track, i.e. the direction Track.ToTrackdir would hand back.
func isAlong(td trackdir.Trackdir) bool {
	return td == td.ToTrack().ToTrackdir()
}

// nibbleBit returns the single bit within a 4-bit nibble for td's
// along/against slot.
func nibbleBit(td trackdir.Trackdir) uint8 {
	slot := trackSlot(td.ToTrack())
	b := slot * 2
	if !isAlong(td) {
		b++
	}
	return 1 << b
}

// HasSignalOnTrackdir reports whether M3's presence nibble has a bit set
// for td's along/against slot.
func HasSignalOnTrackdir(t *grid.Tile, td trackdir.Trackdir) bool {
	return (t.M3>>4)&nibbleBit(td) != 0
}

// IsGreen reads M2's state nibble for td's along/against slot.
func IsGreen(t *grid.Tile, td trackdir.Trackdir) bool {
	return (uint8(t.M2&0xFF)>>4)&nibbleBit(td) != 0
}

// SetGreen flips the green bit for td's along/against slot in M2, leaving
// every other trackdir's state untouched.
func SetGreen(t *grid.Tile, td trackdir.Trackdir, green bool) {
	bit := nibbleBit(td)
	lo := uint8(t.M2 & 0xFF)
	hi := lo >> 4
	if green {
		hi |= bit
	} else {
		hi &^= bit
	}
	lo = (lo & 0x0F) | (hi << 4)
	t.M2 = (t.M2 &^ 0xFF) | uint16(lo)
}

// TypeOf reads M4 bits [2:0].
func TypeOf(t *grid.Tile) SignalType { return SignalType(t.M4 & 0x7) }

// SetType writes M4 bits [2:0], preserving the semaphore flag and
// reservation nibble.
func SetType(t *grid.Tile, st SignalType) {
	t.M4 = (t.M4 &^ 0x7) | uint8(st)
}

// IsSemaphore reads M4 bit 3.
func IsSemaphore(t *grid.Tile) bool { return t.M4&0x8 != 0 }

// AddSignal installs a signal of type st along td, defaulting to red until
// SetGreen is called. semaphore selects the M4 bit-3 flag.
func AddSignal(t *grid.Tile, td trackdir.Trackdir, st SignalType, semaphore bool) {
	bit := nibbleBit(td)
	t.M3 = t.M3 | (bit << 4)
	SetType(t, st)
	if semaphore {
		t.M4 |= 0x8
	} else {
		t.M4 &^= 0x8
	}
}

// RemoveSignal clears td's presence bit and its green state.
func RemoveSignal(t *grid.Tile, td trackdir.Trackdir) {
	bit := nibbleBit(td)
	t.M3 = t.M3 &^ (bit << 4)
	SetGreen(t, td, false)
}

// AnySignalPresent reports whether any trackdir on t still carries a
// signal, used to decide whether a tile demotes back to plain rail.
func AnySignalPresent(t *grid.Tile) bool {
	return t.M3>>4 != 0
}

// --- PBS reservation -------------------------------------------------

// reservation codes: the 16-entry forward table maps "1 track, or 2
// parallel tracks" TrackBits to a compact 4-bit code. Only 14 of the 16
// codes are ever produced (spec.md §3); codes 14/15 are invalid and must
// never arise.
var reservationForward = map[trackdir.TrackBits]uint8{
	trackdir.TrackBitNone:                        0,
	trackdir.TrackBitDiag1:                        1,
	trackdir.TrackBitDiag2:                        2,
	trackdir.TrackBitUpper:                        3,
	trackdir.TrackBitLower:                        4,
	trackdir.TrackBitLeft:                         5,
	trackdir.TrackBitRight:                        6,
	trackdir.TrackBitUpper | trackdir.TrackBitLower: 7,
	trackdir.TrackBitLeft | trackdir.TrackBitRight:  8,
	trackdir.TrackBitDiag1 | trackdir.TrackBitDiag2: 9,
	trackdir.TrackBitUpper | trackdir.TrackBitLeft:  10,
	trackdir.TrackBitUpper | trackdir.TrackBitRight: 11,
	trackdir.TrackBitLower | trackdir.TrackBitLeft:  12,
	trackdir.TrackBitLower | trackdir.TrackBitRight: 13,
}

var reservationInverse = func() map[uint8]trackdir.TrackBits {
	m := make(map[uint8]trackdir.TrackBits, len(reservationForward))
	for bits, code := range reservationForward {
		m[code] = bits
	}
	return m
}()

// reservationNibble reads/writes M4 bits [7:4].
func reservationNibble(t *grid.Tile) uint8    { return t.M4 >> 4 }
func setReservationNibble(t *grid.Tile, v uint8) { t.M4 = (t.M4 & 0x0F) | (v << 4) }

// PBSReserved returns the currently reserved TrackBits for a plain-rail
// tile. Non-rail kinds and crossings/depots/stations/bridges use a
// kind-local single bit and are handled by their own reader (not modelled
// here; out of scope for the plain-rail contract this package guarantees).
func PBSReserved(t *grid.Tile) trackdir.TrackBits {
	code := reservationNibble(t)
	bits, ok := reservationInverse[code]
	if !ok {
		// an invalid code must never arise (spec.md §4.4); treat as empty
		// rather than panic on a read path used by UI/metrics too.
		return trackdir.TrackBitNone
	}
	return bits
}

// PBSUnavailableTrackdirs is the union of the along and against trackdirs
// of every reserved track — i.e. both directions through a claimed track
// are unavailable to a second train.
func PBSUnavailableTrackdirs(t *grid.Tile) trackdir.TrackdirBits {
	return trackdir.TrackBitsToTrackdirBits(PBSReserved(t))
}

// PBSReserveTrack sets track's reservation bit, keeping any existing
// parallel reservation (at most two parallel tracks per plain-rail tile,
// spec.md §3 invariant). Returns false if reserving would exceed that
// invariant (e.g. a third, non-parallel track).
func PBSReserveTrack(t *grid.Tile, tr trackdir.Track) bool {
	current := PBSReserved(t)
	next := current | tr.ToTrackBits()
	code, ok := reservationForward[next]
	if !ok {
		return false
	}
	setReservationNibble(t, code)
	return true
}

// PBSClearTrack clears track's reservation bit.
func PBSClearTrack(t *grid.Tile, tr trackdir.Track) {
	current := PBSReserved(t)
	next := current &^ tr.ToTrackBits()
	code, ok := reservationForward[next]
	if !ok {
		code = 0
	}
	setReservationNibble(t, code)
}

// IsPBSSignal reports whether tile t carries a PBS-type signal along td.
func IsPBSSignal(t *grid.Tile, td trackdir.Trackdir) bool {
	return t.Kind == grid.KindRailway &&
		t.RailSubKind() == grid.RailSubKindSignals &&
		HasSignalOnTrackdir(t, td) &&
		TypeOf(t) == SignalPBS
}
