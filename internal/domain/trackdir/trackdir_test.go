package trackdir

import "testing"

func allValidTrackdirs() []Trackdir {
	var out []Trackdir
	for t := Trackdir(0); t < TrackdirEnd; t++ {
		if reverseTrackdirTable[t] != TrackdirInvalid || t == trackdirUnused6 {
			if int(t) == 6 || int(t) == 7 || int(t) == 14 || int(t) == 15 {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

func TestReverseTrackdirIsInvolution(t *testing.T) {
	for _, td := range allValidTrackdirs() {
		if got := ReverseTrackdir(ReverseTrackdir(td)); got != td {
			t.Fatalf("ReverseTrackdir(ReverseTrackdir(%v)) = %v, want %v", td, got, td)
		}
	}
}

func TestTrackRoundTrip(t *testing.T) {
	for tr := Track(0); tr < TrackEnd; tr++ {
		if got := tr.ToTrackdir().ToTrack(); got != tr {
			t.Fatalf("ToTrack(ToTrackdir(%v)) = %v, want %v", tr, got, tr)
		}
	}
}

func TestTrackdirReachesTrackdirsAgreesWithExitdir(t *testing.T) {
	for _, td := range allValidTrackdirs() {
		exit := TrackdirToExitdir(td)
		diagTd := DiagdirToDiagTrackdir(exit)
		reaches := TrackdirReachesTrackdirs(td)
		if !reaches.HasTrackdir(diagTd) {
			t.Fatalf("TrackdirReachesTrackdirs(%v) missing diag trackdir %v for exit %v", td, diagTd, exit)
		}
	}
}

// canonicalExitdirReachesTrackdirs mirrors the original engine's
// _exitdir_reaches_trackdirs table exactly (rail.c): each exit direction
// reaches precisely three trackdirs.
var canonicalExitdirReachesTrackdirs = map[DiagDir][]Trackdir{
	DiagDirNE: {TrackdirDiag1NE, TrackdirLowerE, TrackdirLeftN},
	DiagDirSE: {TrackdirDiag2SE, TrackdirLeftS, TrackdirUpperE},
	DiagDirSW: {TrackdirDiag1SW, TrackdirUpperW, TrackdirRightS},
	DiagDirNW: {TrackdirDiag2NW, TrackdirRightN, TrackdirLowerW},
}

func TestTrackdirReachesTrackdirsMatchesCanonicalTable(t *testing.T) {
	for diag, want := range canonicalExitdirReachesTrackdirs {
		entry := DiagdirToDiagTrackdir(diag)
		got := TrackdirReachesTrackdirs(entry)

		var wantBits TrackdirBits
		for _, td := range want {
			wantBits |= 1 << uint(td)
		}

		if got != wantBits {
			t.Fatalf("TrackdirReachesTrackdirs(%v) = %#04x, want %#04x (%v)", diag, uint16(got), uint16(wantBits), want)
		}
	}
}

func TestTrackBitsRoundTrip(t *testing.T) {
	for tr := Track(0); tr < TrackEnd; tr++ {
		bits := tr.ToTrackBits()
		if bits.Count() != 1 {
			t.Fatalf("Track %v should widen to exactly one bit, got %d", tr, bits.Count())
		}
		if !bits.HasTrack(tr) {
			t.Fatalf("TrackBits for %v does not report HasTrack", tr)
		}
	}
}
