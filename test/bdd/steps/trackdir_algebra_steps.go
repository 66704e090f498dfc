package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// trackdirAlgebraContext holds the working value between Given/When/Then
// steps for one scenario.
type trackdirAlgebraContext struct {
	td     trackdir.Trackdir
	track  trackdir.Track
	diag   trackdir.DiagDir
	result trackdir.Trackdir
	err    error
}

func (c *trackdirAlgebraContext) reset() {
	c.td = trackdir.TrackdirInvalid
	c.track = trackdir.TrackInvalid
	c.result = trackdir.TrackdirInvalid
	c.err = nil
}

var trackdirByName = map[string]trackdir.Trackdir{
	"DIAG1_NE": trackdir.TrackdirDiag1NE,
	"DIAG2_SE": trackdir.TrackdirDiag2SE,
	"UPPER_E":  trackdir.TrackdirUpperE,
	"UPPER_W":  trackdir.TrackdirUpperW,
	"LOWER_E":  trackdir.TrackdirLowerE,
	"LOWER_W":  trackdir.TrackdirLowerW,
	"LEFT_S":   trackdir.TrackdirLeftS,
	"LEFT_N":   trackdir.TrackdirLeftN,
	"RIGHT_S":  trackdir.TrackdirRightS,
	"RIGHT_N":  trackdir.TrackdirRightN,
	"DIAG1_SW": trackdir.TrackdirDiag1SW,
	"DIAG2_NW": trackdir.TrackdirDiag2NW,
}

var trackByName = map[string]trackdir.Track{
	"DIAG1": trackdir.TrackDiag1,
	"DIAG2": trackdir.TrackDiag2,
	"UPPER": trackdir.TrackUpper,
	"LOWER": trackdir.TrackLower,
	"LEFT":  trackdir.TrackLeft,
	"RIGHT": trackdir.TrackRight,
}

var diagByName = map[string]trackdir.DiagDir{
	"NE": trackdir.DiagDirNE,
	"SE": trackdir.DiagDirSE,
	"SW": trackdir.DiagDirSW,
	"NW": trackdir.DiagDirNW,
}

func (c *trackdirAlgebraContext) theTrackdir(name string) error {
	td, ok := trackdirByName[name]
	if !ok {
		return fmt.Errorf("unknown trackdir %q", name)
	}
	c.td = td
	return nil
}

func (c *trackdirAlgebraContext) theTrack(name string) error {
	tr, ok := trackByName[name]
	if !ok {
		return fmt.Errorf("unknown track %q", name)
	}
	c.track = tr
	return nil
}

func (c *trackdirAlgebraContext) theDiagonalDirection(name string) error {
	d, ok := diagByName[name]
	if !ok {
		return fmt.Errorf("unknown diagonal %q", name)
	}
	c.diag = d
	return nil
}

func (c *trackdirAlgebraContext) iReverseItTwice() error {
	c.result = trackdir.ReverseTrackdir(trackdir.ReverseTrackdir(c.td))
	return nil
}

func (c *trackdirAlgebraContext) iReverseItOnce() error {
	c.result = trackdir.ReverseTrackdir(c.td)
	return nil
}

func (c *trackdirAlgebraContext) iConvertItToATrackdirAndBackToATrack() error {
	c.track = c.track.ToTrackdir().ToTrack()
	return nil
}

func (c *trackdirAlgebraContext) theResultShouldBe(name string) error {
	want, ok := trackdirByName[name]
	if !ok {
		return fmt.Errorf("unknown trackdir %q", name)
	}
	if c.result != want {
		return fmt.Errorf("got trackdir %d, want %d (%s)", c.result, want, name)
	}
	return nil
}

func (c *trackdirAlgebraContext) theResultingTrackShouldBe(name string) error {
	want, ok := trackByName[name]
	if !ok {
		return fmt.Errorf("unknown track %q", name)
	}
	if c.track != want {
		return fmt.Errorf("got track %v, want %v", c.track, want)
	}
	return nil
}

func (c *trackdirAlgebraContext) everyTrackdirReachableFromItExitsThroughTheSameDiagonal() error {
	exit := trackdir.TrackdirToExitdir(c.td)
	reach := trackdir.TrackdirReachesTrackdirs(c.td)
	for td := trackdir.Trackdir(0); td < trackdir.TrackdirEnd; td++ {
		if !reach.HasTrackdir(td) {
			continue
		}
		if trackdir.TrackdirToExitdir(td) != exit {
			return fmt.Errorf("trackdir %d reachable from %d exits through %v, not %v",
				td, c.td, trackdir.TrackdirToExitdir(td), exit)
		}
	}
	return nil
}

func (c *trackdirAlgebraContext) theDiagonalTrackdirForThatDirectionIsReachableFromATrackdirExitingThroughIt() error {
	diagTd := trackdir.DiagdirToDiagTrackdir(c.diag)
	reach := trackdir.TrackdirReachesTrackdirs(diagTd)
	if !reach.HasTrackdir(diagTd) {
		return fmt.Errorf("diag trackdir %d for %v is not reachable from itself", diagTd, c.diag)
	}
	return nil
}

// InitializeTrackdirAlgebraScenario registers the trackdir-algebra step
// definitions (spec.md §3/§4.3/§8 property 1).
func InitializeTrackdirAlgebraScenario(sc *godog.ScenarioContext) {
	c := &trackdirAlgebraContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^the trackdir "([^"]*)"$`, c.theTrackdir)
	sc.Step(`^the track "([^"]*)"$`, c.theTrack)
	sc.Step(`^the diagonal direction "([^"]*)"$`, c.theDiagonalDirection)
	sc.Step(`^I reverse it twice$`, c.iReverseItTwice)
	sc.Step(`^I reverse it once$`, c.iReverseItOnce)
	sc.Step(`^I convert it to a trackdir and back to a track$`, c.iConvertItToATrackdirAndBackToATrack)
	sc.Step(`^the result should be "([^"]*)"$`, c.theResultShouldBe)
	sc.Step(`^the resulting track should be "([^"]*)"$`, c.theResultingTrackShouldBe)
	sc.Step(`^every trackdir reachable from it exits through the same diagonal as entering it would$`,
		c.everyTrackdirReachableFromItExitsThroughTheSameDiagonal)
	sc.Step(`^the diagonal trackdir for that direction is reachable from a trackdir exiting through it$`,
		c.theDiagonalTrackdirForThatDirectionIsReachableFromATrackdirExitingThroughIt)
}
