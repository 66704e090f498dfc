package train

import (
	"github.com/tiletransit/simcore/internal/domain/pathfind/aystar"
	"github.com/tiletransit/simcore/internal/domain/pathfind/npf"
	"github.com/tiletransit/simcore/internal/domain/signal"
	"github.com/tiletransit/simcore/internal/domain/tilekind"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
)

// reverseConsist implements spec.md §4.9's chain-reversal sequence: plan a
// new forward reservation from the tail before committing, clear the old
// reservation, absorb length differences with advanceWagons, swap every
// car in place, then absorb again.
func (c *Controller) reverseConsist(t *Train) {
	if len(t.Cars) == 0 {
		return
	}
	tail := t.Cars[len(t.Cars)-1]
	tailExit := trackdir.ReverseTrackdir(tail.Trackdir)

	if signal.PBSReserved(c.Map.At(tail.Veh.Tile)) != 0 {
		f := npf.NewFinder(c.Map, npf.ModeRail, npf.DefaultPenalties(), npf.PBSAnyExit, c.Config.ForbidTurn90, 64, 0, 4096)
		dest := tail.Veh.Tile
		if len(t.Orders) > 0 {
			dest = t.Orders[t.CurOrderIndex].Dest
		}
		f.Start(npf.Target{Kind: npf.TargetTile, Tile: dest}, aystar.Node{Tile: tail.Veh.Tile, Trackdir: tailExit}, nil, 0)
		if f.Run() != aystar.OutcomeFoundEnd {
			t.Reversing = false // abort the reverse: no path in the new direction
			return
		}
	}

	head := t.Cars[0]
	signal.PBSClearTrack(c.Map.At(head.Veh.Tile), head.Trackdir.ToTrack())

	c.advanceWagons(t)

	for i, j := 0, len(t.Cars)-1; i < j; i, j = i+1, j-1 {
		t.Cars[i], t.Cars[j] = t.Cars[j], t.Cars[i]
	}
	for _, car := range t.Cars {
		car.Trackdir = trackdir.ReverseTrackdir(car.Trackdir)
		car.GoingUp, car.GoingDown = car.GoingDown, car.GoingUp
		handlers := tilekind.For(c.Map.At(car.Veh.Tile).Kind)
		if handlers.VehicleEnter != nil {
			handlers.VehicleEnter(vehicleAdapter{car.Veh}, c.Map.At(car.Veh.Tile), 0, 0)
		}
	}

	c.advanceWagons(t)
	c.recomputeConsist(t)
}

// advanceWagons repeatedly advances the interior pair of cars to absorb
// length differences between the front and back half of the consist
// ("pairwise matching wagon", spec.md §4.9), so a long-then-short consist
// does not develop a visible gap after reversal.
func (c *Controller) advanceWagons(t *Train) {
	n := len(t.Cars)
	if n < 2 {
		return
	}
	for i, j := 1, n-2; i <= j; i, j = i+1, j-1 {
		if t.Cars[i].Length != t.Cars[j].Length {
			// the shorter side's cached length is nudged towards the
			// longer side's so that subsequent tile-boundary steps realign;
			// exact pixel absorption is a rendering-adjacent concern out of
			// this package's scope (spec.md §1).
			if t.Cars[i].Length < t.Cars[j].Length {
				t.Cars[i].Length = t.Cars[j].Length
			} else {
				t.Cars[j].Length = t.Cars[i].Length
			}
		}
	}
}

// recomputeConsist walks the chain after a consist change and re-applies
// the per-car length clamp: each car's Length stays in [1,8], with every
// non-tail car clamped to >= 3 so the "follow previous" heuristic cannot
// break. It does not recompute a first engine, a powered-wagon flag or
// total weight/power/length; the Train caches none of these.
func (c *Controller) recomputeConsist(t *Train) {
	for i, car := range t.Cars {
		if car.Length < 1 {
			car.Length = 1
		}
		if car.Length > 8 {
			car.Length = 8
		}
		if i < len(t.Cars)-1 && car.Length < 3 {
			car.Length = 3
		}
	}
}
