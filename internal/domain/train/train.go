// Package train implements the per-tick train controller (C9): the
// richest vehicle state machine in the simulation, covering ageing,
// crash/breakdown handling, reversing, order processing, station
// loading, depot dwell, acceleration, and sub-step movement with
// signal/PBS obedience; no collision check is performed (detectCollision
// is an empty step). Grounded on the teacher's
// `internal/application/navigation` orchestration (a per-tick `Handle`
// that walks a state machine calling into smaller domain services) and
// its `internal/domain/navigation` state transitions, generalized from a
// single-ship journey to a multi-car consist.
package train

import (
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/pathfind/aystar"
	"github.com/tiletransit/simcore/internal/domain/pathfind/npf"
	"github.com/tiletransit/simcore/internal/domain/shared"
	"github.com/tiletransit/simcore/internal/domain/signal"
	"github.com/tiletransit/simcore/internal/domain/trackdir"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

// OrderType tags what a train's current order asks it to do.
type OrderType uint8

const (
	OrderGoToStation OrderType = iota
	OrderGoToDepot
	OrderLoading
	OrderLeaveStation
)

// Order is one entry in a train's order list.
type Order struct {
	Type OrderType
	Dest grid.TileIndex
	FullLoad bool
	ServiceIfNeeded bool
}

// PBSState tracks whether a car's chosen path still needs (re)computing.
type PBSState uint8

const (
	PBSStateNone PBSState = iota
	PBSStateNeedsPath
	PBSStateReserved
)

// Car is one vehicle in a train consist, head first.
type Car struct {
	Veh      *vehicle.Vehicle
	Trackdir trackdir.Trackdir
	Length   uint8 // cached_veh_length, clamped to [1,8], non-tail >= 3
	Power    int32
	Weight   int32
	GoingUp, GoingDown bool
	Hidden   bool
}

// Train is the full per-tick aggregate for one consist: the head engine
// plus its cars, order list, and scratch fields the controller threads
// across ticks while a pathfinder call is still-busy.
type Train struct {
	Cars  []*Car
	Orders []Order
	CurOrderIndex int

	Speed        int32 // cur_speed, fixed-point
	Subspeed     uint8 // progress fraction, wraps mod 256
	Acceleration int32 // cached linear acceleration when not using the realistic model

	Crashed       bool
	CrashTicks    uint32
	BrokenDown    bool
	BreakdownCtr  uint32

	Reversing bool
	Stopped   bool

	LoadUnloadTimeRem uint16
	DaysSinceOrderProgress uint16

	InDepot     bool
	DepotDwellTicks uint32

	PBS         PBSState
	PBSPath     []signal.PathStep

	AgeTicks uint64

	LostTrainDaysThreshold uint16
}

// Config bundles the tunables the train controller needs from SimConfig
// (spec.md's `_patches` consolidation), per SPEC_FULL.md's AMBIENT STACK
// configuration section.
type Config struct {
	WaitOnewaySignalTicks uint32 // wait_oneway_signal * 20
	WaitTwowaySignalTicks uint32 // wait_twoway_signal * 73
	DepotDwellTicks       uint32 // >= 37 per spec.md §4.9 step 7
	ForbidTurn90          bool
	RealisticAcceleration bool
}

// DefaultConfig mirrors the literal tick counts spec.md §4.9 names.
func DefaultConfig() Config {
	return Config{
		WaitOnewaySignalTicks: 20,
		WaitTwowaySignalTicks: 73,
		DepotDwellTicks:       37,
		ForbidTurn90:          false,
		RealisticAcceleration: true,
	}
}

// Controller drives one Train's per-tick pipeline against a shared grid
// and vehicle pool. Stateless across trains; all per-train state lives on
// the Train value passed in.
type Controller struct {
	Map    *grid.Map
	Pool   *vehicle.Pool
	Config Config
}

// NewController builds a Controller over the given grid/pool.
func NewController(m *grid.Map, pool *vehicle.Pool, cfg Config) *Controller {
	return &Controller{Map: m, Pool: pool, Config: cfg}
}

// Tick advances t by one simulation tick, implementing spec.md §4.9's
// pipeline in order. Returns an InvariantViolation only for the fatal
// "disconnecting train" case; every other branch degrades the train's
// state (stopped, reversing, crashed) rather than erroring.
func (c *Controller) Tick(t *Train, now shared.Tick) *shared.InvariantViolation {
	if now%shared.Tick(8*shared.TicksPerDay) == 0 {
		c.ageTick(t)
	}
	if t.Crashed {
		c.crashTick(t)
		return nil
	}
	if t.BrokenDown {
		c.breakdownTick(t)
		if t.Speed == 0 {
			return nil
		}
	}
	if t.Stopped && t.Speed == 0 {
		return nil
	}
	if t.Reversing && t.Speed == 0 {
		c.reverseConsist(t)
		t.Reversing = false
	}

	c.processOrders(t)
	c.handleLoading(t)

	if t.InDepot {
		return c.depotDwell(t)
	}

	c.integrateSpeed(t)
	substeps := int(t.Speed >> 8)
	for i := 0; i < substeps; i++ {
		if err := c.subStepMovement(t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) ageTick(t *Train) {
	t.AgeTicks += 8 * uint64(shared.TicksPerDay)
}

func (c *Controller) crashTick(t *Train) {
	t.CrashTicks++
	if t.CrashTicks%32 == 0 && len(t.Cars) > 1 {
		t.Cars = t.Cars[:len(t.Cars)-1]
	}
}

// breakdownSpeedTable models the source's ctr-keyed slowdown: the closer
// breakdown_ctr is to its 16-tick end, the slower the train is allowed to
// go, reaching zero at the final tick.
var breakdownSpeedTable = [16]int32{100, 95, 90, 85, 78, 70, 62, 54, 46, 38, 30, 22, 16, 10, 5, 0}

func (c *Controller) breakdownTick(t *Train) {
	if t.BreakdownCtr >= uint32(len(breakdownSpeedTable)) {
		t.Speed = 0
		return
	}
	pct := breakdownSpeedTable[t.BreakdownCtr]
	t.Speed = t.Speed * pct / 100
	t.BreakdownCtr++
}

func (c *Controller) processOrders(t *Train) {
	if len(t.Orders) == 0 {
		return
	}
	cur := t.Orders[t.CurOrderIndex]
	if cur.Type == OrderGoToDepot && cur.ServiceIfNeeded && !c.needsService(t) {
		c.advanceOrder(t)
		return
	}
	if t.DaysSinceOrderProgress > t.LostTrainDaysThreshold && t.LostTrainDaysThreshold > 0 {
		// advisory only: emission is an ambient news concern, out of the
		// simulation core's scope (spec.md §1 explicitly excludes news
		// pop-ups); the counter itself is the durable state this package owns.
	}
}

func (c *Controller) needsService(t *Train) bool {
	return false
}

func (c *Controller) advanceOrder(t *Train) {
	if len(t.Orders) == 0 {
		return
	}
	t.CurOrderIndex = (t.CurOrderIndex + 1) % len(t.Orders)
	t.DaysSinceOrderProgress = 0
}

func (c *Controller) handleLoading(t *Train) {
	if len(t.Orders) == 0 || t.Orders[t.CurOrderIndex].Type != OrderLoading {
		return
	}
	if t.LoadUnloadTimeRem > 0 {
		t.LoadUnloadTimeRem--
		return
	}
	t.Orders[t.CurOrderIndex].Type = OrderLeaveStation
}

// depotDwell implements spec.md §4.9 step 7: a train parked with track
// bits 0x80 waits DepotDwellTicks, then tries to find a green exit either
// by a plain signal-segment update or, if the exit sits in a PBS block, by
// running NPF in pbs-green mode.
func (c *Controller) depotDwell(t *Train) *shared.InvariantViolation {
	t.DepotDwellTicks++
	if t.DepotDwellTicks < c.Config.DepotDwellTicks {
		return nil
	}
	head := t.Cars[0]
	tile := head.Veh.Tile
	td := head.Trackdir

	if signal.IsPBSSegment(c.Map, tile, td) {
		f := npf.NewFinder(c.Map, npf.ModeRail, npf.DefaultPenalties(), npf.PBSGreenOnly, c.Config.ForbidTurn90, 64, 0, 2048)
		f.Start(npf.Target{Kind: npf.TargetTile, Tile: tile}, aystar.Node{Tile: tile, Trackdir: td}, nil, 0)
		if outcome := f.Run(); outcome != aystar.OutcomeFoundEnd {
			return nil
		}
	} else {
		occupied := func(gt grid.TileIndex) bool { return false }
		signal.UpdateSignalsOnSegment(c.Map, tile, td, occupied)
		if !signal.IsGreen(c.Map.At(tile), td) {
			return nil
		}
	}

	t.InDepot = false
	t.DepotDwellTicks = 0
	return nil
}

// integrateSpeed computes this tick's speed, either via the cached linear
// model or the realistic acceleration model (spec.md §4.9 step 8), and
// advances the subspeed fraction, wrapping it modulo 256.
func (c *Controller) integrateSpeed(t *Train) {
	var accel int32
	if c.Config.RealisticAcceleration {
		accel = c.realisticAcceleration(t)
	} else {
		accel = t.Acceleration
	}
	newSub := int32(t.Subspeed) + accel
	t.Subspeed = uint8(newSub & 255)
	t.Speed += newSub >> 8
	if t.Speed < 0 {
		t.Speed = 0
	}
}

// realisticAcceleration folds the chain computing mass, tractive force,
// rolling resistance, and curve-based max speed, per spec.md §4.9's
// "Acceleration (realistic)" note.
func (c *Controller) realisticAcceleration(t *Train) int32 {
	var mass, power int32
	for _, car := range t.Cars {
		mass += car.Weight
		power += car.Power
	}
	if mass == 0 {
		return 0
	}
	tractiveForce := power * 746 / max32(t.Speed, 1)
	rolling := mass/256 + mass*t.Speed/20000
	maxSpeed := c.curveMaxSpeed(t)
	target := tractiveForce - rolling
	if t.Speed > maxSpeed {
		target -= (t.Speed - maxSpeed)
	}
	return clamp32(target/int32(len(t.Cars)+1), -64, 64)
}

// curveMaxSpeed derives a consist-wide speed ceiling from the chain: when
// any two adjacent cars are on different tracks it caps at 88*4 speed
// units, otherwise no extra cap is applied. The angle of the turn is not
// distinguished.
func (c *Controller) curveMaxSpeed(t *Train) int32 {
	tightest := int32(1 << 30)
	for i := 1; i < len(t.Cars); i++ {
		prev, cur := t.Cars[i-1].Trackdir, t.Cars[i].Trackdir
		if prev.ToTrack() == cur.ToTrack() {
			continue
		}
		tightest = min32(tightest, 88*4)
	}
	if tightest == 1<<30 {
		return 1 << 30
	}
	return tightest
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
