// Package simcontext consolidates the engine's global mutable state
// (spec.md §9 "Global mutable state": `_current_player`, `_m`,
// `_vehicle_pool`, the per-mode controllers, `_patches`) into one
// threaded-through struct, per that section's guidance to avoid package
// globals. Scratch structures owned by subsystems (the AyStar engine) stay
// inside their own packages and are reset, not reallocated, per call — SimulationContext only owns the long-lived
// aggregates: the grid, the vehicle pool, and the per-mode controllers.
package simcontext

import (
	"github.com/tiletransit/simcore/internal/application/common"
	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/roadveh"
	"github.com/tiletransit/simcore/internal/domain/ship"
	"github.com/tiletransit/simcore/internal/domain/shared"
	"github.com/tiletransit/simcore/internal/domain/train"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
	"github.com/tiletransit/simcore/internal/infrastructure/config"
)

// Context is the per-run simulation state: one per game/test, never a
// package-level singleton.
type Context struct {
	Map   *grid.Map
	Pool  *vehicle.Pool
	Clock *shared.SimClock

	Trains *train.Controller
	Roads  *roadveh.Controller
	Ships  *ship.Controller

	// CurrentPlayer is set by the command dispatcher for the duration of a
	// DoCommand call and restored after (spec.md §4.12).
	CurrentPlayer grid.Owner

	Logger common.ContainerLogger

	trains   map[uint32]*train.Train
	roadVehs map[uint32]*roadveh.RoadVehicle
	ships    map[uint32]*ship.Ship
}

// New builds a Context from loaded configuration and a fresh grid, ready
// to accept vehicles and commands.
func New(m *grid.Map, cfg *config.SimConfig) (*Context, error) {
	pool, err := vehicle.NewPool()
	if err != nil {
		return nil, err
	}
	tcfg := train.DefaultConfig()
	tcfg.DepotDwellTicks = uint32(cfg.DepotDwellTicks)
	tcfg.WaitOnewaySignalTicks = uint32(cfg.WaitOneWaySignal)
	tcfg.WaitTwowaySignalTicks = uint32(cfg.WaitTwoWaySignal)
	return &Context{
		Map:      m,
		Pool:     pool,
		Clock:    shared.NewSimClock(0),
		Trains:   train.NewController(m, pool, tcfg),
		Roads:    roadveh.NewController(m, pool),
		Ships:    ship.NewController(m, pool),
		Logger:   &noopLogger{},
		trains:   make(map[uint32]*train.Train),
		roadVehs: make(map[uint32]*roadveh.RoadVehicle),
		ships:    make(map[uint32]*ship.Ship),
	}, nil
}

// RegisterTrain/RoadVeh/Ship associate a pool vehicle id with its
// kind-specific state, so the tick loop can dispatch by Kind without a
// type switch leaking into every caller.
func (c *Context) RegisterTrain(t *train.Train) {
	if len(t.Cars) == 0 {
		return
	}
	c.trains[t.Cars[0].Veh.ID] = t
}
func (c *Context) RegisterRoadVeh(rv *roadveh.RoadVehicle) { c.roadVehs[rv.Veh.ID] = rv }
func (c *Context) RegisterShip(s *ship.Ship)               { c.ships[s.Veh.ID] = s }

func (c *Context) Train(id uint32) *train.Train             { return c.trains[id] }
func (c *Context) RoadVeh(id uint32) *roadveh.RoadVehicle { return c.roadVehs[id] }
func (c *Context) Ship(id uint32) *ship.Ship                 { return c.ships[id] }

// Tick advances every vehicle through its controller once, in pool order
// (spec.md §5's "dispatch order every downstream system relies on for
// determinism"), then steps the clock.
func (c *Context) Tick() []*shared.InvariantViolation {
	var violations []*shared.InvariantViolation
	for id := uint32(0); id < vehicle.MaxVehicles; id++ {
		v := c.Pool.Get(id)
		if v == nil {
			continue
		}
		switch v.Kind {
		case vehicle.KindTrain:
			if t := c.trains[id]; t != nil {
				if iv := c.Trains.Tick(t, c.Clock.Now()); iv != nil {
					violations = append(violations, iv)
				}
			}
		case vehicle.KindRoadVeh:
			if rv := c.roadVehs[id]; rv != nil {
				c.Roads.Tick(rv)
			}
		case vehicle.KindShip:
			if s := c.ships[id]; s != nil {
				c.Ships.Tick(s)
			}
		}
	}
	c.Clock.Advance()
	return violations
}

type noopLogger struct{}

func (*noopLogger) Log(level, message string, metadata map[string]interface{}) {}
