// Package metrics implements the prometheus collectors SPEC_FULL.md's
// DOMAIN STACK table wires to the simulation loop: tick duration, vehicles
// ticked, pathfinder outcomes, signal flips, reservation conflicts, and AI
// state transitions. Grounded on the teacher's `adapters/metrics` package
// (market-metrics counters registered once at startup and updated from the
// application layer), generalized from market events to tick events.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles every gauge/counter/histogram this engine exposes.
// A single instance is registered once at daemon startup; the daemon's
// tick loop feeds it through ObserveTick. Nothing in this module updates
// the pathfinder, signal, reservation, AI or command counters.
type Collectors struct {
	TickDuration prometheus.Histogram
	VehiclesTicked prometheus.Counter

	PathfindOutcomes *prometheus.CounterVec // label "outcome": found|no-path|still-busy|limit-reached
	SignalFlips      prometheus.Counter
	ReservationConflicts prometheus.Counter
	AIStateTransitions   *prometheus.CounterVec // label "state"

	CommandsExecuted *prometheus.CounterVec // labels "cmd","result"
}

// NewCollectors builds and registers every collector against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "simcore",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one simulation tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		VehiclesTicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simcore",
			Name:      "vehicles_ticked_total",
			Help:      "Number of vehicle controller invocations across all ticks.",
		}),
		PathfindOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simcore",
			Name:      "pathfind_outcomes_total",
			Help:      "Pathfinder call outcomes by kind.",
		}, []string{"outcome"}),
		SignalFlips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simcore",
			Name:      "signal_flips_total",
			Help:      "Number of signal state (red/green) transitions.",
		}),
		ReservationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simcore",
			Name:      "reservation_conflicts_total",
			Help:      "Number of PBS reservation attempts that failed due to a conflicting claim.",
		}),
		AIStateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simcore",
			Name:      "ai_state_transitions_total",
			Help:      "AI driver state machine transitions by destination state.",
		}, []string{"state"}),
		CommandsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simcore",
			Name:      "commands_executed_total",
			Help:      "Command dispatcher invocations by command id and result.",
		}, []string{"cmd", "result"}),
	}

	reg.MustRegister(
		c.TickDuration,
		c.VehiclesTicked,
		c.PathfindOutcomes,
		c.SignalFlips,
		c.ReservationConflicts,
		c.AIStateTransitions,
		c.CommandsExecuted,
	)
	return c
}

// ObserveTick records one tick's wall-clock duration and vehicle count.
func (c *Collectors) ObserveTick(d time.Duration, vehicleCount int) {
	c.TickDuration.Observe(d.Seconds())
	c.VehiclesTicked.Add(float64(vehicleCount))
}
