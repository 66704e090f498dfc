package config

import "time"

// SimConfig is the `_patches`-equivalent tunable bag threaded through the
// SimulationContext: tick rate, pathfinder budgets, wait-signal timers and
// AI driver constants, per SPEC_FULL.md's AMBIENT STACK "Configuration"
// entry. Everything here is read once at startup and never mutated
// mid-tick (spec.md §5's "no suspension points" model).
type SimConfig struct {
	// TicksPerDay and DaysPerYear are fixed by spec.md §6; exposed here so
	// a scenario file can still override them for accelerated testing.
	TicksPerDay uint   `mapstructure:"ticks_per_day" validate:"min=1"`
	DaysPerYear uint   `mapstructure:"days_per_year" validate:"min=1"`

	// Pathfinder budgets (spec.md §4.5/§5).
	LoopsPerTick   int `mapstructure:"loops_per_tick"`
	MaxSearchNodes int `mapstructure:"max_search_nodes" validate:"min=1"`
	MaxPathCost    int `mapstructure:"max_path_cost" validate:"min=1"`

	// Signal wait timers (spec.md §4.9 step 9, in ticks).
	WaitOneWaySignal int `mapstructure:"wait_oneway_signal" validate:"min=1"`
	WaitTwoWaySignal int `mapstructure:"wait_twoway_signal" validate:"min=1"`
	ForceProceedTicks int `mapstructure:"force_proceed_ticks" validate:"min=1"`

	// Misc tick thresholds named explicitly in spec.md.
	LostTrainDays     int `mapstructure:"lost_train_days" validate:"min=1"`
	DepotDwellTicks   int `mapstructure:"depot_dwell_ticks" validate:"min=1"`
	RoadSlotExpiryDays int `mapstructure:"road_slot_expiry_days" validate:"min=1"`
	RoadOvertakeTicks  int `mapstructure:"road_overtake_ticks" validate:"min=1"`
	RoadDeadlockTicks  int `mapstructure:"road_deadlock_ticks" validate:"min=1"`
	ShipBuoyFuzzyTiles int `mapstructure:"ship_buoy_fuzzy_tiles" validate:"min=1"`

	AI AIConfig `mapstructure:"ai"`
}

// AIConfig holds the C11 driver's tunables (spec.md §4.11).
type AIConfig struct {
	MinimumMoney           int64         `mapstructure:"minimum_money"`
	BusCargoDistanceUnit   int           `mapstructure:"locateroute_bus_cargo_distance"`
	BuildVehicleTimeBetween time.Duration `mapstructure:"build_vehicle_time_between"`
	MaxTriesForSameRoute   int           `mapstructure:"max_tries_for_same_route"`
	NoNewStationMonths     int           `mapstructure:"no_new_station_months"`
	DisableVehRoadveh      bool          `mapstructure:"disable_veh_roadveh"`
}
