package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "simcore"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "simcore"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "simcore.db"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Simulation defaults (spec.md §6 + §4.5/§4.9 tunables)
	if cfg.Sim.TicksPerDay == 0 {
		cfg.Sim.TicksPerDay = 74
	}
	if cfg.Sim.DaysPerYear == 0 {
		cfg.Sim.DaysPerYear = 366
	}
	if cfg.Sim.MaxSearchNodes == 0 {
		cfg.Sim.MaxSearchNodes = 10000
	}
	if cfg.Sim.MaxPathCost == 0 {
		cfg.Sim.MaxPathCost = 1 << 20
	}
	if cfg.Sim.WaitOneWaySignal == 0 {
		cfg.Sim.WaitOneWaySignal = 20
	}
	if cfg.Sim.WaitTwoWaySignal == 0 {
		cfg.Sim.WaitTwoWaySignal = 73
	}
	if cfg.Sim.ForceProceedTicks == 0 {
		cfg.Sim.ForceProceedTicks = 80
	}
	if cfg.Sim.LostTrainDays == 0 {
		cfg.Sim.LostTrainDays = 180
	}
	if cfg.Sim.DepotDwellTicks == 0 {
		cfg.Sim.DepotDwellTicks = 37
	}
	if cfg.Sim.RoadSlotExpiryDays == 0 {
		cfg.Sim.RoadSlotExpiryDays = 5
	}
	if cfg.Sim.RoadOvertakeTicks == 0 {
		cfg.Sim.RoadOvertakeTicks = 35
	}
	if cfg.Sim.RoadDeadlockTicks == 0 {
		cfg.Sim.RoadDeadlockTicks = 1480
	}
	if cfg.Sim.ShipBuoyFuzzyTiles == 0 {
		cfg.Sim.ShipBuoyFuzzyTiles = 3
	}
	if cfg.Sim.AI.MinimumMoney == 0 {
		cfg.Sim.AI.MinimumMoney = 10000
	}
	if cfg.Sim.AI.BusCargoDistanceUnit == 0 {
		cfg.Sim.AI.BusCargoDistanceUnit = 2
	}
	if cfg.Sim.AI.BuildVehicleTimeBetween == 0 {
		cfg.Sim.AI.BuildVehicleTimeBetween = 5 * time.Second
	}
	if cfg.Sim.AI.MaxTriesForSameRoute == 0 {
		cfg.Sim.AI.MaxTriesForSameRoute = 3
	}
	if cfg.Sim.AI.NoNewStationMonths == 0 {
		cfg.Sim.AI.NoNewStationMonths = 6
	}

	// Daemon defaults
	if cfg.Daemon.Address == "" {
		cfg.Daemon.Address = "localhost:50052"
	}
	if cfg.Daemon.SocketPath == "" {
		cfg.Daemon.SocketPath = "/tmp/simcore-daemon.sock"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/simcore-daemon.pid"
	}
	if cfg.Daemon.HealthCheckInterval == 0 {
		cfg.Daemon.HealthCheckInterval = 30 * time.Second
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Daemon.CommandsPerSecond == 0 {
		cfg.Daemon.CommandsPerSecond = 200
	}
	if cfg.Daemon.CommandBurst == 0 {
		cfg.Daemon.CommandBurst = 50
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}

	// Metrics defaults
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
