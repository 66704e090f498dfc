package config

import "time"

// DaemonConfig holds the simctl daemon's service configuration: the
// Unix-socket/gRPC surface C12's command dispatcher is exposed over (the
// "operator/control-plane RPC" SPEC_FULL.md's DOMAIN STACK entry for grpc
// describes), not the game's (explicitly out-of-scope) multiplayer sync.
type DaemonConfig struct {
	// gRPC server address for the daemon (host:port)
	Address string `mapstructure:"address" validate:"required"`

	// Unix socket path for local CLI IPC
	SocketPath string `mapstructure:"socket_path"`

	// PID file location
	PIDFile string `mapstructure:"pid_file"`

	// Health check interval for the running simulation
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval" validate:"required"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`

	// CommandsPerSecond caps the sustained rate of incoming DoCommand RPCs
	// per player; Burst allows a short spike above that rate. Protects the
	// single-threaded tick loop from a runaway AI or scripted client
	// flooding the dispatcher between ticks.
	CommandsPerSecond float64 `mapstructure:"commands_per_second"`
	CommandBurst      int     `mapstructure:"command_burst"`
}
