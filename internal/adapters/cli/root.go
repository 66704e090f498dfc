// Package cli implements simctl's cobra command tree: run a headless
// simulation for N ticks, dispatch a single command, dump a
// determinism hash of the grid+pool, and print the active config.
// Grounded on the teacher's `adapters/cli/root.go` (a cobra root command
// wiring global socket/verbose flags and a flat list of sub-command
// groups), adapted from the SpaceTraders fleet command tree (ship/
// shipyard/market/contract/...) to this core's run/command/dump/config
// tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tiletransit/simcore/internal/infrastructure/config"
)

var (
	socketPath string
	configPath string
	verbose    bool
)

// NewRootCommand builds simctl's root command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "simctl",
		Short: "simctl - run and control a tile-based transport simulation",
		Long: `simctl runs the simulation core headless or against a running daemon.

Examples:
  simctl run --ticks 1000
  simctl command --cmd build-single-rail --tile 42 --p1 1 --player 0
  simctl dump --ticks 100
  simctl config`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", getDefaultSocketPath(),
		"Path to daemon Unix socket")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewCommandCommand())
	rootCmd.AddCommand(NewDumpCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewDaemonCommand())

	return rootCmd
}

func getDefaultSocketPath() string {
	if path := os.Getenv("SIMCORE_SOCKET"); path != "" {
		return path
	}
	return "/tmp/simcore-daemon.sock"
}

func loadConfig() *config.Config {
	return config.LoadConfigOrDefault(configPath)
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
