package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCommand builds `simctl config`: loads and prints the
// effective configuration (env > file > defaults), for verifying what a
// deployment actually resolved to.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			fmt.Printf("database: type=%s path=%s\n", cfg.Database.Type, cfg.Database.Path)
			fmt.Printf("sim: ticks_per_day=%d days_per_year=%d max_search_nodes=%d\n",
				cfg.Sim.TicksPerDay, cfg.Sim.DaysPerYear, cfg.Sim.MaxSearchNodes)
			fmt.Printf("sim.ai: minimum_money=%d max_tries=%d\n",
				cfg.Sim.AI.MinimumMoney, cfg.Sim.AI.MaxTriesForSameRoute)
			fmt.Printf("daemon: address=%s socket=%s\n", cfg.Daemon.Address, cfg.Daemon.SocketPath)
			fmt.Printf("metrics: %s:%d%s\n", cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)
			return nil
		},
	}
}
