package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiletransit/simcore/internal/application/command"
	"github.com/tiletransit/simcore/internal/application/simcontext"
	"github.com/tiletransit/simcore/internal/domain/grid"
)

var commandNames = map[string]command.ID{
	"build-single-rail":  command.BuildSingleRail,
	"remove-single-rail": command.RemoveSingleRail,
	"build-signals":      command.BuildSignals,
	"remove-signals":     command.RemoveSignals,
	"build-train-depot":  command.BuildTrainDepot,
	"build-road":         command.BuildRoad,
	"remove-road":        command.RemoveRoad,
	"build-road-depot":   command.BuildRoadDepot,
	"landscape-clear":    command.LandscapeClear,
	"build-rail-vehicle": command.BuildRailVehicle,
	"build-road-veh":     command.BuildRoadVeh,
	"build-ship":         command.BuildShip,
	"start-stop-vehicle": command.StartStopVehicle,
	"reverse-train":      command.ReverseTrainDirection,
	"send-to-depot":      command.SendToDepot,
	"sell-vehicle":       command.SellVehicle,
}

// NewCommandCommand builds `simctl command`: dispatches a single command
// against a fresh in-process simulation context, for scripting/smoke
// tests without a running daemon.
func NewCommandCommand() *cobra.Command {
	var cmdName string
	var tile uint32
	var p1, p2 uint32
	var player int
	var exec bool
	var logX, logY uint

	cmd := &cobra.Command{
		Use:   "command",
		Short: "Dispatch a single command (C12) and print its cost or error",
		RunE: func(c *cobra.Command, args []string) error {
			id, ok := commandNames[cmdName]
			if !ok {
				return fmt.Errorf("unknown command %q", cmdName)
			}
			cfg := loadConfig()
			m := grid.NewMap(logX, logY)
			sc, err := simcontext.New(m, &cfg.Sim)
			if err != nil {
				return err
			}
			disp := command.NewDispatcher(sc)
			command.RegisterDefaultHandlers(disp)

			req := command.Request{
				Tile:   grid.TileIndex(tile),
				P1:     p1,
				P2:     p2,
				Player: grid.Owner(player),
			}
			if exec {
				req.Flags = command.FlagExec
			} else {
				req.Flags = command.FlagQueryCost
			}

			cost, cmdErr := disp.DoCommand(context.Background(), id, req)
			if cmdErr != nil {
				fmt.Printf("error: %s\n", cmdErr.Error())
				return nil
			}
			fmt.Printf("cost: %d\n", cost)
			return nil
		},
	}

	cmd.Flags().StringVar(&cmdName, "cmd", "", "command name")
	cmd.Flags().Uint32Var(&tile, "tile", 0, "tile index")
	cmd.Flags().Uint32Var(&p1, "p1", 0, "p1 argument")
	cmd.Flags().Uint32Var(&p2, "p2", 0, "p2 argument")
	cmd.Flags().IntVar(&player, "player", 0, "player id")
	cmd.Flags().BoolVar(&exec, "exec", false, "execute (default is query-cost)")
	cmd.Flags().UintVar(&logX, "log-x", 8, "log2 of map width")
	cmd.Flags().UintVar(&logY, "log-y", 8, "log2 of map height")
	cmd.MarkFlagRequired("cmd")
	return cmd
}
