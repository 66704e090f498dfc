package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	grpclib "google.golang.org/grpc"

	"github.com/tiletransit/simcore/internal/adapters/grpc"
	"github.com/tiletransit/simcore/internal/adapters/metrics"
	"github.com/tiletransit/simcore/internal/application/command"
	"github.com/tiletransit/simcore/internal/application/simcontext"
	domaingrid "github.com/tiletransit/simcore/internal/domain/grid"
)

// NewDaemonCommand builds `simctl daemon`: starts the gRPC control-plane
// listener on a Unix socket plus a prometheus /metrics HTTP endpoint,
// mirroring the teacher's `cmd/spacetraders-daemon` split of a long-
// running gRPC server plus its health/metrics surface, merged here into
// one binary per SPEC_FULL.md's module map. The two listeners and the
// shutdown signal wait are coordinated with an errgroup so that either
// one failing (or SIGINT/SIGTERM arriving) tears down the other within
// cfg.Daemon.ShutdownTimeout, the same "first failure wins, everything
// else unwinds" shape the teacher's own concurrent request fan-outs use.
func NewDaemonCommand() *cobra.Command {
	var logX, logY uint

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the simulation daemon (gRPC control plane + metrics)",
		RunE: func(c *cobra.Command, args []string) error {
			cfg := loadConfig()

			m := domaingrid.NewMap(logX, logY)
			sc, err := simcontext.New(m, &cfg.Sim)
			if err != nil {
				return fmt.Errorf("failed to build simulation context: %w", err)
			}
			disp := command.NewDispatcher(sc)
			command.RegisterDefaultHandlers(disp)

			collectors := metrics.NewCollectors(prometheus.DefaultRegisterer)

			lis, err := net.Listen("unix", cfg.Daemon.SocketPath)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Daemon.SocketPath, err)
			}

			grpcServer := grpclib.NewServer()
			grpc.RegisterDaemonServiceServer(grpcServer, grpc.NewDaemonServer(
				sc, disp, collectors, cfg.Daemon.CommandsPerSecond, cfg.Daemon.CommandBurst,
			))

			metricsAddr := fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port)
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, promhttp.Handler())
			metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}

			ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return grpcServer.Serve(lis)
			})
			g.Go(func() error {
				if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				grpcServer.GracefulStop()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownTimeout)
				defer cancel()
				_ = metricsSrv.Shutdown(shutdownCtx)
				return nil
			})

			fmt.Printf("simcore daemon listening on %s (metrics on %s%s)\n",
				cfg.Daemon.SocketPath, metricsAddr, cfg.Metrics.Path)
			return g.Wait()
		},
	}

	cmd.Flags().UintVar(&logX, "log-x", 8, "log2 of map width")
	cmd.Flags().UintVar(&logY, "log-y", 8, "log2 of map height")
	return cmd
}
