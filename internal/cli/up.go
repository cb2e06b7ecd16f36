package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerops/ilpctl/internal/config"
	"github.com/ledgerops/ilpctl/internal/launch"
	"github.com/ledgerops/ilpctl/internal/observability"
	"github.com/ledgerops/ilpctl/internal/stack"
)

func newUpCommand() *cobra.Command {
	var (
		wait        bool
		waitTimeout time.Duration
		adminAddr   string
	)

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the settlement stack and watch it",
		Long: `Validates the environment, then issues the four stages in order:
store, settlement-engine, bootstrap, node. Stages are fire-and-forget
unless --wait is given; failed children are reported, never restarted.
Runs until interrupted; children are left running on exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := observability.InitLogger("ilpctl")

			// The only gate before spawning: missing credentials stop the
			// run here, with exit status 1 and zero children started.
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			board := stack.NewStatusBoard()
			orch := stack.New(cfg, launch.ExecSpawner{})
			if wait {
				orch.GateOnStore(waitTimeout)
				logger.Info().Dur("timeout", waitTimeout).Msg("store readiness gating enabled")
			}

			monitor := stack.NewMonitor(board, logger)
			go monitor.Run(ctx, orch.Events())

			if adminAddr != "" {
				srv := observability.NewAdminServer(adminAddr, func() any {
					return board.Snapshot()
				}, logger)
				go func() {
					if err := srv.Serve(); err != nil {
						logger.Error().Err(err).Msg("admin server stopped")
					}
				}()
				logger.Info().Str("addr", adminAddr).Msg("admin endpoints enabled")
			}

			logger.Info().
				Str("socket", cfg.StoreSocket).
				Str("ilp_address", cfg.ILPAddress).
				Str("data_dir", cfg.DataDir).
				Msg("bringing up settlement stack")
			orch.Run(ctx)

			<-ctx.Done()
			logger.Info().Msg("launcher interrupted; children are left running")
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "gate the post-store stages on the store socket accepting connections")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 15*time.Second, "store readiness timeout used with --wait")
	cmd.Flags().StringVar(&adminAddr, "admin-addr", "", "serve /health, /status and /metrics on this address (disabled when empty)")

	return cmd
}
