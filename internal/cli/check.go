package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerops/ilpctl/internal/config"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the environment without starting anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-18s %s\n", config.EnvXRPAddress, cfg.XRPAddress)
			fmt.Fprintf(out, "%-18s %s\n", config.EnvXRPSecret, "<redacted>")
			fmt.Fprintf(out, "%-18s %s\n", config.EnvAdminToken, "<redacted>")
			fmt.Fprintf(out, "%-18s %s\n", config.EnvILPAddress, cfg.ILPAddress)
			fmt.Fprintf(out, "%-18s %s\n", config.EnvDataDir, cfg.DataDir)
			fmt.Fprintf(out, "%-18s %s\n", config.EnvLogFilter, orUnset(cfg.LogFilter))
			fmt.Fprintf(out, "%-18s %s\n", config.EnvDebugFilter, orUnset(cfg.DebugFilter))
			fmt.Fprintf(out, "%-18s %s\n", "store socket", cfg.StoreSocket)
			return nil
		},
	}
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}
