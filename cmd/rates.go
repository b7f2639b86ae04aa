// File: cmd/rates.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/defiwatchers/rektscope/internal/config"
	"github.com/defiwatchers/rektscope/internal/observability"
)

// newRatesCmd creates and configures the `rates` command.
func newRatesCmd(provider rateProvider) *cobra.Command {
	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "Show the exchange rate table the analyzer would use",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("rates.live", cmd.Flags().Lookup("live"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runRates(cmd.Context(), observability.GetLogger(), cfg, cmd.OutOrStdout(), provider)
		},
	}

	ratesCmd.Flags().Bool("live", false, "Fetch live exchange rates instead of the built-in table.")
	return ratesCmd
}

// runRates prints the effective rate table, one unit per line.
func runRates(ctx context.Context, logger *zap.Logger, cfg *config.Config, out io.Writer, provider rateProvider) error {
	table := provider.Table(ctx, cfg, logger)

	source := "fallback"
	if cfg.Rates.Live {
		source = "live"
	}
	fmt.Fprintf(out, "exchange rates (%s), units per USD:\n", source)
	for _, unit := range table.Units() {
		fmt.Fprintf(out, "  %-6s %.8g\n", unit, table[unit])
	}
	return nil
}
