// File: cmd/analyze.go
package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/defiwatchers/rektscope/internal/analytics"
	"github.com/defiwatchers/rektscope/internal/config"
	"github.com/defiwatchers/rektscope/internal/currency"
	"github.com/defiwatchers/rektscope/internal/dataset"
	"github.com/defiwatchers/rektscope/internal/incident"
	"github.com/defiwatchers/rektscope/internal/observability"
	"github.com/defiwatchers/rektscope/internal/reporting"
)

// rateProvider yields the exchange rate table for a run. The abstraction
// exists for testing: tests inject canned tables instead of hitting the
// live rate APIs.
type rateProvider interface {
	Table(ctx context.Context, cfg *config.Config, logger *zap.Logger) currency.Table
}

// defaultRateProvider is the production implementation. It owns the
// process-wide rate store, seeded with the built-in fallback table. When
// live rates are enabled a fetch replaces the store's snapshot before it
// is handed out; on fetch degradation the snapshot still holds usable
// values, so consumers always read a complete table.
type defaultRateProvider struct {
	store *currency.Store
}

func newRateProvider() *defaultRateProvider {
	return &defaultRateProvider{store: currency.NewStore()}
}

func (p *defaultRateProvider) Table(ctx context.Context, cfg *config.Config, logger *zap.Logger) currency.Table {
	if cfg.Rates.Live {
		client := &http.Client{Timeout: cfg.Rates.Timeout}
		fetcher := currency.NewFetcher(client, cfg.Rates.CryptoURL, cfg.Rates.ForexURL, cfg.Rates.RequestsPerSecond, logger)
		p.store.Replace(fetcher.Fetch(ctx))
	} else {
		logger.Debug("Using built-in fallback exchange rates")
	}
	return p.store.Current()
}

// analyzeOptions carries the resolved flag values for one analyze run.
type analyzeOptions struct {
	year       int
	attackType string
	search     string
	currency   string
	output     string
	format     string
}

// newAnalyzeCmd creates and configures the `analyze` command.
func newAnalyzeCmd(provider rateProvider) *cobra.Command {
	var opts analyzeOptions

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Load incident data and produce aggregate statistics",
		Long: `Fetches the incident and root cause datasets, normalizes them, applies any
requested filters, and writes a report of loss totals, per-year and per-type
breakdowns, root cause frequencies, and protocol statistics.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind data source flags so they override config and env values.
			if err := viper.BindPFlag("data.incidents_source", cmd.Flags().Lookup("incidents")); err != nil {
				return err
			}
			if err := viper.BindPFlag("data.root_causes_source", cmd.Flags().Lookup("root-causes")); err != nil {
				return err
			}
			return viper.BindPFlag("rates.live", cmd.Flags().Lookup("live-rates"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			return runAnalyze(ctx, logger, cfg, opts, provider)
		},
	}

	analyzeCmd.Flags().String("incidents", "", "Incident dataset source (file path or URL). Overrides config/env.")
	analyzeCmd.Flags().String("root-causes", "", "Root cause dataset source (file path or URL). Overrides config/env.")
	analyzeCmd.Flags().Bool("live-rates", false, "Fetch live exchange rates instead of the built-in table.")

	analyzeCmd.Flags().IntVar(&opts.year, "year", 0, "Restrict analysis to incidents from this year.")
	analyzeCmd.Flags().StringVar(&opts.attackType, "type", "", "Restrict analysis to this attack type (case-insensitive).")
	analyzeCmd.Flags().StringVar(&opts.search, "search", "", "Restrict analysis to incidents whose name matches this substring.")
	analyzeCmd.Flags().StringVar(&opts.currency, "currency", "USD", "Display currency for the converted loss total.")
	analyzeCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path. If unset, the report is printed to stdout.")
	analyzeCmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Report format ('text' or 'json').")

	return analyzeCmd
}

// runAnalyze contains the core, testable logic for the analyze command.
func runAnalyze(
	ctx context.Context,
	logger *zap.Logger,
	cfg *config.Config,
	opts analyzeOptions,
	provider rateProvider,
) error {
	client := &http.Client{Timeout: cfg.Network.Timeout}
	loader := dataset.NewLoader(cfg.Data.IncidentsSource, cfg.Data.RootCausesSource, client, logger)

	incidents, lookup, err := loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load datasets: %w", err)
	}

	rows := incident.Normalize(incidents, lookup, logger)
	dropped := len(incidents) - len(rows)

	filter := analytics.Filter{Year: opts.year, Type: opts.attackType, Query: opts.search}
	subset := filter.Apply(rows)
	logger.Info("Analyzing incidents",
		zap.Int("loaded", len(incidents)),
		zap.Int("analyzed", len(subset)),
		zap.String("scope", filter.String()),
	)

	summary := analytics.Summarize(subset, lookup)

	table := provider.Table(ctx, cfg, logger)
	converter := currency.NewConverter(table, logger)
	display := opts.currency
	if display == "" {
		display = "USD"
	}
	converted := analytics.ConvertedTotalLoss(subset, converter.Convert, display)

	env := reporting.NewEnvelope(Version, summary)
	env.IncidentCount = len(subset)
	env.DroppedCount = dropped
	env.Filter = filter.String()
	env.DisplayCurrency = display
	env.ConvertedTotalLoss = converted

	return writeReport(logger, env, opts.format, opts.output)
}

// writeReport renders the envelope through the reporting package.
func writeReport(logger *zap.Logger, env reporting.Envelope, format, outputPath string) error {
	reporter, err := reporting.New(format, outputPath)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	defer func() {
		if err := reporter.Close(); err != nil {
			logger.Warn("Failed to close reporter cleanly.", zap.Error(err))
		}
	}()

	if err := reporter.Write(env); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if outputPath != "" && outputPath != "stdout" {
		logger.Info("Report written", zap.String("path", outputPath))
	}
	return nil
}
