package main

import (
	"fmt"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// runFlags override fields of the selected profile.
type runFlags struct {
	input   string
	output  string
	columns []string
	indent  int
}

func newRunCmd(app *application) *cobra.Command {
	flags := &runFlags{}

	runCmd := &cobra.Command{
		Use:   "run <profile>",
		Short: "Run a profile against the TomTom Search API",
		Long: `Runs a profile end to end: loads the input CSV, calls the API and writes the JSON results.

Examples:
  # Geocode every address of data/addresses_batch.csv in a single batch request
  waypoint run batch

  # Geocode addresses one by one from another file
  waypoint run geocode --input stores.csv --column street --output out/stores.json

  # Fuzzy search around each context
  waypoint run fuzzy --column query --column context`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log := app.cfg, app.log

			if err := cfg.Validate(); err != nil {
				return err
			}

			profile, err := cfg.Profile(args[0])
			if err != nil {
				return err
			}
			flags.apply(cmd, &profile)

			reg := prometheus.NewRegistry()
			appMetrics := metrics.NewMetrics(reg)

			client := geocoding.NewTomTomClient(geocoding.ClientConfig{
				BaseURL: cfg.TomTom.BaseURL,
				APIKey:  cfg.TomTom.APIKey,
				Timeouts: geocoding.Timeouts{
					Geocode: cfg.Timeouts.Geocode,
					Search:  cfg.Timeouts.Search,
					Batch:   cfg.Timeouts.Batch,
				},
				Limiter: newThrottle(cfg.Throttle.Interval),
				Metrics: appMetrics,
				Logger:  log,
			})

			var anchors geocoding.Provider
			if profile.Mode == config.ModeFuzzy {
				anchors, err = geocoding.NewProvider(geocoding.ProviderConfig{
					Type:      geocoding.ProviderType(cfg.Anchor.Provider),
					APIKey:    cfg.Anchor.APIKey,
					RateLimit: requestsPerSecond(cfg.Throttle.Interval),
					Timeout:   cfg.Timeouts.Anchor,
					Language:  cfg.TomTom.Language,
					TomTom:    client,
					Logger:    log,
				})
				if err != nil {
					return fmt.Errorf("failed to create anchor provider: %w", err)
				}
				log.DebugContext(ctx, "Anchor provider initialized", "type", cfg.Anchor.Provider)
			}

			pipeline := service.NewPipeline(log, client, anchors, appMetrics, service.Settings{
				Language: cfg.TomTom.Language,
				Radius:   cfg.Search.Radius,
				Limit:    cfg.Search.Limit,
			})

			log.InfoContext(ctx, "Running profile",
				"profile", args[0], "mode", profile.Mode, "input", profile.Input, "output", profile.Output)

			runErr := pipeline.Run(ctx, profile)

			if cfg.Metrics.Textfile != "" {
				if err = metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
					log.ErrorContext(ctx, "Failed to save metrics", "error", err)
				}
			}

			return runErr
		},
	}

	runCmd.Flags().StringVar(&flags.input, "input", "", "input CSV file, overrides the profile")
	runCmd.Flags().StringVar(&flags.output, "output", "", "output JSON file, overrides the profile")
	runCmd.Flags().StringArrayVar(&flags.columns, "column", nil,
		"input column, repeat for fuzzy profiles (query then context)")
	runCmd.Flags().IntVar(&flags.indent, "indent", 0, "JSON indentation width, overrides the profile")

	return runCmd
}

// apply copies every flag set on the command line into profile.
func (f *runFlags) apply(cmd *cobra.Command, profile *config.Profile) {
	if cmd.Flags().Changed("input") {
		profile.Input = f.input
	}
	if cmd.Flags().Changed("output") {
		profile.Output = f.output
	}
	if cmd.Flags().Changed("column") {
		profile.Columns = f.columns
	}
	if cmd.Flags().Changed("indent") {
		profile.Indent = f.indent
	}
}

// newThrottle spaces successive API calls by interval. A zero interval disables throttling.
func newThrottle(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}

	return rate.NewLimiter(rate.Every(interval), 1)
}

func requestsPerSecond(interval time.Duration) int {
	if interval <= 0 {
		return 0
	}

	return max(1, int(time.Second/interval))
}
