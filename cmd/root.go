package main

import (
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/spf13/cobra"
)

// application carries the state shared by every subcommand once the root pre-run has finished.
type application struct {
	cfg *config.Config
	log *slog.Logger
}

func newRootCmd(app *application) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "waypoint",
		Short: "Batch geocoding and fuzzy search over CSV files with the TomTom Search API",
		Long: `Reads addresses or search queries from a CSV file, sends them to the TomTom Search API
and saves the collected responses as a JSON file.

Each run executes a profile. Built-in profiles: batch, batch_pt, geocode, fuzzy.
Profiles and settings can be changed in config.yaml or with WAYPOINT_* environment variables.
The API key is read from TOMTOM_API_KEY, a .env file in the working directory is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			app.cfg = cfg
			app.log = setupLogger(cfg.Env, cmd.ErrOrStderr())

			return nil
		},
	}

	rootCmd.AddCommand(newRunCmd(app), newProfilesCmd(app))

	return rootCmd
}
