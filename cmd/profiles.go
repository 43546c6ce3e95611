package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProfilesCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const padding = 2

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, padding, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMODE\tCOLUMNS\tINPUT\tOUTPUT")

			for _, name := range app.cfg.ProfileNames() {
				profile := app.cfg.Profiles[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					name, profile.Mode, strings.Join(profile.Columns, ","), profile.Input, profile.Output)
			}

			return tw.Flush()
		},
	}
}
