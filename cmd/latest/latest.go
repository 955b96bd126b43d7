// Package latest provides the latest command.
package latest

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/internal/alerts"
	"github.com/tphakala/wildlife-alert/internal/app"
	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/datastore"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// Command creates the latest command, which lists recent alerts newest first.
func Command(settings *conf.Settings) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "List the most recent alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Global().Module("cli")
			store, err := app.OpenStore(cmd.Context(), settings, log)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rec := alerts.NewRecorder(store, nil, nil, nil, log)
			items, err := rec.GetLatestAlerts(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIMESTAMP\tLABEL\tLOCATION\tCOORDINATES\tCLOUD URL")
			for i := range items {
				it := &items[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					it.Timestamp, it.Label, it.Location, coordinates(it), deref(it.CloudURL))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", datastore.DefaultLatestLimit, "Number of alerts to show")

	return cmd
}

func coordinates(it *datastore.AlertSummary) string {
	if it.Latitude == nil || it.Longitude == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f,%.4f", *it.Latitude, *it.Longitude)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
