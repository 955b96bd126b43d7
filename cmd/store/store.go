// Package store provides the store command.
package store

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/internal/alerts"
	"github.com/tphakala/wildlife-alert/internal/app"
	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// Command creates the store command. It records one alert without sending
// a notification.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store LABEL IMAGE",
		Short: "Record an alert: locate, upload, save and mirror",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), settings, logger.Global().Module("cli"))
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.Recorder.StoreAlert(cmd.Context(), args[0], args[1])
			return alerts.PrintResult(cmd.OutOrStdout(), &res)
		},
	}

	return cmd
}
