// Package alert provides the alert command.
package alert

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/internal/alerts"
	"github.com/tphakala/wildlife-alert/internal/app"
	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// Command creates the alert command. It stores the alert, sends the
// Telegram photo and marks the row as sent on delivery.
func Command(settings *conf.Settings) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "alert LABEL IMAGE",
		Short: "Record an alert and send it to Telegram",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), settings, logger.Global().Module("cli"))
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := a.Recorder.Process(cmd.Context(), a.Notifier, args[0], args[1], message)
			if err := alerts.PrintResult(cmd.OutOrStdout(), &out.StoreResult); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-13s %t\n", "Telegram:", out.Notified)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Extra text appended to the caption")

	return cmd
}
