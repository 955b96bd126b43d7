// Package status provides the status command.
package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/internal/alerts"
	"github.com/tphakala/wildlife-alert/internal/app"
	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/datastore"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// Command creates the status command, which sets the telegram_sent and
// synced flags of the alert stored for IMAGE.
func Command(settings *conf.Settings) *cobra.Command {
	var telegram, synced bool

	cmd := &cobra.Command{
		Use:   "status IMAGE",
		Short: "Update the delivery flags of a stored alert",
		Long: `Update the delivery flags of the alert stored for IMAGE. Only flags given
on the command line are changed.

Examples:
  wildlife-alert status ./captures/fox.jpg --telegram
  wildlife-alert status ./captures/fox.jpg --synced=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd datastore.StatusUpdate
			if cmd.Flags().Changed("telegram") {
				upd.TelegramSent = &telegram
			}
			if cmd.Flags().Changed("synced") {
				upd.Synced = &synced
			}
			if upd.IsEmpty() {
				return fmt.Errorf("nothing to update: pass --telegram and/or --synced")
			}

			log := logger.Global().Module("cli")
			store, err := app.OpenStore(cmd.Context(), settings, log)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rows, err := alerts.NewRecorder(store, nil, nil, nil, log).UpdateAlertStatus(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			if rows == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No alert stored for %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d alert(s)\n", rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&telegram, "telegram", false, "Set the telegram_sent flag")
	cmd.Flags().BoolVar(&synced, "synced", false, "Set the synced flag")

	return cmd
}
