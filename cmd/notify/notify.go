// Package notify provides the notify command.
package notify

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/datastore"
	"github.com/tphakala/wildlife-alert/internal/logger"
	"github.com/tphakala/wildlife-alert/internal/notification"
)

// Command creates the notify command, which sends one Telegram photo alert
// without touching the database.
func Command(settings *conf.Settings) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "notify LABEL IMAGE",
		Short: "Send a Telegram photo alert",
		Long: `Send one photo alert to the configured Telegram chat.

Examples:
  wildlife-alert notify fox ./captures/fox.jpg
  wildlife-alert notify deer ./captures/deer.jpg --message "near the north gate"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := notification.New(notification.Config{
				BotToken:  settings.Telegram.BotToken,
				ChatID:    settings.Telegram.ChatID,
				APIBase:   settings.Telegram.APIBase,
				Timeout:   settings.Telegram.Timeout,
				ExtraURLs: settings.Notification.ExtraURLs,
			}, logger.Global().Module("cli"))

			timestamp := time.Now().Format(datastore.TimestampLayout)
			if !n.SendAlert(cmd.Context(), args[0], timestamp, args[1], message) {
				return fmt.Errorf("telegram alert was not delivered")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Telegram alert sent")
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Extra text appended to the caption")

	return cmd
}
