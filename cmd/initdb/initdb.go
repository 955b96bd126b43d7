// Package initdb provides the initdb command.
package initdb

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/internal/app"
	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// Command creates the initdb command, which creates or upgrades the alerts table.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create or upgrade the local alerts database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Global().Module("cli")
			store, err := app.OpenStore(cmd.Context(), settings, log)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			columns, err := store.Columns(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready: %s\nColumns: %v\n", store.Path(), columns)
			return nil
		},
	}

	return cmd
}
