// Package serve provides the serve command.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/internal/api"
	"github.com/tphakala/wildlife-alert/internal/app"
	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// Command creates the serve command, which runs the HTTP API until SIGINT
// or SIGTERM. SIGHUP clears the location cache and rotates the log file.
func Command(settings *conf.Settings) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !settings.WebServer.Enabled {
				return fmt.Errorf("webserver is disabled, set webserver.enabled to true to run the API")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.Global().Module("cli")
			a, err := app.New(ctx, settings, log)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			cfg := api.ConfigFromSettings(settings)
			if listen != "" {
				cfg.Listen = listen
			}

			srv, err := api.New(cfg, a.Recorder, logger.Global().Module("web"),
				api.WithNotifier(a.Notifier),
				api.WithHealthChecker(a.Store),
				api.WithMetricsHandler(a.Metrics.Handler()),
			)
			if err != nil {
				return err
			}

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-hup:
						a.Refresh()
					case <-ctx.Done():
						return
					}
				}
			}()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address, overrides webserver.listen")

	return cmd
}
