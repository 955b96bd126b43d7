package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/cmd/alert"
	configcmd "github.com/tphakala/wildlife-alert/cmd/config"
	"github.com/tphakala/wildlife-alert/cmd/initdb"
	"github.com/tphakala/wildlife-alert/cmd/latest"
	"github.com/tphakala/wildlife-alert/cmd/notify"
	"github.com/tphakala/wildlife-alert/cmd/serve"
	"github.com/tphakala/wildlife-alert/cmd/status"
	"github.com/tphakala/wildlife-alert/cmd/store"
	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/logger"
	"github.com/tphakala/wildlife-alert/internal/privacy"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const flushTimeout = 2 * time.Second

// RootCommand creates and returns the root command. settings is filled in
// by PersistentPreRunE before any subcommand runs.
func RootCommand() *cobra.Command {
	settings := &conf.Settings{}
	var (
		configFile string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "wildlife-alert",
		Short:         "Wildlife detection alert recorder and Telegram notifier",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml")

	configCmd := configcmd.Command(settings)

	rootCmd.AddCommand(
		initdb.Command(settings),
		store.Command(settings),
		notify.Command(settings),
		alert.Command(settings),
		latest.Command(settings),
		status.Command(settings),
		serve.Command(settings),
		configCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config --sample must work without a valid configuration
		if cmd.Name() == configCmd.Name() {
			if sample, _ := cmd.Flags().GetBool("sample"); sample {
				return nil
			}
		}

		loaded, err := conf.Load(configFile)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		if debug {
			loaded.Debug = true
		}
		*settings = *loaded

		return initialize(settings)
	}

	return rootCmd
}

// Shutdown flushes pending error reports and closes the log file. It runs
// after every command, including ones that returned an error.
func Shutdown() {
	errors.FlushTelemetry(flushTimeout)
	_ = logger.Global().Close()
}

// initialize sets up logging and error telemetry from loaded settings.
func initialize(settings *conf.Settings) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	confLog := central.Module("conf")
	for _, w := range settings.Warnings {
		confLog.Warn(w)
	}
	confLog.Debug("features",
		logger.Bool("telegram", settings.TelegramEnabled()),
		logger.Bool("image_upload", settings.ImageHostEnabled()),
		logger.Bool("firestore_mirror", settings.Mirror.CredentialsFile != ""),
		logger.Bool("webserver", settings.WebServer.Enabled))

	if settings.Telemetry.SentryDSN != "" {
		errors.SetPrivacyScrubber(func(msg string) string {
			return privacy.ScrubCoordinates(privacy.ScrubMessage(msg))
		})
		if err := errors.InitSentry(settings.Telemetry.SentryDSN, Version); err != nil {
			central.Module("main").Warn("error telemetry disabled", logger.Error(err))
		}
	}
	return nil
}
