// Package config provides the config command.
package config

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/wildlife-alert/internal/conf"
)

// Command creates the config command. It prints the effective settings
// with credentials masked, or the annotated sample with --sample.
func Command(settings *conf.Settings) *cobra.Command {
	var sample bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if sample {
				data, err = conf.SampleConfig()
			} else {
				data, err = conf.DumpYAML(settings)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", false, "Print the annotated sample config.yaml")

	return cmd
}
