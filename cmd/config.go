package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the cache configuration, or save it with --out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := opts.cacheConfig()
			if err != nil {
				return err
			}

			if out != "" {
				if err := config.SaveConfig(out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved config to %s\n", out)
				return nil
			}

			data, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize cache config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the configuration to this JSON file")

	return cmd
}
