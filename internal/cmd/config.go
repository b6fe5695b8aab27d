package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ecmd/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var pathOnly bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = config.Path()
			}
			if pathOnly {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			echo := cfg.EchoEnabled()
			cfg.Echo = &echo
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pathOnly, "path", false, "print only the config file location")
	return cmd
}
