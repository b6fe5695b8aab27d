package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecmd/internal/version"
)

func newVersionCmd() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the ecmd version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				fmt.Fprintln(cmd.OutOrStdout(), version.Banner())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "include the platform")
	return cmd
}
