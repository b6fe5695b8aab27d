package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExitCode is returned by Execute when the session ended with a non-zero
// exit code. It carries no message of its own.
type ExitCode int

func (e ExitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

type rootOptions struct {
	command        string
	keep           string
	echoOff        bool
	fileCompletion bool
	dir            string
	noHeader       bool
	headless       bool

	configPath  string
	pluginPaths []string
	set         []string
}

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "ecmd",
		Short: "Line-editing front-end for the system shell",
		Long: "ecmd reads command lines with history, file completion and a screen edit mode, " +
			"answers a few commands itself and runs the rest in the system shell.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.command, "command", "c", "", "run `line` and exit")
	flags.StringVarP(&opts.keep, "keep", "k", "", "run `line` and keep the session open")
	flags.BoolVarP(&opts.echoOff, "echo-off", "q", false, "start with echo off")
	flags.BoolVar(&opts.fileCompletion, "file-completion", false, "complete file names with Tab")
	flags.StringVar(&opts.dir, "dir", "", "start in `directory`")
	flags.BoolVar(&opts.noHeader, "no-header", false, "do not print the start-up header")
	flags.BoolVar(&opts.headless, "headless", false, "read keys from stdin and print the screen on exit")
	rootCmd.MarkFlagsMutuallyExclusive("command", "keep")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&opts.configPath, "config", "", "config file (default $ECMD_CONFIG or ~/.config/ecmd/config.yaml)")
	persistent.StringArrayVar(&opts.pluginPaths, "plugin-path", nil, "additional plugin file or directory (repeatable)")
	persistent.StringArrayVar(&opts.set, "set", nil, "override a config value, e.g. --set prompt.color=2 (repeatable)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newHandlersCmd(opts),
		newConfigCmd(opts),
	)
	return rootCmd
}
