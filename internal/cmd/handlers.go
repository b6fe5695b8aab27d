package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ecmd/internal/app"
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/termstyle"
)

func newHandlersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "List the handler chain, plugins included, in dispatch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			a, err := app.New(app.Options{Config: cfg, Console: console.NewHeadless(80, 25)})
			if err != nil {
				return err
			}
			defer a.Close()
			printChain(cmd.OutOrStdout(), a.Dispatcher())
			return nil
		},
	}
}

func printChain(w io.Writer, d *handler.Dispatcher) {
	st := termstyle.For(w)
	for i, stage := range handler.Stages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, st.Bold(stage.String()))
		for _, h := range d.Handlers(stage) {
			info := h.Info()
			desc := info.Description
			if words := h.CommandsHandled(); len(words) > 0 && stage == handler.StageCommands {
				desc += " [" + strings.Join(words, " | ") + "]"
			}
			if info.Author != "" {
				desc += " (" + info.Author + ")"
			}
			fmt.Fprintf(w, "  %s %s\n", st.Cyan(fmt.Sprintf("%-16s", info.Name)), st.Dim(desc))
		}
	}
}
