package cmd

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"ecmd/internal/app"
	"ecmd/internal/config"
	"ecmd/internal/console"
)

// loadConfig reads the config file and applies --set overrides, then the
// dedicated flags.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.ApplyOverrides(cfg, opts.set); err != nil {
		return nil, err
	}
	if opts.fileCompletion {
		cfg.FileCompletion = true
	}
	if opts.echoOff {
		off := false
		cfg.Echo = &off
	}
	cfg.PluginPaths = append(cfg.PluginPaths, opts.pluginPaths...)
	return cfg, nil
}

func runShell(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	line, keep := opts.command, false
	if opts.keep != "" {
		line, keep = opts.keep, true
	}

	var (
		con      console.Console
		headless *console.Headless
		out      *termenv.Output
	)
	if opts.headless {
		headless = console.NewHeadlessFrom(cmd.InOrStdin())
		con = headless
	} else {
		// Query the background colour before the screen takes over the
		// terminal; the answer is cached for the prompt.
		out = termenv.NewOutput(os.Stdout, termenv.WithColorCache(true))
		out.HasDarkBackground()
		scr, err := console.NewScreen()
		if err != nil {
			return err
		}
		con = scr
	}

	a, err := app.New(app.Options{
		Config:   cfg,
		Console:  con,
		Output:   out,
		Command:  line,
		Keep:     keep,
		NoHeader: opts.noHeader,
		Dir:      opts.dir,
	})
	if err != nil {
		con.Close()
		return err
	}
	code, err := a.Run(cmd.Context())
	a.Close()
	if headless != nil {
		fmt.Fprintln(cmd.OutOrStdout(), headless.Transcript())
	}
	if err != nil {
		return err
	}
	if code != 0 {
		return ExitCode(code)
	}
	return nil
}
