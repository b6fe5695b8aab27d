// Package app assembles a running ecmd: it builds the session and the
// handler chain from the configuration, runs the start-up command and then
// reads console input until the session closes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"ecmd/internal/activitylog"
	"ecmd/internal/commands"
	"ecmd/internal/config"
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/keys"
	"ecmd/internal/plugin"
	"ecmd/internal/session"
	"ecmd/internal/shell"
	"ecmd/internal/tmpl"
	"ecmd/internal/version"
)

// Options configures New. Only Console is required.
type Options struct {
	Config  *config.Config
	Console console.Console
	// Executor runs shell commands; nil builds a local executor from
	// Config.
	Executor shell.Executor
	// Providers supply plugin handlers; nil means the compiled-in and Lua
	// providers.
	Providers []plugin.Provider
	Clipboard keys.Clipboard
	// Output is the terminal used for colour decisions; nil disables
	// prompt colour.
	Output *termenv.Output

	// Command runs first. The session ends after it unless Keep is set.
	Command  string
	Keep     bool
	NoHeader bool
	// Dir is the starting directory; empty keeps the process directory.
	Dir string
}

// App is one ecmd session with its handler chain.
type App struct {
	opts    Options
	in      *input
	s       *session.Session
	d       *handler.Dispatcher
	exec    shell.Executor
	plugins []handler.Handler
	log     *activitylog.Logger

	// ctx is handed to command handlers; it outlives the input loop so a
	// command in flight is never cut short by closing.
	ctx    context.Context
	cancel context.CancelFunc

	commands int
}

// New builds the session and handler chain. A pattern that fails to
// compile or a handler that fails to initialise is returned as an error.
func New(opts Options) (*App, error) {
	if opts.Console == nil {
		return nil, errors.New("app: no console")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Dir != "" {
		if err := os.Chdir(opts.Dir); err != nil {
			return nil, fmt.Errorf("start directory: %w", err)
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}

	id := uuid.NewString()
	log := activitylog.New(cfg.ActivityLog != "", cfg.ActivityLog, "ecmd", id)

	a := &App{opts: opts, log: log}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.exec = opts.Executor
	if a.exec == nil {
		dialect, err := shell.DialectFor(cfg.Dialect)
		if err != nil {
			a.abort()
			return nil, err
		}
		local, err := shell.NewLocal(shell.Config{
			Shell:   cfg.Shell,
			Dialect: dialect,
			Size:    opts.Console.Size,
			Log:     log,
		})
		if err != nil {
			a.abort()
			return nil, err
		}
		a.exec = local
	}

	var format *tmpl.Template
	if cfg.Prompt.Format != "" {
		if format, err = tmpl.Parse(cfg.Prompt.Format); err != nil {
			a.abort()
			return nil, fmt.Errorf("prompt format: %w", err)
		}
	}

	a.in = newInput(opts.Console, a.running, a.exec.Interrupt)
	a.s = session.New(a.in, session.Config{
		ID:               id,
		Echo:             cfg.EchoEnabled(),
		FileCompletion:   cfg.FileCompletion,
		WorkingDirectory: wd,
		DrivePaths:       cfg.DrivePaths,
		PromptAttr:       promptAttr(cfg.Prompt, opts.Output),
		PromptFormat:     format,
		Log:              log,
	})

	if err := a.buildChain(cfg.PluginPaths); err != nil {
		a.abort()
		return nil, err
	}
	return a, nil
}

func (a *App) running() bool { return a.s != nil && a.s.CmdRunning() }

// buildChain places plugins ahead of the built-in handlers of each stage.
func (a *App) buildChain(pluginPaths []string) error {
	a.d = handler.NewDispatcher(a.s)
	if err := a.d.Use(handler.StageIgnorable, keys.Ctrl(), keys.Alt()); err != nil {
		return err
	}

	providers := a.opts.Providers
	if providers == nil {
		providers = []plugin.Provider{plugin.Static{}, plugin.Lua{Log: a.log}}
	}
	for _, p := range providers {
		a.plugins = append(a.plugins, a.d.UsePlugins(p.Name(), p.Load(pluginPaths))...)
	}

	if err := a.d.Use(handler.StageEdit, keys.EditMode()); err != nil {
		return err
	}
	if err := a.d.Use(handler.StageKeys, keys.Normal(a.d.Gate(), a.opts.Clipboard)...); err != nil {
		return err
	}
	builtins, err := commands.Builtins(a.ctx, a.exec)
	if err != nil {
		return fmt.Errorf("built-in commands: %w", err)
	}
	if err := a.d.Use(handler.StageCommands, builtins...); err != nil {
		return err
	}
	return a.d.Use(handler.StageFallback, keys.Unbound())
}

// Session returns the session the app drives.
func (a *App) Session() *session.Session { return a.s }

// Dispatcher returns the handler chain.
func (a *App) Dispatcher() *handler.Dispatcher { return a.d }

// Run shows the header and prompt, runs the start-up command and then
// handles input until the session closes or input ends. It returns the
// session's exit code.
func (a *App) Run(ctx context.Context) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unsubscribe := a.s.OnSessionClosing(func(bool) { cancel() })
	defer unsubscribe()
	go a.in.pump(ctx)

	err := a.loop(ctx)
	code := a.exitCode()
	a.log.SessionEnd(code, a.commands)
	return code, err
}

func (a *App) loop(ctx context.Context) error {
	a.start()
	if a.opts.Command != "" {
		if err := a.submit(a.opts.Command); err != nil {
			return err
		}
		if !a.opts.Keep {
			a.s.EndSession(nil)
		}
	}

	for !a.s.Closing() {
		rec, err := a.in.ReadRecord(ctx)
		if err != nil {
			if a.s.Closing() || errors.Is(err, console.ErrClosed) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if err := a.handle(rec); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) start() {
	if a.opts.Command == "" && !a.opts.NoHeader {
		for _, line := range version.Header() {
			a.s.Write(line + "\n")
		}
		a.s.WritePrompt(true)
		return
	}
	a.s.WritePrompt(false)
}

// submit types line at the prompt and presses Enter.
func (a *App) submit(line string) error {
	a.s.InputAppend(line)
	return a.dispatch(console.NewKey(console.KeyEnter, 0))
}

func (a *App) handle(rec console.Record) error {
	switch {
	case rec.Key != nil:
		return a.dispatch(rec.Key)
	case rec.Mouse != nil:
		keys.HandleMouse(a.s, rec.Mouse)
	case rec.Resize != nil:
		if a.s.Mode() == session.ModeNormal && !a.s.CmdRunning() {
			a.s.Redraw(a.s.CursorIndex())
		}
	}
	return nil
}

func (a *App) dispatch(e *console.KeyEvent) error {
	err := a.d.Dispatch(e)
	if err != nil && !errors.Is(err, handler.ErrUnclaimed) {
		return fmt.Errorf("dispatch %s: %w", e, err)
	}
	if h := a.d.ClaimedBy(); h != nil && handler.IsCommand(h) {
		a.commands++
	}
	return nil
}

// exitCode is the code given to EXIT, else the status of the last shell
// command when a start-up command closed the session, else zero.
func (a *App) exitCode() int {
	if c := a.s.ExitCode; c != nil {
		return *c
	}
	if a.opts.Command != "" && !a.opts.Keep {
		return a.s.LastExitCode
	}
	return 0
}

// Close releases plugins, the executor, the activity log and the console.
func (a *App) Close() error {
	a.cancel()
	plugin.Close(a.plugins)
	var errs []error
	if c, ok := a.exec.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, a.log.Close(), a.opts.Console.Close())
	return errors.Join(errs...)
}

// abort releases what New acquired before failing.
func (a *App) abort() {
	a.cancel()
	plugin.Close(a.plugins)
	if c, ok := a.exec.(io.Closer); ok {
		c.Close()
	}
	a.log.Close()
}
