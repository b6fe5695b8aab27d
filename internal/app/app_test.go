package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecmd/internal/config"
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/plugin"
	"ecmd/internal/session"
	"ecmd/internal/shell/shelltest"
	"ecmd/internal/version"
)

type harness struct {
	con  *console.Headless
	fake *shelltest.Fake
	app  *App
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	chdir(t, t.TempDir())
	con := console.NewHeadless(120, 20)
	fake := shelltest.New(t.TempDir())
	opts.Console = con
	opts.Executor = fake
	if opts.Config == nil {
		opts.Config = &config.Config{}
	}
	if opts.Providers == nil {
		opts.Providers = []plugin.Provider{}
	}
	a, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return &harness{con: con, fake: fake, app: a}
}

func (h *harness) run(t *testing.T) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	code, err := h.app.Run(ctx)
	require.NoError(t, err)
	return code
}

func (h *harness) prompt() string { return h.app.Session().Prompt() }

func TestRun_HeaderThenExit(t *testing.T) {
	h := newHarness(t, Options{})
	h.con.Type("exit 3\n")

	assert.Equal(t, 3, h.run(t))
	header := version.Header()
	assert.Equal(t, header[0], h.con.Row(0))
	assert.Equal(t, header[1], h.con.Row(1))
	assert.Equal(t, "", h.con.Row(2))
	assert.Equal(t, h.prompt()+"exit 3", h.con.Row(3))
	assert.True(t, h.app.Session().Closing())
}

func TestRun_NoHeader(t *testing.T) {
	h := newHarness(t, Options{NoHeader: true})
	h.con.Type("exit\n")

	assert.Equal(t, 0, h.run(t))
	assert.Equal(t, h.prompt()+"exit", h.con.Row(0))
}

func TestRun_CommandThenClose(t *testing.T) {
	h := newHarness(t, Options{Command: "dir"})
	h.fake.On("dir", shelltest.Response{Output: []string{"a.txt"}, Code: 2})

	assert.Equal(t, 2, h.run(t))
	assert.Equal(t, h.prompt()+"dir", h.con.Row(0))
	assert.Equal(t, "a.txt", h.con.Row(1))
	assert.Equal(t, []string{"dir"}, h.fake.Commands())
	assert.Equal(t, []string{"dir"}, h.app.Session().History.Entries())
}

func TestRun_CommandThenKeep(t *testing.T) {
	h := newHarness(t, Options{Command: "dir", Keep: true})
	h.fake.On("dir", shelltest.Response{Code: 1})
	h.con.Type("ver\nexit\n")

	assert.Equal(t, 0, h.run(t))
	assert.Equal(t, []string{"dir"}, h.fake.Commands())
	assert.Equal(t, []string{"dir", "ver", "exit"}, h.app.Session().History.Entries())
	assert.Contains(t, h.con.Screen(), version.Banner())
}

func TestRun_EndOfInput(t *testing.T) {
	h := newHarness(t, Options{NoHeader: true})
	h.con.Type("echo off\n")
	h.con.EndInput()

	assert.Equal(t, 0, h.run(t))
	assert.False(t, h.app.Session().EchoEnabled)
	assert.False(t, h.app.Session().Closing())
}

func TestRun_InterruptReachesRunningCommand(t *testing.T) {
	h := newHarness(t, Options{NoHeader: true})
	h.fake.On("sleep", shelltest.Response{Output: []string{"zzz"}, UntilInterrupt: true})

	type outcome struct {
		code int
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		code, err := h.app.Run(context.Background())
		done <- outcome{code, err}
	}()

	s := h.app.Session()
	h.con.Type("sleep\n")
	require.Eventually(t, s.CmdRunning, 5*time.Second, time.Millisecond)
	h.con.Feed(console.Record{Key: console.NewRune('c', console.ModCtrl)})
	require.Eventually(t, func() bool { return !s.CmdRunning() }, 5*time.Second, time.Millisecond)
	h.con.Type("exit\n")

	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.Equal(t, 0, out.code)
	case <-time.After(10 * time.Second):
		t.Fatal("session did not end")
	}
	assert.Equal(t, 1, h.fake.Interrupts())
	assert.Equal(t, 130, s.LastExitCode)
	assert.Contains(t, h.con.Screen(), "zzz\n^C")
}

func TestRun_MouseAndResize(t *testing.T) {
	h := newHarness(t, Options{NoHeader: true})
	h.con.Type("abc")
	h.con.Feed(
		console.Record{Mouse: &console.MouseEvent{Pos: console.Point{X: len(h.prompt()) + 1}, Buttons: console.ButtonLeft}},
		console.Record{Resize: &console.Point{X: 120, Y: 20}},
	)
	h.con.EndInput()

	h.run(t)
	assert.Equal(t, 1, h.app.Session().CursorIndex())
	assert.Equal(t, h.prompt()+"abc", h.con.Row(0))
}

type testProvider struct{ hs []handler.Handler }

func (testProvider) Name() string { return "test" }

func (p testProvider) Load([]string) []handler.Handler { return p.hs }

type hello struct {
	handler.Meta
	s *session.Session
}

func (h *hello) Init(s *session.Session) error {
	h.s = s
	return nil
}

func (h *hello) ProcessCommand(e *console.KeyEvent) {
	if e.Claimed || strings.TrimSpace(h.s.Input.Text()) != "hello" {
		return
	}
	e.Claim()
	h.s.FinishInput()
	h.s.Write("hi there\n")
	h.s.WritePrompt(true)
}

func TestChain_PluginsRunBeforeBuiltins(t *testing.T) {
	plug := &hello{Meta: handler.Meta{
		Name:     "Hello",
		Normal:   true,
		Keys:     []console.Key{console.KeyEnter},
		Commands: []string{"hello"},
	}}
	h := newHarness(t, Options{NoHeader: true, Providers: []plugin.Provider{testProvider{[]handler.Handler{plug}}}})
	h.con.Type("hello\nexit\n")
	h.run(t)

	cmds := h.app.Dispatcher().Handlers(handler.StageCommands)
	require.NotEmpty(t, cmds)
	assert.Same(t, plug, cmds[0])
	assert.Equal(t, "Passthrough", cmds[len(cmds)-1].Info().Name)

	assert.Equal(t, "hi there", h.con.Row(1))
	assert.Empty(t, h.fake.Commands())
	assert.Equal(t, []string{"hello", "exit"}, h.app.Session().History.Entries())
}

func TestChain_LuaPluginsFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.lua"), []byte(`
return {
  commands = {"greet"},
  process = function(ev) session.write("greetings\n") end,
}`), 0o644))

	chdir(t, t.TempDir())
	con := console.NewHeadless(120, 20)
	fake := shelltest.New(t.TempDir())
	a, err := New(Options{
		Config:   &config.Config{PluginPaths: []string{dir}},
		Console:  con,
		Executor: fake,
		NoHeader: true,
	})
	require.NoError(t, err)
	defer a.Close()

	con.Type("greet\nexit\n")
	_, err = a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "greetings", con.Row(1))
	assert.Empty(t, fake.Commands())
}

func TestActivityLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "activity.jsonl")
	h := newHarness(t, Options{NoHeader: true, Config: &config.Config{ActivityLog: logPath}})
	h.con.Type("dir\nexit 4\n")
	assert.Equal(t, 4, h.run(t))
	require.NoError(t, h.app.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, `"event":"command"`)
	assert.Contains(t, log, `"event":"session_end"`)
	assert.Contains(t, log, `"exit_code":4`)
	assert.Contains(t, log, `"commands":2`)
}

func TestNew_StartDirectory(t *testing.T) {
	target := t.TempDir()
	h := newHarness(t, Options{Dir: target})
	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(h.app.Session().WorkingDirectory)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Console: console.NewHeadless(10, 5), Dir: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorContains(t, err, "start directory")

	_, err = New(Options{Console: console.NewHeadless(10, 5), Config: &config.Config{Dialect: "fish"}})
	assert.Error(t, err)
}

func TestPromptColour(t *testing.T) {
	h := newHarness(t, Options{
		NoHeader: true,
		Config:   &config.Config{Prompt: config.PromptConfig{Color: "12"}},
		Output:   termenv.NewOutput(io.Discard, termenv.WithProfile(termenv.ANSI256)),
	})
	h.con.Type("exit\n")
	h.run(t)
	assert.Equal(t, console.Color(12), h.con.AttrAt(console.Point{}).Fg)
	assert.Equal(t, console.DefaultAttr, h.con.AttrAt(console.Point{X: len(h.prompt())}))
}

func TestPromptAttr(t *testing.T) {
	ansi256 := termenv.NewOutput(io.Discard, termenv.WithProfile(termenv.ANSI256))
	ansi := termenv.NewOutput(io.Discard, termenv.WithProfile(termenv.ANSI))
	ascii := termenv.NewOutput(io.Discard, termenv.WithProfile(termenv.Ascii))

	a := promptAttr(config.PromptConfig{Color: "200", Bold: true}, ansi256)
	assert.Equal(t, console.Color(200), a.Fg)
	assert.True(t, a.Bold)

	a = promptAttr(config.PromptConfig{Color: "#ff0000"}, ansi)
	assert.GreaterOrEqual(t, int(a.Fg), 0)
	assert.Less(t, int(a.Fg), 16)

	a = promptAttr(config.PromptConfig{Color: "#ff0000"}, ansi256)
	assert.Equal(t, console.Color(196), a.Fg)

	a = promptAttr(config.PromptConfig{Color: "auto"}, ansi256)
	assert.Contains(t, []console.Color{autoDark, autoLight}, a.Fg)

	assert.Equal(t, console.DefaultColor, promptAttr(config.PromptConfig{Color: "none"}, ansi256).Fg)
	assert.Equal(t, console.DefaultColor, promptAttr(config.PromptConfig{Color: "12"}, ascii).Fg)

	a = promptAttr(config.PromptConfig{Color: "12", Bold: true}, nil)
	assert.Equal(t, console.DefaultColor, a.Fg)
	assert.True(t, a.Bold)
}

func TestInput_InterruptSkipsQueue(t *testing.T) {
	con := console.NewHeadless(40, 5)
	var running atomic.Bool
	var interrupts atomic.Int32
	running.Store(true)
	in := newInput(con, running.Load, func() { interrupts.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go in.pump(ctx)

	con.Feed(
		console.Record{Key: console.NewRune('c', console.ModCtrl)},
		console.Record{Key: console.NewRune('x', 0)},
	)
	rec, err := in.ReadRecord(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec.Key)
	assert.Equal(t, 'x', rec.Key.Rune)
	assert.Equal(t, int32(1), interrupts.Load())
}

func TestInput_CtrlCQueuedWhenIdle(t *testing.T) {
	con := console.NewHeadless(40, 5)
	var interrupts atomic.Int32
	in := newInput(con, func() bool { return false }, func() { interrupts.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go in.pump(ctx)

	con.Feed(console.Record{Key: console.NewRune('c', console.ModCtrl)})
	rec, err := in.ReadRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, 'c', rec.Key.Rune)
	assert.Zero(t, interrupts.Load())
}

func TestInput_EndOfInput(t *testing.T) {
	con := console.NewHeadless(40, 5)
	in := newInput(con, func() bool { return false }, func() {})
	go in.pump(context.Background())

	con.Type("ok\n")
	con.EndInput()
	line, err := in.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", line)

	_, err = in.ReadRecord(context.Background())
	assert.ErrorIs(t, err, console.ErrClosed)
}
