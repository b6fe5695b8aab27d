package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

func writeScript(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func newSession() (*console.Headless, *session.Session) {
	con := console.NewHeadless(60, 10)
	s := session.New(con, session.Config{Echo: true, WorkingDirectory: `C:\`})
	s.WritePrompt(false)
	return con, s
}

const upper = `
return {
  name = "Upper",
  description = "Uppercases the line",
  author = "tests",
  keys = {"f5"},
  process = function(ev)
    session.set_input(string.upper(ev.input))
    return true
  end,
}
`

const hello = `
return {
  commands = {"hello"},
  process = function(ev)
    session.write("Hello from " .. session.cwd() .. "\n")
  end,
}
`

func TestLua_KeyHandler(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "upper.lua", upper)

	hs := Lua{}.Load([]string{dir})
	require.Len(t, hs, 1)
	defer Close(hs)
	h := hs[0]
	assert.Equal(t, handler.Info{Name: "Upper", Description: "Uppercases the line", Author: "tests"}, h.Info())
	assert.Equal(t, []console.Key{console.KeyF5}, h.KeysHandled())
	assert.True(t, h.NormalModeHandled())
	assert.False(t, h.EditModeHandled())
	assert.False(t, handler.IsCommand(h))

	_, s := newSession()
	require.NoError(t, h.Init(s))
	s.InputAppend("dir /w")

	e := console.NewKey(console.KeyF5, 0)
	h.ProcessCommand(e)
	assert.True(t, e.Claimed)
	assert.Equal(t, "DIR /W", s.Input.Text())
}

func TestLua_CommandHandler(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hello.lua", hello)

	con, s := newSession()
	d := handler.NewDispatcher(s)
	require.NoError(t, d.Use(handler.StageKeys, d.Gate()))
	hs := d.UsePlugins("lua", Lua{}.Load([]string{dir}))
	require.Len(t, hs, 1)
	defer Close(hs)
	assert.Equal(t, "hello", hs[0].Info().Name)
	assert.Len(t, d.Handlers(handler.StageCommands), 1)

	s.InputAppend("HELLO there")
	require.NoError(t, d.Dispatch(console.NewKey(console.KeyEnter, 0)))

	assert.Same(t, hs[0], d.ClaimedBy())
	assert.Equal(t, `Hello from C:\`, con.Row(1))
	assert.Equal(t, `C:\>`, con.Row(3))
	assert.Equal(t, []string{"HELLO there"}, s.History.Entries())
}

func TestLua_BadScriptsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a_syntax.lua", "return {")
	writeScript(t, dir, "b_nothing.lua", "local x = 1")
	writeScript(t, dir, "c_badkey.lua", `return { keys = {"hyper"}, process = function() end }`)
	writeScript(t, dir, "d_noprocess.lua", `return { name = "x" }`)
	writeScript(t, dir, "e_badcmd.lua", `return { commands = {"(oops"}, process = function() end }`)
	writeScript(t, dir, "f_ok.lua", upper)
	writeScript(t, dir, "notes.txt", "not a script")

	hs := Lua{}.Load([]string{dir, filepath.Join(dir, "missing")})
	defer Close(hs)
	require.Len(t, hs, 1)
	assert.Equal(t, "Upper", hs[0].Info().Name)
}

func TestLua_SingleFilePath(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "upper.lua", upper)
	hs := Lua{}.Load([]string{filepath.Join(dir, "upper.lua")})
	defer Close(hs)
	assert.Len(t, hs, 1)
}

func TestLua_Sandboxed(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "probe.lua", `
return {
  process = function(ev)
    return io == nil and os == nil and dofile == nil and require == nil
  end,
}`)
	hs := Lua{}.Load([]string{dir})
	require.Len(t, hs, 1)
	defer Close(hs)

	_, s := newSession()
	require.NoError(t, hs[0].Init(s))
	e := console.NewKey(console.KeyF9, 0)
	hs[0].ProcessCommand(e)
	assert.True(t, e.Claimed)
}

func TestLua_InitFailureDiscarded(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "boom.lua", `
return {
  init = function(s) error("not today") end,
  process = function() return true end,
}`)

	_, s := newSession()
	d := handler.NewDispatcher(s)
	kept := d.UsePlugins("lua", Lua{}.Load([]string{dir}))
	assert.Empty(t, kept)
}

func TestLua_RuntimeErrorDisables(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "flaky.lua", `
local calls = 0
return {
  process = function(ev)
    calls = calls + 1
    if calls == 1 then error("first call fails") end
    return true
  end,
}`)
	hs := Lua{}.Load([]string{dir})
	require.Len(t, hs, 1)
	defer Close(hs)

	_, s := newSession()
	require.NoError(t, hs[0].Init(s))
	for i := 0; i < 2; i++ {
		e := console.NewKey(console.KeyF2, 0)
		hs[0].ProcessCommand(e)
		assert.False(t, e.Claimed)
	}
}

type staticPlugin struct {
	handler.Meta
}

func (*staticPlugin) Init(*session.Session) error { return nil }

func (*staticPlugin) ProcessCommand(*console.KeyEvent) {}

func TestStatic(t *testing.T) {
	Register(func() handler.Handler {
		return &staticPlugin{handler.Meta{Name: "compiled-in", Normal: true}}
	})

	var names []string
	for _, h := range (Static{}).Load(nil) {
		names = append(names, h.Info().Name)
	}
	assert.Contains(t, names, "compiled-in")
}
