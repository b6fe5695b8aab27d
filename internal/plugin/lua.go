package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"ecmd/internal/activitylog"
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

// Lua loads handler scripts. Each *.lua file on the plugin paths returns a
// table describing one handler:
//
//	return {
//	  name = "Upper", description = "...", author = "...",
//	  keys = {"f5"},              -- key names; omitted means all keys
//	  normal = true, edit = false, mark = false,
//	  commands = {"hello"},       -- makes it a command handler
//	  init = function(session) end,
//	  process = function(event) return true end,
//	}
//
// Key handlers claim an event by returning true from process. Command
// handlers claim every line their commands match; process then runs
// between the command echo and the next prompt.
type Lua struct {
	Log *activitylog.Logger
}

func (Lua) Name() string { return "lua" }

// Load compiles every script found on paths, in path order and then file
// name order. Scripts that fail are logged and skipped.
func (p Lua) Load(paths []string) []handler.Handler {
	log := p.Log
	if log == nil {
		log = activitylog.Nop()
	}
	var hs []handler.Handler
	for _, file := range scriptFiles(paths) {
		h, err := loadScript(file)
		if err != nil {
			log.PluginDiscarded(filepath.Base(file), p.Name(), err)
			continue
		}
		h.log = log
		hs = append(hs, h)
	}
	return hs
}

func scriptFiles(paths []string) []string {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(p), ".lua") {
				files = append(files, p)
			}
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.lua"))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files
}

var errNotTable = errors.New("script must return a table")

type script struct {
	handler.Meta
	path    string
	L       *lua.LState
	match   *handler.Matcher
	init    *lua.LFunction
	process *lua.LFunction
	s       *session.Session
	log     *activitylog.Logger
	failed  bool
}

func loadScript(path string) (*script, error) {
	L := newState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("run %s: %w", filepath.Base(path), err)
	}
	var tbl *lua.LTable
	if L.GetTop() > 0 {
		tbl, _ = L.Get(-1).(*lua.LTable)
		L.SetTop(0)
	}
	if tbl == nil {
		L.Close()
		return nil, errNotTable
	}
	h, err := describe(path, tbl)
	if err != nil {
		L.Close()
		return nil, err
	}
	h.L = L
	return h, nil
}

// newState opens a Lua state with only the base, table, string and math
// libraries and without the functions that load code from disk.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func describe(path string, tbl *lua.LTable) (*script, error) {
	h := &script{path: path}
	h.Name = luaString(tbl, "name")
	if h.Name == "" {
		h.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	h.Description = luaString(tbl, "description")
	h.Author = luaString(tbl, "author")
	h.Normal = luaBool(tbl, "normal", true)
	h.Edit = luaBool(tbl, "edit", false)
	h.Mark = luaBool(tbl, "mark", false)

	keys, err := luaStrings(tbl, "keys")
	if err != nil {
		return nil, err
	}
	for _, name := range keys {
		k, err := console.ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", h.Name, err)
		}
		h.Keys = append(h.Keys, k)
	}

	commands, err := luaStrings(tbl, "commands")
	if err != nil {
		return nil, err
	}
	if len(commands) > 0 {
		if h.match, err = handler.Compile(commands, handler.WithArgs); err != nil {
			return nil, fmt.Errorf("%s: %w", h.Name, err)
		}
		h.Commands = commands
		if h.Keys == nil {
			h.Keys = []console.Key{console.KeyEnter}
		}
	}

	var ok bool
	if h.process, ok = tbl.RawGetString("process").(*lua.LFunction); !ok {
		return nil, fmt.Errorf("%s: process must be a function", h.Name)
	}
	if fn := tbl.RawGetString("init"); fn != lua.LNil {
		if h.init, ok = fn.(*lua.LFunction); !ok {
			return nil, fmt.Errorf("%s: init must be a function", h.Name)
		}
	}
	return h, nil
}

func luaString(tbl *lua.LTable, field string) string {
	if s, ok := tbl.RawGetString(field).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func luaBool(tbl *lua.LTable, field string, def bool) bool {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return def
	}
	return lua.LVAsBool(v)
}

func luaStrings(tbl *lua.LTable, field string) ([]string, error) {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return nil, nil
	}
	list, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of strings", field)
	}
	var out []string
	var bad bool
	list.ForEach(func(_, item lua.LValue) {
		s, ok := item.(lua.LString)
		if !ok {
			bad = true
			return
		}
		out = append(out, string(s))
	})
	if bad {
		return nil, fmt.Errorf("%s must be a list of strings", field)
	}
	return out, nil
}

// Init exposes the session to the script as the global "session" and runs
// the script's init function, if any.
func (h *script) Init(s *session.Session) error {
	h.s = s
	api := h.sessionAPI()
	h.L.SetGlobal("session", api)
	if h.init == nil {
		return nil
	}
	if err := h.L.CallByParam(lua.P{Fn: h.init, NRet: 0, Protect: true}, api); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

func (h *script) sessionAPI() *lua.LTable {
	L, s := h.L, h.s
	api := L.NewTable()
	fns := map[string]lua.LGFunction{
		"write": func(L *lua.LState) int {
			s.Write(L.CheckString(1))
			return 0
		},
		"input": func(L *lua.LState) int {
			L.Push(lua.LString(s.Input.Text()))
			return 1
		},
		"set_input": func(L *lua.LState) int {
			s.InputClear(true, 0)
			s.InputAppend(L.CheckString(1))
			return 0
		},
		"cwd": func(L *lua.LState) int {
			L.Push(lua.LString(s.WorkingDirectory))
			return 1
		},
		"echo": func(L *lua.LState) int {
			L.Push(lua.LBool(s.EchoEnabled))
			return 1
		},
		"prompt": func(L *lua.LState) int {
			L.Push(lua.LString(s.Prompt()))
			return 1
		},
		"beep": func(L *lua.LState) int {
			s.Console.Beep()
			return 0
		},
	}
	for name, fn := range fns {
		api.RawSetString(name, L.NewFunction(fn))
	}
	return api
}

func (h *script) ProcessCommand(e *console.KeyEvent) {
	if e.Claimed || h.failed {
		return
	}
	if h.match != nil {
		h.runCommand(e)
		return
	}
	claimed, err := h.call(e)
	if err != nil {
		h.disable(err)
		return
	}
	if claimed {
		e.Claim()
	}
}

func (h *script) runCommand(e *console.KeyEvent) {
	if e.Key != console.KeyEnter || !h.match.Match(h.s.Input.Text()) {
		return
	}
	e.Claim()
	h.s.FinishInput()
	if _, err := h.call(e); err != nil {
		h.s.Write(err.Error() + "\n")
		h.disable(err)
	}
	if h.s.Mode() == session.ModeNormal && !h.s.Closing() {
		h.s.WritePrompt(true)
	}
}

func (h *script) call(e *console.KeyEvent) (bool, error) {
	ev := h.L.NewTable()
	ev.RawSetString("key", lua.LString(e.Key.String()))
	if e.Key == console.KeyRune {
		ev.RawSetString("rune", lua.LString(string(e.Rune)))
	}
	ev.RawSetString("ctrl", lua.LBool(e.Ctrl()))
	ev.RawSetString("alt", lua.LBool(e.Alt()))
	ev.RawSetString("shift", lua.LBool(e.Shift()))
	ev.RawSetString("input", lua.LString(h.s.Input.Text()))

	if err := h.L.CallByParam(lua.P{Fn: h.process, NRet: 1, Protect: true}, ev); err != nil {
		return false, err
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	return lua.LVAsBool(ret), nil
}

// disable stops a script that failed at run time from seeing further
// events.
func (h *script) disable(err error) {
	h.failed = true
	if h.log != nil {
		h.log.PluginDiscarded(h.Name, "lua", err)
	}
}

func (h *script) Close() error {
	h.L.Close()
	return nil
}
