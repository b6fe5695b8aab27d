// Package session holds the state shared by every handler: the line being
// edited, history, input mode, echo and directory state, and the
// notifications raised when the mode changes or the session closes.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"ecmd/internal/activitylog"
	"ecmd/internal/console"
	"ecmd/internal/history"
	"ecmd/internal/linebuf"
	"ecmd/internal/tmpl"
)

// Mode is the input mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeEdit
	// ModeMark is reserved; nothing enters it.
	ModeMark
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeEdit:
		return "edit"
	case ModeMark:
		return "mark"
	default:
		return "unknown"
	}
}

// EnvPrefix marks variables owned by ecmd itself; they are never copied
// back from a child shell.
const EnvPrefix = "ECMD_"

// Config seeds a new Session.
type Config struct {
	ID               string
	Echo             bool
	FileCompletion   bool
	WorkingDirectory string
	DrivePaths       map[string]string
	PromptAttr       console.Attr
	// PromptFormat renders the prompt; nil prints the directory and ">".
	PromptFormat *tmpl.Template
	Log          *activitylog.Logger
}

// Session is the state of one interactive run.
type Session struct {
	ID      string
	Console console.Console
	Input   *linebuf.Buffer
	History *history.History
	Log     *activitylog.Logger

	EchoEnabled      bool
	OverwriteMode    bool
	FileCompletion   bool
	WorkingDirectory string
	// DrivePaths maps a lowercase drive letter to the last directory used
	// on that drive.
	DrivePaths map[rune]string
	PromptAttr console.Attr
	ExitCode   *int

	// LastExitCode is the status of the last command run in the shell.
	LastExitCode int

	promptFormat *tmpl.Template

	mode       Mode
	closing    atomic.Bool
	cmdRunning atomic.Bool
	drawnEnd   console.Point

	modeChanged subscribers[bool]
	closingSubs subscribers[bool]
}

// New creates a session drawing on con.
func New(con console.Console, cfg Config) *Session {
	log := cfg.Log
	if log == nil {
		log = activitylog.Nop()
	}
	wd := cfg.WorkingDirectory
	if wd == "" {
		wd, _ = os.Getwd()
	}
	s := &Session{
		ID:               cfg.ID,
		Console:          con,
		Input:            linebuf.New(con.Cursor()),
		History:          history.New(),
		Log:              log,
		EchoEnabled:      cfg.Echo,
		FileCompletion:   cfg.FileCompletion,
		WorkingDirectory: wd,
		DrivePaths:       make(map[rune]string),
		PromptAttr:       cfg.PromptAttr,
		promptFormat:     cfg.PromptFormat,
	}
	for k, v := range cfg.DrivePaths {
		if len(k) == 1 {
			k += ":"
		}
		if d := DriveOf(k); d != 0 {
			s.DrivePaths[d] = v
		}
	}
	if d := DriveOf(wd); d != 0 {
		s.DrivePaths[d] = wd
	}
	s.drawnEnd = s.Input.Start
	return s
}

// Mode returns the current input mode.
func (s *Session) Mode() Mode { return s.mode }

// Closing reports whether the session has been asked to end.
func (s *Session) Closing() bool { return s.closing.Load() }

// CmdRunning reports whether a foreground shell command is running.
func (s *Session) CmdRunning() bool { return s.cmdRunning.Load() }

// SetCmdRunning marks the start or end of a foreground shell command.
func (s *Session) SetCmdRunning(on bool) { s.cmdRunning.Store(on) }

// OnModeChanged subscribes fn to mode changes; fn receives true when Edit
// mode is entered. The returned func unsubscribes.
func (s *Session) OnModeChanged(fn func(edit bool)) func() {
	return s.modeChanged.add(fn)
}

// OnSessionClosing subscribes fn to the closing notification.
func (s *Session) OnSessionClosing(fn func(closing bool)) func() {
	return s.closingSubs.add(fn)
}

// EnterEditMode switches from Normal to Edit mode, discarding the line.
func (s *Session) EnterEditMode() {
	if s.mode != ModeNormal {
		return
	}
	s.Console.ShowCursor(false)
	s.InputClear(true, 0)
	s.setMode(ModeEdit)
	s.Console.ShowCursor(true)
	s.Console.Flush()
}

// ExitEditMode returns to Normal mode with a fresh prompt below the prompt
// row that was active when Edit mode began.
func (s *Session) ExitEditMode() {
	if s.mode != ModeEdit {
		return
	}
	s.setMode(ModeNormal)
	s.Console.ShowCursor(true)
	s.Console.SetCursor(s.Input.Start)
	s.Console.Write("\n")
	s.WritePrompt(false)
}

func (s *Session) setMode(m Mode) {
	old := s.mode
	s.mode = m
	s.Log.ModeChange(old.String(), m.String())
	s.modeChanged.notify(m == ModeEdit)
}

// EndSession marks the session as closing with an optional exit code and
// notifies subscribers. All subscriptions are dropped afterwards.
func (s *Session) EndSession(code *int) {
	if code != nil {
		c := *code
		s.ExitCode = &c
	}
	if s.closing.Swap(true) {
		return
	}
	s.closingSubs.notify(true)
	s.closingSubs.clear()
	s.modeChanged.clear()
}

// Prompt returns the prompt text for the working directory. A format that
// fails to render falls back to the plain prompt.
func (s *Session) Prompt() string {
	if s.promptFormat != nil {
		ctx := tmpl.NewContext(s.WorkingDirectory)
		ctx.Echo = s.EchoEnabled
		ctx.Status = s.LastExitCode
		if p, err := s.promptFormat.Render(ctx); err == nil {
			return p
		}
	}
	return s.WorkingDirectory + ">"
}

// ReadLine reads a line typed at the cursor.
func (s *Session) ReadLine(ctx context.Context) (string, error) {
	return s.Console.ReadLine(ctx)
}

// ChangeDirectory makes dir the working directory of the process and the
// session and remembers it for its drive.
func (s *Session) ChangeDirectory(dir string) error {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.WorkingDirectory, dir)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("change directory: %w", err)
	}
	s.WorkingDirectory = dir
	if d := DriveOf(dir); d != 0 {
		s.DrivePaths[d] = dir
	}
	return nil
}

// ApplyEnvironment sets each NAME=value line as a process environment
// variable, skipping malformed lines and names carrying EnvPrefix.
func (s *Session) ApplyEnvironment(lines []string) int {
	n := 0
	for _, line := range lines {
		name, value, ok := strings.Cut(line, "=")
		if !ok || name == "" {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(name), EnvPrefix) {
			continue
		}
		if cur, set := os.LookupEnv(name); set && cur == value {
			continue
		}
		if err := os.Setenv(name, value); err == nil {
			n++
		}
	}
	return n
}

// DriveOf returns the lowercase drive letter of a "X:" style path, or 0.
func DriveOf(path string) rune {
	if len(path) < 2 || path[1] != ':' {
		return 0
	}
	c := rune(path[0])
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	if c < 'a' || c > 'z' {
		return 0
	}
	return c
}
