package commands

import (
	"context"
	"strconv"
	"strings"

	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/shell"
	"ecmd/internal/version"
)

type enterEditMode struct{ base }

// NewEnterEditMode handles "edit" and "undo", which switch to Edit mode.
func NewEnterEditMode(ctx context.Context, x shell.Executor) (handler.Handler, error) {
	b, err := newBase(ctx, x, "EnterEditMode", "Edit the screen buffer", handler.WithArgs, "edit", "undo")
	return &enterEditMode{b}, err
}

func (h *enterEditMode) ProcessCommand(e *console.KeyEvent) {
	if _, ok := h.take(e); !ok {
		return
	}
	h.s.EnterEditMode()
}

type exit struct{ base }

// NewExit handles "exit [code]".
func NewExit(ctx context.Context, x shell.Executor) (handler.Handler, error) {
	b, err := newBase(ctx, x, "Exit", "Ends the session", handler.WithArgs, "exit")
	return &exit{b}, err
}

func (h *exit) ProcessCommand(e *console.KeyEvent) {
	line, ok := h.take(e)
	if !ok {
		return
	}
	h.s.FinishInput()
	var code *int
	if args := strings.Fields(line)[1:]; len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			code = &n
		}
	}
	h.s.EndSession(code)
}

type echo struct{ base }

// NewEcho handles "echo", "echo on" and "echo off". Echo with any other
// text goes to the shell.
func NewEcho(ctx context.Context, x shell.Executor) (handler.Handler, error) {
	b, err := newBase(ctx, x, "Echo", "Shows or sets prompt echo", handler.Exact, "echo", "echo on", "echo off")
	return &echo{b}, err
}

func (h *echo) ProcessCommand(e *console.KeyEvent) {
	line, ok := h.take(e)
	if !ok {
		return
	}
	h.s.FinishInput()
	switch strings.ToLower(strings.Join(strings.Fields(line), " ")) {
	case "echo on":
		h.s.EchoEnabled = true
	case "echo off":
		h.s.EchoEnabled = false
	default:
		if h.s.EchoEnabled {
			h.s.Write("ECHO is on.\n")
		} else {
			h.s.Write("ECHO is off.\n")
		}
	}
	h.s.WritePrompt(true)
}

type ver struct{ base }

// NewVer handles "ver".
func NewVer(ctx context.Context, x shell.Executor) (handler.Handler, error) {
	b, err := newBase(ctx, x, "Ver", "Shows the version", handler.Exact, "ver")
	return &ver{b}, err
}

func (h *ver) ProcessCommand(e *console.KeyEvent) {
	if _, ok := h.take(e); !ok {
		return
	}
	h.s.FinishInput()
	h.s.Write("\n" + version.Banner() + "\n")
	h.s.WritePrompt(true)
}

type color struct{ base }

// NewColor handles a bare "color", which restores the default colours.
func NewColor(ctx context.Context, x shell.Executor) (handler.Handler, error) {
	b, err := newBase(ctx, x, "Color", "Restores the default colours", handler.Optional, "color")
	return &color{b}, err
}

func (h *color) ProcessCommand(e *console.KeyEvent) {
	if _, ok := h.take(e); !ok {
		return
	}
	h.s.FinishInput()
	h.s.Console.SetAttr(console.DefaultAttr)
	runForeground(h.ctx, h.s, h.exec, shell.Request{Command: "COLOR 07", SelfClosing: true, EchoOff: true})
	h.s.WritePrompt(true)
}
