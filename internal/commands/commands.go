// Package commands implements the built-in command handlers that run when
// Enter submits a line: the handful of commands ecmd answers itself and the
// passthrough that hands everything else to the shell.
package commands

import (
	"context"
	"fmt"
	"strings"

	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
	"ecmd/internal/shell"
)

// Builtins returns the built-in command handlers in chain order. The
// passthrough comes last and claims any line the others leave.
func Builtins(ctx context.Context, x shell.Executor) ([]handler.Handler, error) {
	ctors := []func(context.Context, shell.Executor) (handler.Handler, error){
		NewEnterEditMode,
		NewChangeDrive,
		NewExit,
		NewColor,
		NewEcho,
		NewSet,
		NewVer,
		NewPassthrough,
	}
	hs := make([]handler.Handler, 0, len(ctors))
	for _, ctor := range ctors {
		h, err := ctor(ctx, x)
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, nil
}

// base is embedded by every command: a Normal-mode Enter handler whose
// pattern is matched against the trimmed line.
type base struct {
	handler.Meta
	s     *session.Session
	ctx   context.Context
	exec  shell.Executor
	match *handler.Matcher
}

func newBase(ctx context.Context, x shell.Executor, name, desc string, form handler.Form, words ...string) (base, error) {
	m, err := handler.Compile(words, form)
	if err != nil {
		return base{}, fmt.Errorf("command %s: %w", name, err)
	}
	return base{
		Meta: handler.Meta{
			Name:        name,
			Description: desc,
			Author:      "ecmd",
			Keys:        []console.Key{console.KeyEnter},
			Normal:      true,
			Commands:    words,
		},
		ctx:   ctx,
		exec:  x,
		match: m,
	}, nil
}

func (b *base) Init(s *session.Session) error {
	b.s = s
	return nil
}

// take claims e when it is an unclaimed Enter on a line this command
// recognises, and returns the trimmed line.
func (b *base) take(e *console.KeyEvent) (string, bool) {
	if e.Claimed || e.Key != console.KeyEnter {
		return "", false
	}
	line := strings.TrimSpace(b.s.Input.Text())
	if !b.match.Match(line) {
		return "", false
	}
	e.Claim()
	return line, true
}

// runForeground runs req, copying output to the console as it arrives,
// and returns once the command is done. The session is marked as running
// a command meanwhile so the input loop holds back keys.
func runForeground(ctx context.Context, s *session.Session, x shell.Executor, req shell.Request) *shell.Result {
	s.SetCmdRunning(true)
	defer s.SetCmdRunning(false)

	res, err := x.Start(ctx, req)
	if err != nil {
		s.Write(err.Error() + "\n")
		s.LastExitCode = -1
		return nil
	}
	for {
		select {
		case <-res.NewOutput():
			writeLines(s, res.Drain())
		case <-res.Done():
			writeLines(s, res.Drain())
			s.LastExitCode = res.ExitCode()
			return res
		case <-ctx.Done():
			writeLines(s, res.Drain())
			return res
		}
	}
}

// collect runs req without echoing anything and returns its output.
func collect(ctx context.Context, s *session.Session, x shell.Executor, req shell.Request) ([]string, bool) {
	s.SetCmdRunning(true)
	defer s.SetCmdRunning(false)

	res, err := x.Start(ctx, req)
	if err != nil {
		return []string{err.Error()}, false
	}
	if err := res.Wait(ctx); err != nil {
		return res.Drain(), false
	}
	return res.Drain(), res.Success()
}

func writeLines(s *session.Session, lines []string) {
	if len(lines) == 0 {
		return
	}
	s.Write(strings.Join(lines, "\n") + "\n")
}
