package commands

import (
	"context"

	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
	"ecmd/internal/shell"
)

type passthrough struct{ base }

// NewPassthrough runs any line through the shell. It must be the last
// command handler.
func NewPassthrough(ctx context.Context, x shell.Executor) (handler.Handler, error) {
	b, err := newBase(ctx, x, "Passthrough", "Runs the line in the shell", handler.Exact, ".*")
	b.match = handler.MatchAll()
	return &passthrough{b}, err
}

func (h *passthrough) ProcessCommand(e *console.KeyEvent) {
	line, ok := h.take(e)
	if !ok {
		return
	}
	h.s.FinishInput()
	runSynced(h.ctx, h.s, h.exec, line)
	h.s.WritePrompt(true)
}

// runSynced runs line in the shell and then adopts the directory and
// environment the shell finished with.
func runSynced(ctx context.Context, s *session.Session, x shell.Executor, line string) {
	res := runForeground(ctx, s, x, shell.Request{
		Command:     line,
		SilentDir:   true,
		SilentEnv:   true,
		SelfClosing: true,
	})
	if res == nil {
		return
	}
	if lines, ok := shell.ReadCapture(ctx, res.EnvFile, s.Log); ok {
		s.ApplyEnvironment(lines)
	}
	if lines, ok := shell.ReadCapture(ctx, res.DirFile, s.Log); ok && len(lines) > 0 && lines[0] != s.WorkingDirectory {
		if err := s.ChangeDirectory(lines[0]); err != nil {
			s.Write(err.Error() + "\n")
		}
	}
}
