package commands

import (
	"context"

	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
	"ecmd/internal/shell"
)

type changeDrive struct{ base }

// NewChangeDrive handles a bare drive letter such as "D:". It returns to
// the directory last used on that drive.
func NewChangeDrive(ctx context.Context, x shell.Executor) (handler.Handler, error) {
	b, err := newBase(ctx, x, "ChangeDrive", "Switches to another drive", handler.Optional, "[a-z]:")
	return &changeDrive{b}, err
}

func (h *changeDrive) ProcessCommand(e *console.KeyEvent) {
	line, ok := h.take(e)
	if !ok {
		return
	}
	s := h.s
	s.FinishInput()

	drive := session.DriveOf(line)
	if drive == session.DriveOf(s.WorkingDirectory) {
		s.WritePrompt(false)
		return
	}
	target := s.DrivePaths[drive]
	if target == "" {
		target = line
	}
	res := runForeground(h.ctx, s, h.exec, shell.Request{
		Command:     "CD /D " + target,
		SilentDir:   true,
		SelfClosing: true,
		EchoOff:     true,
	})
	if res != nil {
		if lines, ok := shell.ReadCapture(h.ctx, res.DirFile, s.Log); ok && len(lines) > 0 && lines[0] != s.WorkingDirectory {
			if err := s.ChangeDirectory(lines[0]); err != nil {
				s.Write(err.Error() + "\n")
			}
		}
	}
	s.WritePrompt(false)
}
