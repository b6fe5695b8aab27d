package keys

import (
	"ecmd/internal/console"
	"ecmd/internal/session"
)

// HandleMouse applies a mouse event. A left click in Normal mode moves the
// cursor to the nearest character of the line; in Edit mode it moves the
// cursor anywhere in the editable area, and a click outside it leaves Edit
// mode.
func HandleMouse(s *session.Session, m *console.MouseEvent) {
	if m.Moved || m.Buttons&console.ButtonLeft == 0 {
		return
	}
	switch s.Mode() {
	case session.ModeEdit:
		if !InsideEditableArea(s, m.Pos) {
			s.ExitEditMode()
			return
		}
		s.Console.SetCursor(m.Pos)
		s.Console.Flush()
	case session.ModeNormal:
		if s.CmdRunning() {
			return
		}
		cols, _ := s.Console.Size()
		s.MoveCursorTo(s.Input.CursorToChar(m.Pos, cols))
	}
}
