package keys

import (
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

// Home moves to the start of the line; Ctrl+Home deletes everything left of
// the cursor.
func Home() handler.Handler {
	return newKey("Home", "Moves to the start of the line", func(s *session.Session, e *console.KeyEvent) bool {
		switch {
		case !e.HasModifier():
			s.MoveCursorToStartOfInput()
		case e.CtrlOnly():
			s.Input.RemoveRange(0, s.CursorIndex())
			s.Redraw(0)
		default:
			return false
		}
		return true
	}, console.KeyHome)
}

// End moves past the end of the line; Ctrl+End deletes everything from the
// cursor on.
func End() handler.Handler {
	return newKey("End", "Moves to the end of the line", func(s *session.Session, e *console.KeyEvent) bool {
		switch {
		case !e.HasModifier():
			s.MoveCursorToEndOfInput()
		case e.CtrlOnly():
			idx := s.CursorIndex()
			s.Input.RemoveRange(idx, s.Input.Len())
			s.Redraw(idx)
		default:
			return false
		}
		return true
	}, console.KeyEnd)
}

// Left moves one character left, or one word with Ctrl.
func Left() handler.Handler {
	return newKey("LeftArrow", "Moves the cursor left", func(s *session.Session, e *console.KeyEvent) bool {
		if tabsBlockArrows(s) {
			return true
		}
		idx := s.CursorIndex()
		switch {
		case !e.HasModifier():
			if idx > 0 {
				s.MoveCursorTo(idx - 1)
			}
		case e.CtrlOnly():
			s.MoveCursorTo(s.Input.PrevWord(idx))
		default:
			return false
		}
		return true
	}, console.KeyLeft)
}

// Right moves one character right, or one word with Ctrl.
func Right() handler.Handler {
	return newKey("RightArrow", "Moves the cursor right", func(s *session.Session, e *console.KeyEvent) bool {
		if tabsBlockArrows(s) {
			return true
		}
		idx := s.CursorIndex()
		switch {
		case !e.HasModifier():
			if idx < s.Input.Len() {
				s.MoveCursorTo(idx + 1)
			}
		case e.CtrlOnly():
			s.MoveCursorTo(s.Input.NextWord(idx))
		default:
			return false
		}
		return true
	}, console.KeyRight)
}

// tabsBlockArrows keeps the classic behaviour of refusing to move across a
// line holding a literal tab when file completion is off.
func tabsBlockArrows(s *session.Session) bool {
	if s.Input.HasTab() && !s.FileCompletion {
		s.Console.Beep()
		return true
	}
	return false
}
