package keys

import (
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

// Up recalls the previous history entry.
func Up() handler.Handler {
	return historyKey("UpArrow", "Recalls the previous command", console.KeyUp,
		func(s *session.Session, line string) (string, bool) { return s.History.Up(line) })
}

// Down recalls the next history entry.
func Down() handler.Handler {
	return historyKey("DownArrow", "Recalls the next command", console.KeyDown,
		func(s *session.Session, line string) (string, bool) { return s.History.Down(line) })
}

// PageUp recalls the oldest history entry.
func PageUp() handler.Handler {
	return historyKey("PageUp", "Recalls the oldest command", console.KeyPageUp,
		func(s *session.Session, line string) (string, bool) { return s.History.Oldest(line) })
}

// PageDown recalls the newest history entry.
func PageDown() handler.Handler {
	return historyKey("PageDown", "Recalls the newest command", console.KeyPageDown,
		func(s *session.Session, line string) (string, bool) { return s.History.Newest(line) })
}

func historyKey(name, desc string, k console.Key, pick func(*session.Session, string) (string, bool)) handler.Handler {
	return newKey(name, desc, func(s *session.Session, e *console.KeyEvent) bool {
		switch {
		case !e.HasModifier():
		case e.CtrlOnly():
			// Ctrl+Up/Down scroll the host terminal; nothing to do here.
			return true
		default:
			return false
		}
		entry, ok := pick(s, s.Input.Text())
		if !ok {
			return true
		}
		s.InputClear(true, 0)
		s.InputAppend(entry)
		return true
	}, k)
}
