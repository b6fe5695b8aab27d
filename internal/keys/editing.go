package keys

import (
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

// Printable inserts or, in overwrite mode, replaces the character at the
// cursor. Ctrl and Alt combinations are left alone unless they come from
// AltGr.
func Printable() handler.Handler {
	return newKey("PrintableCharacter", "Types a character", func(s *session.Session, e *console.KeyEvent) bool {
		if !e.Printable() || e.CommandModifier() {
			return false
		}
		typeRune(s, e.Rune)
		return true
	}, console.KeyRune)
}

func typeRune(s *session.Session, r rune) {
	idx := s.CursorIndex()
	if s.OverwriteMode && idx < s.Input.Len() {
		s.Input.Overwrite(idx, r)
		s.Redraw(idx + 1)
		return
	}
	s.InputInsert(idx, r)
}

// Escape discards the line.
func Escape() handler.Handler {
	return newKey("Escape", "Clears the line", func(s *session.Session, e *console.KeyEvent) bool {
		if e.HasModifier() {
			return false
		}
		s.InputClear(true, 0)
		return true
	}, console.KeyEscape)
}

// Backspace deletes the character before the cursor.
func Backspace() handler.Handler {
	return newKey("Backspace", "Deletes the character before the cursor", func(s *session.Session, e *console.KeyEvent) bool {
		if e.CommandModifier() {
			return false
		}
		if idx := s.CursorIndex(); idx > 0 {
			s.InputRemove(idx - 1)
		}
		return true
	}, console.KeyBackspace)
}

// Delete deletes the character under the cursor.
func Delete() handler.Handler {
	return newKey("Delete", "Deletes the character under the cursor", func(s *session.Session, e *console.KeyEvent) bool {
		if e.HasModifier() {
			return false
		}
		if idx := s.CursorIndex(); idx < s.Input.Len() {
			s.InputRemove(idx)
		}
		return true
	}, console.KeyDelete)
}

// Insert toggles overwrite mode.
func Insert() handler.Handler {
	return newKey("Insert", "Toggles overwrite mode", func(s *session.Session, e *console.KeyEvent) bool {
		if e.HasModifier() {
			return false
		}
		s.OverwriteMode = !s.OverwriteMode
		return true
	}, console.KeyInsert)
}

// F1 enters Edit mode on Ctrl+F1.
func F1() handler.Handler {
	return newKey("F1", "Ctrl+F1 enters edit mode", enterEditMode, console.KeyF1)
}

// F12 enters Edit mode on Ctrl+F12.
func F12() handler.Handler {
	return newKey("F12", "Ctrl+F12 enters edit mode", enterEditMode, console.KeyF12)
}

func enterEditMode(s *session.Session, e *console.KeyEvent) bool {
	if !e.CtrlOnly() {
		return false
	}
	s.EnterEditMode()
	return true
}
