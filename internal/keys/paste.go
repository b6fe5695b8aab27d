package keys

import (
	"strings"

	"github.com/atotto/clipboard"

	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

// Clipboard reads the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

// SystemClipboard is the clipboard of the desktop session, if any.
var SystemClipboard Clipboard = systemClipboard{}

// Paste inserts the clipboard text at the cursor on Ctrl+V. Line breaks
// become spaces; the line is never submitted by a paste.
func Paste(clip Clipboard) handler.Handler {
	if clip == nil {
		clip = SystemClipboard
	}
	return newKey("Paste", "Ctrl+V pastes the clipboard", func(s *session.Session, e *console.KeyEvent) bool {
		if !e.CtrlOnly() || (e.Rune != 'v' && e.Rune != 'V') {
			return false
		}
		text, err := clip.ReadAll()
		if err != nil || text == "" {
			s.Console.Beep()
			return true
		}
		text = strings.TrimRight(text, "\r\n")
		text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)

		idx := s.CursorIndex()
		n := 0
		for _, r := range text {
			if r < ' ' && r != '\t' {
				continue
			}
			s.Input.Insert(idx+n, r)
			n++
		}
		s.Redraw(idx + n)
		return true
	}, console.KeyRune)
}
