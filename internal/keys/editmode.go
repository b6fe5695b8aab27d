package keys

import (
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

type editMode struct {
	handler.Meta
	s *session.Session
}

// EditMode edits the screen buffer directly while the session is in Edit
// mode. It consumes every key; Enter and Escape return to Normal mode.
func EditMode() handler.Handler {
	return &editMode{Meta: handler.Meta{
		Name:        "InputEditMode",
		Description: "Free cursor editing of the screen",
		Edit:        true,
	}}
}

func (h *editMode) Init(s *session.Session) error {
	h.s = s
	return nil
}

func (h *editMode) ProcessCommand(e *console.KeyEvent) {
	if e.Claimed || h.s.Mode() != session.ModeEdit {
		return
	}
	e.Claim()

	con := h.s.Console
	cur := con.Cursor()
	cols, _ := con.Size()
	moveTo := func(x, y int) { con.SetCursor(console.Point{X: x, Y: y}) }

	switch {
	case e.Printable() && !e.CommandModifier():
		if cur.X < cols-1 {
			con.MoveRegion(console.Rect{X: cur.X, Y: cur.Y, Width: cols - cur.X - 1, Height: 1},
				console.Point{X: cur.X + 1, Y: cur.Y})
		}
		moveTo(cur.X, cur.Y)
		con.Write(string(e.Rune))
		if cur.X < cols-1 {
			moveTo(cur.X+1, cur.Y)
		} else {
			moveTo(cur.X, cur.Y)
		}
	case e.Key == console.KeyEnter, e.Key == console.KeyEscape:
		h.s.ExitEditMode()
		return
	case e.Key == console.KeyUp:
		if cur.Y > 0 {
			moveTo(cur.X, cur.Y-1)
		}
	case e.Key == console.KeyDown:
		next := console.Point{X: cur.X, Y: cur.Y + 1}
		if !InsideEditableArea(h.s, next) {
			h.s.ExitEditMode()
			return
		}
		moveTo(next.X, next.Y)
	case e.Key == console.KeyLeft:
		if cur.X > 0 {
			moveTo(cur.X-1, cur.Y)
		}
	case e.Key == console.KeyRight:
		if cur.X < cols-1 {
			moveTo(cur.X+1, cur.Y)
		}
	case e.Key == console.KeyHome:
		moveTo(0, cur.Y)
	case e.Key == console.KeyBackspace:
		if cur.X > 0 {
			con.MoveRegion(console.Rect{X: cur.X, Y: cur.Y, Width: cols - cur.X, Height: 1},
				console.Point{X: cur.X - 1, Y: cur.Y})
			moveTo(cur.X-1, cur.Y)
		}
	case e.Key == console.KeyDelete:
		if cur.X < cols-1 {
			con.MoveRegion(console.Rect{X: cur.X + 1, Y: cur.Y, Width: cols - cur.X - 1, Height: 1},
				console.Point{X: cur.X, Y: cur.Y})
		} else {
			con.Write(" ")
		}
		moveTo(cur.X, cur.Y)
	}
	con.Flush()
}

// InsideEditableArea reports whether p lies on or above the row where the
// prompt was when Edit mode began.
func InsideEditableArea(s *session.Session, p console.Point) bool {
	cols, _ := s.Console.Size()
	return p.X >= 0 && p.X < cols && p.Y >= 0 && p.Y <= s.Input.Start.Y
}
