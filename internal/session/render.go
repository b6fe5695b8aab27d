package session

import (
	"strings"

	"ecmd/internal/console"
)

// CursorIndex returns the character index under the console cursor.
func (s *Session) CursorIndex() int {
	cols, _ := s.Console.Size()
	return s.Input.CursorToChar(s.Console.Cursor(), cols)
}

// InputClear blanks the drawn line plus extra cells. With moveCursor set the
// text is discarded and the cursor returns to the start of input; otherwise
// the text is kept for the next Redraw.
func (s *Session) InputClear(moveCursor bool, extra int) {
	cols, _ := s.Console.Size()
	s.blank(cols, extra)
	if moveCursor {
		s.Input.Reset()
		s.Console.SetCursor(s.Input.Start)
	}
	s.Console.Flush()
}

// InputAppend adds text at the end of the line and redraws with the cursor
// after it.
func (s *Session) InputAppend(text string) {
	s.Input.Append(text)
	s.Redraw(s.Input.Len())
}

// InputInsert inserts r at i and redraws with the cursor after it.
func (s *Session) InputInsert(i int, r rune) {
	s.Input.Insert(i, r)
	s.Redraw(i + 1)
}

// InputRemove deletes the character at i and redraws with the cursor on i.
func (s *Session) InputRemove(i int) {
	s.Input.Remove(i)
	s.Redraw(i)
}

func (s *Session) MoveCursorToStartOfInput() {
	s.Console.SetCursor(s.Input.Start)
	s.Console.Flush()
}

func (s *Session) MoveCursorToEndOfInput() {
	cols, _ := s.Console.Size()
	s.Console.SetCursor(s.Input.End(cols))
	s.Console.Flush()
}

// MoveCursorTo places the cursor on character i.
func (s *Session) MoveCursorTo(i int) {
	cols, _ := s.Console.Size()
	s.Console.SetCursor(s.Input.CharToCursor(i, cols))
	s.Console.Flush()
}

// Redraw repaints the line from its start, blanking whatever the previous
// drawing covered, and puts the cursor on character cursor. The screen
// scrolls up when the line would run past the bottom row.
func (s *Session) Redraw(cursor int) {
	cols, rows := s.Console.Size()
	s.blank(cols, 0)

	if end := s.Input.End(cols); end.Y >= rows {
		s.scroll(end.Y-rows+1, cols, rows)
	}
	s.draw(cols)
	s.drawnEnd = s.Input.End(cols)
	s.Console.SetCursor(s.Input.CharToCursor(cursor, cols))
	s.Console.Flush()
}

// blank clears the cells from the start of input to the end of the last
// drawing, plus extra cells.
func (s *Session) blank(cols, extra int) {
	from := s.Input.Start
	to := s.drawnEnd
	to.X += extra
	for to.X > cols {
		to.X -= cols
		to.Y++
	}
	for y := from.Y; y <= to.Y; y++ {
		x0, x1 := 0, cols
		if y == from.Y {
			x0 = from.X
		}
		if y == to.Y {
			x1 = to.X
		}
		if x1 <= x0 {
			continue
		}
		s.Console.SetCursor(console.Point{X: x0, Y: y})
		s.Console.Write(strings.Repeat(" ", x1-x0))
	}
	s.drawnEnd = from
}

func (s *Session) scroll(n, cols, rows int) {
	if n > s.Input.Start.Y {
		n = s.Input.Start.Y
	}
	if n <= 0 {
		return
	}
	s.Console.MoveRegion(console.Rect{X: 0, Y: n, Width: cols, Height: rows - n}, console.Point{})
	s.Input.Start.Y -= n
}

// draw writes the line in runs of cells that share a row, expanding tabs to
// spaces.
func (s *Session) draw(cols int) {
	var (
		run   []rune
		start console.Point
		next  console.Point
	)
	flush := func() {
		if len(run) == 0 {
			return
		}
		s.Console.SetCursor(start)
		s.Console.Write(string(run))
		run = run[:0]
	}
	for _, c := range s.Input.Layout(cols) {
		if len(run) == 0 || c.Pos != next {
			flush()
			start = c.Pos
		}
		if r := s.Input.RuneAt(c.Index); r == '\t' {
			run = append(run, []rune(strings.Repeat(" ", c.Width))...)
		} else {
			run = append(run, r)
		}
		next = console.Point{X: c.Pos.X + c.Width, Y: c.Pos.Y}
	}
	flush()
}

// FinishInput moves the cursor past the end of the line and starts a new
// row, leaving the typed command on screen.
func (s *Session) FinishInput() {
	s.MoveCursorToEndOfInput()
	s.Console.Write("\n")
}

// WritePrompt starts a fresh input line. The prompt is only printed while
// echo is on; blankLine adds an empty row before it.
func (s *Session) WritePrompt(blankLine bool) {
	if s.Console.Cursor().X != 0 {
		s.Console.Write("\n")
	}
	if s.EchoEnabled {
		if blankLine {
			s.Console.Write("\n")
		}
		s.Console.SetAttr(s.PromptAttr)
		s.Console.Write(s.Prompt())
		s.Console.SetAttr(console.DefaultAttr)
	}
	s.Input.Reset()
	s.Input.Start = s.Console.Cursor()
	s.drawnEnd = s.Input.Start
	s.Console.ShowCursor(true)
	s.Console.Flush()
}

// Write prints output text at the cursor.
func (s *Session) Write(text string) {
	s.Console.Write(text)
	s.Console.Flush()
}
