// Package console is the terminal I/O layer: input records, cursor and
// region primitives over a character-cell screen.
package console

import (
	"context"
	"errors"
)

// ErrClosed is returned by ReadRecord after the console has been closed.
var ErrClosed = errors.New("console closed")

// Point is a zero-based screen cell coordinate.
type Point struct {
	X, Y int
}

// Rect is a rectangular block of cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Color is an ANSI palette index. DefaultColor leaves the terminal default.
type Color int

const DefaultColor Color = -1

// Attr is the style applied to subsequent writes.
type Attr struct {
	Fg   Color
	Bg   Color
	Bold bool
}

// DefaultAttr is the terminal's default style.
var DefaultAttr = Attr{Fg: DefaultColor, Bg: DefaultColor}

// MouseEvent is a mouse button or movement report.
type MouseEvent struct {
	Pos     Point
	Buttons ButtonMask
	Moved   bool
}

// ButtonMask is the set of pressed mouse buttons.
type ButtonMask uint8

const (
	ButtonLeft ButtonMask = 1 << iota
	ButtonRight
	ButtonMiddle
)

// Record is one input record. Exactly one field is set.
type Record struct {
	Key    *KeyEvent
	Mouse  *MouseEvent
	Resize *Point
}

// Console is the surface the line editor draws on and reads from.
type Console interface {
	// ReadRecord blocks until the next input record is available.
	ReadRecord(ctx context.Context) (Record, error)
	// ReadLine reads a line of cooked input, echoing it at the cursor.
	ReadLine(ctx context.Context) (string, error)
	// Write prints s at the cursor. '\n' moves to the start of the next row
	// and the screen scrolls when the cursor passes the bottom row.
	Write(s string)
	SetCursor(p Point)
	Cursor() Point
	// Size returns the screen size in cells.
	Size() (cols, rows int)
	// MoveRegion copies src to dst; the part of src not covered by the
	// destination is blanked. Cells moved off screen are dropped.
	MoveRegion(src Rect, dst Point)
	ShowCursor(visible bool)
	SetAttr(a Attr)
	Beep()
	// Flush makes pending output visible.
	Flush()
	Close() error
}
