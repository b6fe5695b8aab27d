package linebuf

import (
	"ecmd/internal/console"
)

// TabWidth is the tab stop interval in cells.
const TabWidth = 8

// unbounded stands in for the width when the screen width is unknown.
const unbounded = 1 << 20

// Cell is where a character is drawn and how many cells it covers.
type Cell struct {
	Index int
	Pos   console.Point
	Width int
}

// walk lays the line out from Start on a screen cols wide, calling fn for
// each character until fn returns false. It returns the point just past the
// last character visited.
func (b *Buffer) walk(cols int, fn func(c Cell) bool) console.Point {
	if cols <= 0 {
		cols = unbounded
	}
	x, y := b.Start.X, b.Start.Y
	for i, r := range b.text {
		var w int
		if r == '\t' {
			w = TabWidth - x%TabWidth
			if x+w > cols {
				w = cols - x
			}
		} else {
			w = console.RuneWidth(r)
			if x+w > cols && x > 0 {
				x, y = 0, y+1
			}
		}
		if !fn(Cell{Index: i, Pos: console.Point{X: x, Y: y}, Width: w}) {
			return console.Point{X: x, Y: y}
		}
		x += w
		if x >= cols {
			x, y = 0, y+1
		}
	}
	return console.Point{X: x, Y: y}
}

// Layout returns the placement of every character.
func (b *Buffer) Layout(cols int) []Cell {
	cells := make([]Cell, 0, len(b.text))
	b.walk(cols, func(c Cell) bool {
		cells = append(cells, c)
		return true
	})
	return cells
}

// End returns the cell just past the last character.
func (b *Buffer) End(cols int) console.Point {
	return b.walk(cols, func(Cell) bool { return true })
}

// CharToCursor returns the screen cell of character i. Len maps to the cell
// after the last character; indices outside [0, Len] are clamped.
func (b *Buffer) CharToCursor(i, cols int) console.Point {
	if i < 0 {
		i = 0
	}
	if i >= len(b.text) {
		return b.End(cols)
	}
	var pos console.Point
	b.walk(cols, func(c Cell) bool {
		if c.Index == i {
			pos = c.Pos
			return false
		}
		return true
	})
	return pos
}

// CursorToChar returns the index of the character covering p. Points before
// Start map to 0 and points past the end map to Len. Padding left by a wide
// character wrapped to the next row belongs to that character.
func (b *Buffer) CursorToChar(p console.Point, cols int) int {
	if cols <= 0 {
		cols = unbounded
	}
	target := linear(p, cols)
	idx := len(b.text)
	b.walk(cols, func(c Cell) bool {
		if target < linear(c.Pos, cols)+c.Width {
			idx = c.Index
			return false
		}
		return true
	})
	return idx
}

// TabOffset reports tab widths. With single set it returns the width of the
// tab at i, or 0 when i is not a tab. Otherwise it returns the extra cells
// all tabs before i add beyond one cell each.
func (b *Buffer) TabOffset(i, cols int, single bool) int {
	total := 0
	b.walk(cols, func(c Cell) bool {
		if single {
			if c.Index == i {
				if b.text[i] == '\t' {
					total = c.Width
				}
				return false
			}
			return true
		}
		if c.Index >= i {
			return false
		}
		if b.text[c.Index] == '\t' {
			total += c.Width - 1
		}
		return true
	})
	return total
}

// Rows returns how many screen rows the line occupies, counting the row
// holding the cursor after the last character.
func (b *Buffer) Rows(cols int) int {
	return b.End(cols).Y - b.Start.Y + 1
}

func linear(p console.Point, cols int) int {
	return p.Y*cols + p.X
}
