package console

import (
	"github.com/mattn/go-runewidth"
)

// surface is a fixed grid of cells a console renders into.
type surface interface {
	size() (cols, rows int)
	cell(x, y int) (rune, Attr)
	setCell(x, y int, r rune, a Attr)
	// scrolled is called with the top row's text before it leaves the screen.
	scrolled(row string)
}

// pen tracks the cursor and style over a surface and implements the
// cursor-relative parts of Console.
type pen struct {
	s    surface
	cur  Point
	attr Attr
	// wrapNext defers the wrap after a write into the last column so that
	// filling the bottom-right cell does not scroll.
	wrapNext bool
}

func newPen(s surface) *pen {
	return &pen{s: s, attr: DefaultAttr}
}

// RuneWidth is the number of cells r occupies, at least one.
func RuneWidth(r rune) int {
	if w := runewidth.RuneWidth(r); w > 1 {
		return w
	}
	return 1
}

func (p *pen) write(str string) {
	cols, rows := p.s.size()
	for _, r := range str {
		switch r {
		case '\r':
			p.cur.X = 0
			p.wrapNext = false
			continue
		case '\n':
			p.newline(rows)
			continue
		case '\t':
			n := 8 - p.cur.X%8
			for i := 0; i < n && p.cur.X < cols; i++ {
				p.put(' ', 1, cols, rows)
			}
			continue
		}
		if r < ' ' {
			continue
		}
		p.put(r, RuneWidth(r), cols, rows)
	}
}

func (p *pen) put(r rune, w, cols, rows int) {
	if p.wrapNext || p.cur.X+w > cols {
		p.newline(rows)
	}
	p.s.setCell(p.cur.X, p.cur.Y, r, p.attr)
	for i := 1; i < w && p.cur.X+i < cols; i++ {
		p.s.setCell(p.cur.X+i, p.cur.Y, 0, p.attr)
	}
	if p.cur.X+w >= cols {
		p.cur.X = cols - 1
		p.wrapNext = true
		return
	}
	p.cur.X += w
}

func (p *pen) newline(rows int) {
	p.wrapNext = false
	p.cur.X = 0
	if p.cur.Y+1 < rows {
		p.cur.Y++
		return
	}
	p.scroll()
}

func (p *pen) scroll() {
	cols, rows := p.s.size()
	p.s.scrolled(p.rowText(0))
	p.moveRegion(Rect{X: 0, Y: 1, Width: cols, Height: rows - 1}, Point{0, 0})
}

func (p *pen) rowText(y int) string {
	cols, _ := p.s.size()
	out := make([]rune, 0, cols)
	for x := 0; x < cols; x++ {
		r, _ := p.s.cell(x, y)
		if r == 0 {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func (p *pen) setCursor(pt Point) {
	cols, rows := p.s.size()
	p.cur = clampPoint(pt, cols, rows)
	p.wrapNext = false
}

func (p *pen) moveRegion(src Rect, dst Point) {
	cols, rows := p.s.size()
	type saved struct {
		r rune
		a Attr
	}
	if src.Width <= 0 || src.Height <= 0 {
		return
	}
	buf := make([][]saved, src.Height)
	for dy := 0; dy < src.Height; dy++ {
		buf[dy] = make([]saved, src.Width)
		for dx := 0; dx < src.Width; dx++ {
			x, y := src.X+dx, src.Y+dy
			if x < 0 || y < 0 || x >= cols || y >= rows {
				buf[dy][dx] = saved{' ', DefaultAttr}
				continue
			}
			r, a := p.s.cell(x, y)
			buf[dy][dx] = saved{r, a}
		}
	}
	inDst := func(x, y int) bool {
		return x >= dst.X && x < dst.X+src.Width && y >= dst.Y && y < dst.Y+src.Height
	}
	for dy := 0; dy < src.Height; dy++ {
		for dx := 0; dx < src.Width; dx++ {
			x, y := src.X+dx, src.Y+dy
			if x < 0 || y < 0 || x >= cols || y >= rows || inDst(x, y) {
				continue
			}
			p.s.setCell(x, y, ' ', DefaultAttr)
		}
	}
	for dy := 0; dy < src.Height; dy++ {
		for dx := 0; dx < src.Width; dx++ {
			x, y := dst.X+dx, dst.Y+dy
			if x < 0 || y < 0 || x >= cols || y >= rows {
				continue
			}
			c := buf[dy][dx]
			p.s.setCell(x, y, c.r, c.a)
		}
	}
}

func clampPoint(pt Point, cols, rows int) Point {
	if pt.X < 0 {
		pt.X = 0
	}
	if pt.Y < 0 {
		pt.Y = 0
	}
	if cols > 0 && pt.X >= cols {
		pt.X = cols - 1
	}
	if rows > 0 && pt.Y >= rows {
		pt.Y = rows - 1
	}
	return pt
}
