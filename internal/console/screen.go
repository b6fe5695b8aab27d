package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Screen is the interactive console over a tcell screen.
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen
	pen    *pen
	cols   int
	rows   int
	hidden bool

	events chan tcell.Event
	closed chan struct{}
	once   sync.Once
}

// NewScreen initialises the terminal and starts the event reader.
func NewScreen() (*Screen, error) {
	ts, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := ts.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	ts.EnableMouse()
	ts.Clear()
	s := &Screen{
		screen: ts,
		events: make(chan tcell.Event, 64),
		closed: make(chan struct{}),
	}
	s.cols, s.rows = ts.Size()
	s.pen = newPen(s)
	go s.poll()
	return s, nil
}

func (s *Screen) poll() {
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case s.events <- ev:
		case <-s.closed:
			return
		}
	}
}

func (s *Screen) size() (int, int) { return s.cols, s.rows }

func (s *Screen) cell(x, y int) (rune, Attr) {
	r, _, style, _ := s.screen.GetContent(x, y)
	if r == 0 {
		r = ' '
	}
	return r, attrFromStyle(style)
}

func (s *Screen) setCell(x, y int, r rune, a Attr) {
	if r == 0 {
		return
	}
	s.screen.SetContent(x, y, r, nil, styleFromAttr(a))
}

func (s *Screen) scrolled(string) {}

func (s *Screen) ReadRecord(ctx context.Context) (Record, error) {
	for {
		var ev tcell.Event
		select {
		case ev = <-s.events:
		case <-ctx.Done():
			return Record{}, ctx.Err()
		case <-s.closed:
			return Record{}, ErrClosed
		}
		if rec, ok := s.convert(ev); ok {
			return rec, nil
		}
	}
}

func (s *Screen) convert(ev tcell.Event) (Record, bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		k := convertKey(e)
		k.Time = e.When()
		return Record{Key: k}, true
	case *tcell.EventMouse:
		x, y := e.Position()
		var mask ButtonMask
		b := e.Buttons()
		if b&tcell.Button1 != 0 {
			mask |= ButtonLeft
		}
		if b&tcell.Button2 != 0 {
			mask |= ButtonRight
		}
		if b&tcell.Button3 != 0 {
			mask |= ButtonMiddle
		}
		return Record{Mouse: &MouseEvent{Pos: Point{x, y}, Buttons: mask, Moved: mask == 0}}, true
	case *tcell.EventResize:
		s.mu.Lock()
		s.cols, s.rows = e.Size()
		s.pen.setCursor(s.pen.cur)
		p := &Point{s.cols, s.rows}
		s.mu.Unlock()
		s.screen.Sync()
		return Record{Resize: p}, true
	}
	return Record{}, false
}

func convertKey(e *tcell.EventKey) *KeyEvent {
	var mod Modifier
	m := e.Modifiers()
	if m&tcell.ModShift != 0 {
		mod |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mod |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mod |= ModAlt
	}
	if mod&(ModCtrl|ModAlt) == ModCtrl|ModAlt && e.Key() == tcell.KeyRune {
		mod |= ModAltGr
	}

	switch k := e.Key(); k {
	case tcell.KeyRune:
		return NewRune(e.Rune(), mod)
	case tcell.KeyEnter:
		return NewKey(KeyEnter, mod)
	case tcell.KeyTab:
		return NewKey(KeyTab, mod)
	case tcell.KeyBacktab:
		return NewKey(KeyTab, mod|ModShift)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return NewKey(KeyBackspace, mod)
	case tcell.KeyEscape:
		return NewKey(KeyEscape, mod)
	case tcell.KeyInsert:
		return NewKey(KeyInsert, mod)
	case tcell.KeyDelete:
		return NewKey(KeyDelete, mod)
	case tcell.KeyHome:
		return NewKey(KeyHome, mod)
	case tcell.KeyEnd:
		return NewKey(KeyEnd, mod)
	case tcell.KeyPgUp:
		return NewKey(KeyPageUp, mod)
	case tcell.KeyPgDn:
		return NewKey(KeyPageDown, mod)
	case tcell.KeyUp:
		return NewKey(KeyUp, mod)
	case tcell.KeyDown:
		return NewKey(KeyDown, mod)
	case tcell.KeyLeft:
		return NewKey(KeyLeft, mod)
	case tcell.KeyRight:
		return NewKey(KeyRight, mod)
	case tcell.KeyCtrlC:
		return NewRune('c', mod|ModCtrl)
	default:
		if k >= tcell.KeyF1 && k <= tcell.KeyF12 {
			return NewKey(KeyF1+Key(k-tcell.KeyF1), mod)
		}
		if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
			return NewRune('a'+rune(k-tcell.KeyCtrlA), mod|ModCtrl)
		}
	}
	return NewKey(KeyNone, mod)
}

func styleFromAttr(a Attr) tcell.Style {
	st := tcell.StyleDefault
	if a.Fg != DefaultColor {
		st = st.Foreground(tcell.PaletteColor(int(a.Fg)))
	}
	if a.Bg != DefaultColor {
		st = st.Background(tcell.PaletteColor(int(a.Bg)))
	}
	return st.Bold(a.Bold)
}

func attrFromStyle(st tcell.Style) Attr {
	fg, bg, attrs := st.Decompose()
	a := Attr{Fg: paletteIndex(fg), Bg: paletteIndex(bg), Bold: attrs&tcell.AttrBold != 0}
	return a
}

func paletteIndex(c tcell.Color) Color {
	if c == tcell.ColorDefault || c < tcell.ColorValid || c >= tcell.ColorIsRGB {
		return DefaultColor
	}
	return Color(c - tcell.ColorValid)
}

func (s *Screen) ReadLine(ctx context.Context) (string, error) {
	return ReadLineFrom(ctx, s)
}

func (s *Screen) Write(str string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pen.write(str)
	s.placeCursor()
}

func (s *Screen) SetCursor(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pen.setCursor(p)
	s.placeCursor()
}

func (s *Screen) placeCursor() {
	if s.hidden {
		s.screen.HideCursor()
		return
	}
	s.screen.ShowCursor(s.pen.cur.X, s.pen.cur.Y)
}

func (s *Screen) Cursor() Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pen.cur
}

func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

func (s *Screen) MoveRegion(src Rect, dst Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pen.moveRegion(src, dst)
}

func (s *Screen) ShowCursor(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = !visible
	s.placeCursor()
}

func (s *Screen) SetAttr(a Attr) {
	s.mu.Lock()
	s.pen.attr = a
	s.mu.Unlock()
}

func (s *Screen) Beep() {
	_ = s.screen.Beep()
}

func (s *Screen) Flush() {
	s.screen.Show()
}

func (s *Screen) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.screen.Fini()
	})
	return nil
}
