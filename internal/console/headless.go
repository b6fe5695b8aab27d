package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/vito/midterm"
	"golang.org/x/term"
)

// Headless is a console backed by an in-memory midterm screen. Input comes
// from Feed or from a byte stream passed to Decode. It is used by --headless
// runs and by tests.
type Headless struct {
	mu    sync.Mutex
	vt    *midterm.Terminal
	cols  int
	rows  int
	attrs [][]Attr
	pen   *pen

	cursorVisible bool
	beeps         int
	transcript    []string

	in        chan Record
	inputDone chan struct{}
	doneOnce  sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

// NewHeadless returns a blank cols x rows screen.
func NewHeadless(cols, rows int) *Headless {
	h := &Headless{
		// One spare row keeps a write into the bottom-right cell from
		// scrolling midterm's screen.
		vt:            midterm.NewTerminal(rows+1, cols),
		cols:          cols,
		rows:          rows,
		cursorVisible: true,
		in:            make(chan Record, 256),
		inputDone:     make(chan struct{}),
		closed:        make(chan struct{}),
	}
	h.attrs = make([][]Attr, rows)
	for y := range h.attrs {
		h.attrs[y] = make([]Attr, cols)
		for x := range h.attrs[y] {
			h.attrs[y][x] = DefaultAttr
		}
	}
	h.pen = newPen(h)
	return h
}

// TerminalSize reports the size of the terminal on fd, or 80x25 when fd is
// not a terminal.
func TerminalSize(fd int) (cols, rows int) {
	if term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return 80, 25
}

// NewHeadlessFrom returns a headless console sized like the terminal on
// stdout whose input is decoded from r.
func NewHeadlessFrom(r io.Reader) *Headless {
	h := NewHeadless(TerminalSize(int(os.Stdout.Fd())))
	go h.Decode(r)
	return h
}

func (h *Headless) size() (int, int) { return h.cols, h.rows }

func (h *Headless) cell(x, y int) (rune, Attr) {
	if y < 0 || y >= len(h.vt.Content) || x < 0 || x >= len(h.vt.Content[y]) {
		return ' ', DefaultAttr
	}
	r := h.vt.Content[y][x]
	if r == 0 {
		r = ' '
	}
	return r, h.attrs[y][x]
}

func (h *Headless) setCell(x, y int, r rune, a Attr) {
	if r == 0 || x < 0 || y < 0 || x >= h.cols || y >= h.rows {
		return
	}
	// Position explicitly for every cell; midterm's own cursor is never
	// relied on.
	fmt.Fprintf(h.vt, "\x1b[%d;%dH%c", y+1, x+1, r)
	h.attrs[y][x] = a
}

func (h *Headless) scrolled(row string) {
	h.transcript = append(h.transcript, strings.TrimRight(row, " "))
}

// Feed queues input records.
func (h *Headless) Feed(recs ...Record) {
	for _, r := range recs {
		h.in <- r
	}
}

// Type queues a key-down event per rune of s; '\n' is sent as Enter.
func (h *Headless) Type(s string) {
	for _, r := range s {
		if r == '\n' {
			h.Feed(Record{Key: NewKey(KeyEnter, 0)})
			continue
		}
		if r == '\t' {
			h.Feed(Record{Key: NewKey(KeyTab, 0)})
			continue
		}
		h.Feed(Record{Key: NewRune(r, 0)})
	}
}

// EndInput marks the input stream as exhausted. Pending records are still
// delivered; afterwards ReadRecord returns ErrClosed.
func (h *Headless) EndInput() {
	h.doneOnce.Do(func() { close(h.inputDone) })
}

func (h *Headless) ReadRecord(ctx context.Context) (Record, error) {
	select {
	case rec := <-h.in:
		return rec, nil
	case <-ctx.Done():
		return Record{}, ctx.Err()
	case <-h.closed:
		return Record{}, ErrClosed
	case <-h.inputDone:
		select {
		case rec := <-h.in:
			return rec, nil
		default:
			return Record{}, ErrClosed
		}
	}
}

func (h *Headless) ReadLine(ctx context.Context) (string, error) {
	return ReadLineFrom(ctx, h)
}

func (h *Headless) Write(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pen.write(s)
}

func (h *Headless) SetCursor(p Point) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pen.setCursor(p)
}

func (h *Headless) Cursor() Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pen.cur
}

func (h *Headless) Size() (int, int) { return h.cols, h.rows }

func (h *Headless) MoveRegion(src Rect, dst Point) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pen.moveRegion(src, dst)
}

func (h *Headless) ShowCursor(visible bool) {
	h.mu.Lock()
	h.cursorVisible = visible
	h.mu.Unlock()
}

func (h *Headless) SetAttr(a Attr) {
	h.mu.Lock()
	h.pen.attr = a
	h.mu.Unlock()
}

func (h *Headless) Beep() {
	h.mu.Lock()
	h.beeps++
	h.mu.Unlock()
}

func (h *Headless) Flush() {}

func (h *Headless) Close() error {
	h.closeOnce.Do(func() { close(h.closed) })
	return nil
}

// Row returns row y with trailing blanks removed.
func (h *Headless) Row(y int) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strings.TrimRight(h.pen.rowText(y), " ")
}

// AttrAt returns the style of the cell at p.
func (h *Headless) AttrAt(p Point) Attr {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, a := h.cell(p.X, p.Y)
	return a
}

// Screen returns the visible rows joined by newlines, trailing blank rows
// dropped.
func (h *Headless) Screen() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strings.Join(h.screenRows(), "\n")
}

func (h *Headless) screenRows() []string {
	rows := make([]string, h.rows)
	last := -1
	for y := 0; y < h.rows; y++ {
		rows[y] = strings.TrimRight(h.pen.rowText(y), " ")
		if rows[y] != "" {
			last = y
		}
	}
	return rows[:last+1]
}

// Transcript returns every row that scrolled off followed by the screen.
func (h *Headless) Transcript() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	all := append(append([]string{}, h.transcript...), h.screenRows()...)
	return strings.Join(all, "\n")
}

// Beeps returns how many times Beep was called.
func (h *Headless) Beeps() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.beeps
}

// CursorVisible reports the last ShowCursor state.
func (h *Headless) CursorVisible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursorVisible
}
