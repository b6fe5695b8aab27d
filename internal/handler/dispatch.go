package handler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"ecmd/internal/console"
	"ecmd/internal/session"
)

var (
	// ErrReentrant is returned when Dispatch is called while another
	// dispatch is in progress.
	ErrReentrant = errors.New("dispatch already in progress")
	// ErrUnclaimed is returned when no handler claimed the event.
	ErrUnclaimed = errors.New("event not claimed")
	// ErrReleased is returned when a handler clears a claim made by an
	// earlier handler.
	ErrReleased = errors.New("handler released a claimed event")
)

// Stage is a segment of the chain. Stages run in declaration order; the
// command stage is only reached through the Enter gate.
type Stage int

const (
	StageIgnorable Stage = iota
	StageEdit
	StageKeys
	StageCommands
	StageFallback
)

// Stages lists every stage in chain order.
var Stages = []Stage{StageIgnorable, StageEdit, StageKeys, StageCommands, StageFallback}

func (s Stage) String() string {
	switch s {
	case StageIgnorable:
		return "ignorable"
	case StageEdit:
		return "edit"
	case StageKeys:
		return "keys"
	case StageCommands:
		return "commands"
	case StageFallback:
		return "fallback"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Dispatcher owns the ordered handler chain and routes key events through
// it. Every handler sees every event; the first one to claim it wins and
// the rest must leave it alone.
type Dispatcher struct {
	mu     sync.Mutex
	busy   atomic.Bool
	s      *session.Session
	stages [StageFallback + 1][]Handler
	gate   *Gate

	claimedBy Handler
	err       error
}

// NewDispatcher returns an empty chain bound to s.
func NewDispatcher(s *session.Session) *Dispatcher {
	d := &Dispatcher{s: s}
	d.gate = &Gate{
		Meta: Meta{
			Name:        "Enter",
			Description: "Submits the line to the command handlers",
			Keys:        []console.Key{console.KeyEnter},
			Normal:      true,
		},
		d: d,
	}
	return d
}

// Gate returns the Enter gate so it can be placed in the key stage.
func (d *Dispatcher) Gate() *Gate { return d.gate }

// Use initialises built-in handlers and appends them to stage. An Init
// failure is returned and nothing from the call is added.
func (d *Dispatcher) Use(stage Stage, hs ...Handler) error {
	for _, h := range hs {
		if err := h.Init(d.s); err != nil {
			return fmt.Errorf("init handler %s: %w", h.Info().Name, err)
		}
	}
	d.stages[stage] = append(d.stages[stage], hs...)
	return nil
}

// UsePlugins initialises plugin handlers and places each one in the edit,
// key or command stage according to its capabilities. Handlers whose Init
// fails are discarded and logged. It returns the handlers kept.
func (d *Dispatcher) UsePlugins(source string, hs []Handler) []Handler {
	var kept []Handler
	for _, h := range hs {
		if err := h.Init(d.s); err != nil {
			d.s.Log.PluginDiscarded(h.Info().Name, source, err)
			if c, ok := h.(io.Closer); ok {
				c.Close()
			}
			continue
		}
		switch {
		case h.EditModeHandled():
			d.stages[StageEdit] = append(d.stages[StageEdit], h)
		case IsCommand(h):
			d.stages[StageCommands] = append(d.stages[StageCommands], h)
		default:
			d.stages[StageKeys] = append(d.stages[StageKeys], h)
		}
		d.s.Log.PluginLoaded(h.Info().Name, source)
		kept = append(kept, h)
	}
	return kept
}

// Handlers returns the handlers of stage in order.
func (d *Dispatcher) Handlers(stage Stage) []Handler {
	return append([]Handler(nil), d.stages[stage]...)
}

// Dispatch routes one key event. Key-up events are ignored. An unmodified
// Enter on a non-empty line goes straight to the Enter gate; everything else
// walks the chain in stage order.
func (d *Dispatcher) Dispatch(e *console.KeyEvent) error {
	if !d.busy.CompareAndSwap(false, true) {
		return ErrReentrant
	}
	defer d.busy.Store(false)
	d.mu.Lock()
	defer d.mu.Unlock()

	if !e.Down {
		return nil
	}
	d.claimedBy = nil
	d.err = nil

	if e.Key == console.KeyEnter && !e.HasModifier() && d.s.Mode() == session.ModeNormal && d.s.Input.Len() > 0 {
		d.gate.ProcessCommand(e)
	} else {
		for _, stage := range []Stage{StageIgnorable, StageEdit, StageKeys} {
			if err := d.walk(d.stages[stage], e); err != nil {
				return err
			}
		}
	}
	if d.err != nil {
		return d.err
	}
	if err := d.walk(d.stages[StageFallback], e); err != nil {
		return err
	}
	if !e.Claimed {
		return ErrUnclaimed
	}
	return nil
}

// ClaimedBy returns the handler that claimed the last dispatched event.
func (d *Dispatcher) ClaimedBy() Handler { return d.claimedBy }

func (d *Dispatcher) walk(chain []Handler, e *console.KeyEvent) error {
	for _, h := range chain {
		if !Accepts(h, e, d.s.Mode()) {
			continue
		}
		claimed := e.Claimed
		h.ProcessCommand(e)
		switch {
		case claimed && !e.Claimed:
			return fmt.Errorf("%s: %w", h.Info().Name, ErrReleased)
		case !claimed && e.Claimed && d.claimedBy == nil:
			d.claimedBy = h
		}
	}
	return nil
}

// Gate is the Enter key handler. Ctrl/Alt+Enter is swallowed and an empty
// line just reprints the prompt; any other line is offered to the command
// stage and recorded in history once a command handler claims it.
type Gate struct {
	Meta
	d *Dispatcher
}

func (g *Gate) Init(*session.Session) error { return nil }

func (g *Gate) ProcessCommand(e *console.KeyEvent) {
	s := g.d.s
	if e.Claimed || e.Key != console.KeyEnter || s.Mode() != session.ModeNormal {
		return
	}
	if e.CommandModifier() {
		e.Claim()
		return
	}
	line := s.Input.Text()
	if strings.TrimSpace(line) == "" {
		e.Claim()
		s.FinishInput()
		s.WritePrompt(false)
		return
	}
	if err := g.d.walk(g.d.stages[StageCommands], e); err != nil {
		g.d.err = err
		return
	}
	if !e.Claimed {
		return
	}
	s.History.Append(line)
	if h := g.d.claimedBy; h != nil {
		s.Log.Command(h.Info().Name, line)
	}
}
