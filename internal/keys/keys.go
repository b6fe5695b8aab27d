// Package keys provides the built-in key handlers: Normal-mode line
// editing, history recall, Edit-mode screen editing and the handlers that
// swallow bare modifier keys and unbound keys.
package keys

import (
	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

// keyFunc handles an unclaimed event and reports whether it consumed it.
type keyFunc func(s *session.Session, e *console.KeyEvent) bool

type key struct {
	handler.Meta
	s  *session.Session
	fn keyFunc
}

func (k *key) Init(s *session.Session) error {
	k.s = s
	return nil
}

func (k *key) ProcessCommand(e *console.KeyEvent) {
	if e.Claimed {
		return
	}
	if k.fn(k.s, e) {
		e.Claim()
	}
}

func newKey(name, desc string, fn keyFunc, keys ...console.Key) *key {
	return &key{
		Meta: handler.Meta{Name: name, Description: desc, Keys: keys, Normal: true},
		fn:   fn,
	}
}

func claimAll(*session.Session, *console.KeyEvent) bool { return true }

// Ctrl swallows a bare Ctrl key press in every mode.
func Ctrl() handler.Handler {
	k := newKey("Ctrl", "Ignores the Ctrl key on its own", claimAll, console.KeyControl)
	k.Edit = true
	return k
}

// Alt swallows a bare Alt key press in every mode.
func Alt() handler.Handler {
	k := newKey("Alt", "Ignores the Alt key on its own", claimAll, console.KeyAlt)
	k.Edit = true
	return k
}

// Unbound claims any event nothing else claimed.
func Unbound() handler.Handler {
	k := newKey("Unbound", "Absorbs keys with no binding", claimAll)
	k.Edit = true
	k.Mark = true
	return k
}

// Normal returns the built-in Normal-mode key handlers in chain order,
// with gate placed right after the printable character handler.
func Normal(gate handler.Handler, clip Clipboard) []handler.Handler {
	return []handler.Handler{
		Printable(),
		gate,
		F1(),
		F12(),
		Tab(),
		Escape(),
		Backspace(),
		Insert(),
		Delete(),
		Home(),
		End(),
		PageUp(),
		PageDown(),
		Up(),
		Down(),
		Right(),
		Left(),
		Paste(clip),
	}
}
