// Package handler defines the key/command handler capability and the
// dispatcher that walks the handler chain for every key event.
package handler

import (
	"slices"

	"ecmd/internal/console"
	"ecmd/internal/session"
)

// Info describes a handler.
type Info struct {
	Name        string
	Description string
	Author      string
}

// Handler is one link of the chain. A handler that consumes an event calls
// Claim on it; handlers must ignore events that are already claimed.
type Handler interface {
	Info() Info
	// KeysHandled lists the keys the handler reacts to; nil means all.
	KeysHandled() []console.Key
	NormalModeHandled() bool
	EditModeHandled() bool
	MarkModeHandled() bool
	// CommandsHandled lists the command words recognised at Enter; nil for
	// handlers that are not command handlers.
	CommandsHandled() []string
	// Init binds the handler to the session before the first event.
	Init(s *session.Session) error
	ProcessCommand(e *console.KeyEvent)
}

// Meta carries the descriptive half of Handler. Concrete handlers embed it
// and implement Init and ProcessCommand.
type Meta struct {
	Name        string
	Description string
	Author      string
	Keys        []console.Key
	Normal      bool
	Edit        bool
	Mark        bool
	Commands    []string
}

func (m *Meta) Info() Info {
	return Info{Name: m.Name, Description: m.Description, Author: m.Author}
}

func (m *Meta) KeysHandled() []console.Key { return m.Keys }
func (m *Meta) NormalModeHandled() bool    { return m.Normal }
func (m *Meta) EditModeHandled() bool      { return m.Edit }
func (m *Meta) MarkModeHandled() bool      { return m.Mark }
func (m *Meta) CommandsHandled() []string  { return m.Commands }

// Accepts reports whether h takes part in dispatching e in mode.
func Accepts(h Handler, e *console.KeyEvent, mode session.Mode) bool {
	switch mode {
	case session.ModeNormal:
		if !h.NormalModeHandled() {
			return false
		}
	case session.ModeEdit:
		if !h.EditModeHandled() {
			return false
		}
	case session.ModeMark:
		if !h.MarkModeHandled() {
			return false
		}
	}
	keys := h.KeysHandled()
	return keys == nil || slices.Contains(keys, e.Key)
}

// IsCommand reports whether h belongs in the command sub-chain rather than
// the key chain: a Normal-mode handler with command words that reacts to
// Enter.
func IsCommand(h Handler) bool {
	if h.EditModeHandled() || h.CommandsHandled() == nil || !h.NormalModeHandled() {
		return false
	}
	keys := h.KeysHandled()
	return keys == nil || slices.Contains(keys, console.KeyEnter)
}
