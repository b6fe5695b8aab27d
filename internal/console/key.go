package console

import (
	"fmt"
	"strings"
	"time"
)

// Key identifies a non-character key. Character keys use KeyRune.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	// KeyControl and KeyAlt are a bare modifier key press.
	KeyControl
	KeyAlt
	KeyShift
	// KeyBreak is Ctrl+Break (or Ctrl+C).
	KeyBreak
)

var keyNames = map[Key]string{
	KeyRune:      "rune",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyEscape:    "escape",
	KeyInsert:    "insert",
	KeyDelete:    "delete",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pageup",
	KeyPageDown:  "pagedown",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyControl:   "control",
	KeyAlt:       "alt",
	KeyShift:     "shift",
	KeyBreak:     "break",
}

func (k Key) String() string {
	if k >= KeyF1 && k <= KeyF12 {
		return fmt.Sprintf("f%d", int(k-KeyF1)+1)
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "none"
}

// ParseKey resolves a key name as produced by Key.String.
func ParseKey(name string) (Key, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k := KeyRune; k <= KeyBreak; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return KeyNone, fmt.Errorf("unknown key %q", name)
}

// Modifier is a bitset of modifier keys held during a key event.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	// ModAltGr marks a Ctrl+Alt combination produced by the AltGr key.
	ModAltGr
)

// KeyEvent is a key record. Claimed is set by the handler that consumes it.
type KeyEvent struct {
	Key     Key
	Rune    rune
	Mod     Modifier
	Down    bool
	Time    time.Time
	Claimed bool
}

// NewKey returns a key-down event for a non-character key.
func NewKey(k Key, mod Modifier) *KeyEvent {
	return &KeyEvent{Key: k, Mod: mod, Down: true, Time: time.Now()}
}

// NewRune returns a key-down event for a character key.
func NewRune(r rune, mod Modifier) *KeyEvent {
	return &KeyEvent{Key: KeyRune, Rune: r, Mod: mod, Down: true, Time: time.Now()}
}

// Claim marks the event as consumed.
func (e *KeyEvent) Claim() { e.Claimed = true }

func (e *KeyEvent) Ctrl() bool  { return e.Mod&ModCtrl != 0 }
func (e *KeyEvent) Alt() bool   { return e.Mod&ModAlt != 0 }
func (e *KeyEvent) Shift() bool { return e.Mod&ModShift != 0 }
func (e *KeyEvent) AltGr() bool { return e.Mod&ModAltGr != 0 }

// HasModifier reports whether any modifier is held.
func (e *KeyEvent) HasModifier() bool { return e.Mod != 0 }

// CtrlOnly reports Ctrl held without Alt or Shift.
func (e *KeyEvent) CtrlOnly() bool { return e.Mod&(ModCtrl|ModAlt|ModShift) == ModCtrl }

// CommandModifier reports Ctrl or Alt held, ignoring AltGr compositions.
func (e *KeyEvent) CommandModifier() bool {
	return (e.Ctrl() || e.Alt()) && !e.AltGr()
}

// Printable reports whether the event carries a displayable character.
func (e *KeyEvent) Printable() bool {
	return e.Key == KeyRune && e.Rune > 31 && e.Rune != 127
}

// Interrupt reports Ctrl+C or Ctrl+Break.
func (e *KeyEvent) Interrupt() bool {
	if e.Key == KeyBreak {
		return true
	}
	return e.Key == KeyRune && e.Ctrl() && !e.AltGr() && (e.Rune == 'c' || e.Rune == 'C')
}

func (e *KeyEvent) String() string {
	var b strings.Builder
	if e.Ctrl() {
		b.WriteString("ctrl+")
	}
	if e.Alt() {
		b.WriteString("alt+")
	}
	if e.Shift() {
		b.WriteString("shift+")
	}
	if e.Key == KeyRune {
		b.WriteRune(e.Rune)
	} else {
		b.WriteString(e.Key.String())
	}
	return b.String()
}
