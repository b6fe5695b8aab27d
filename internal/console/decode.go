package console

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Decode reads raw terminal bytes from r and queues the matching key
// records until r is exhausted, then calls EndInput.
func (h *Headless) Decode(r io.Reader) {
	defer h.EndInput()
	br := bufio.NewReader(r)
	var prevCR bool
	for {
		c, _, err := br.ReadRune()
		if err != nil {
			return
		}
		if prevCR && c == '\n' {
			prevCR = false
			continue
		}
		prevCR = c == '\r'
		if ev := decodeRune(c, br); ev != nil {
			h.Feed(Record{Key: ev})
		}
	}
}

func decodeRune(c rune, br *bufio.Reader) *KeyEvent {
	switch {
	case c == '\r' || c == '\n':
		return NewKey(KeyEnter, 0)
	case c == '\t':
		return NewKey(KeyTab, 0)
	case c == 0x7f || c == 0x08:
		return NewKey(KeyBackspace, 0)
	case c == 0x1b:
		if br.Buffered() == 0 {
			return NewKey(KeyEscape, 0)
		}
		return decodeEscape(br)
	case c > 0 && c < 0x1b:
		return NewRune('a'+c-1, ModCtrl)
	case c < ' ':
		return nil
	}
	return NewRune(c, 0)
}

// decodeEscape parses the CSI or SS3 sequence following an ESC byte.
func decodeEscape(br *bufio.Reader) *KeyEvent {
	intro, err := br.ReadByte()
	if err != nil {
		return NewKey(KeyEscape, 0)
	}
	switch intro {
	case 'O':
		b, err := br.ReadByte()
		if err != nil {
			return nil
		}
		if k, ok := ss3Keys[b]; ok {
			return NewKey(k, 0)
		}
		return nil
	case '[':
	default:
		// Alt+key is sent as ESC followed by the key.
		return NewRune(rune(intro), ModAlt)
	}

	var params strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil
		}
		if b >= 0x40 && b <= 0x7e {
			return csiKey(b, params.String())
		}
		params.WriteByte(b)
	}
}

var ss3Keys = map[byte]Key{
	'P': KeyF1, 'Q': KeyF2, 'R': KeyF3, 'S': KeyF4,
	'A': KeyUp, 'B': KeyDown, 'C': KeyRight, 'D': KeyLeft,
	'H': KeyHome, 'F': KeyEnd,
}

var csiFinal = map[byte]Key{
	'A': KeyUp, 'B': KeyDown, 'C': KeyRight, 'D': KeyLeft,
	'H': KeyHome, 'F': KeyEnd, 'P': KeyF1, 'Q': KeyF2, 'R': KeyF3, 'S': KeyF4,
}

var csiTilde = map[int]Key{
	1: KeyHome, 2: KeyInsert, 3: KeyDelete, 4: KeyEnd, 5: KeyPageUp,
	6: KeyPageDown, 7: KeyHome, 8: KeyEnd,
	11: KeyF1, 12: KeyF2, 13: KeyF3, 14: KeyF4, 15: KeyF5,
	17: KeyF6, 18: KeyF7, 19: KeyF8, 20: KeyF9, 21: KeyF10,
	23: KeyF11, 24: KeyF12,
}

func csiKey(final byte, params string) *KeyEvent {
	parts := strings.Split(params, ";")
	var mod Modifier
	if len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			mod = xtermModifier(n)
		}
	}
	if final == '~' {
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil
		}
		if k, ok := csiTilde[n]; ok {
			return NewKey(k, mod)
		}
		return nil
	}
	if final == 'Z' {
		return NewKey(KeyTab, ModShift)
	}
	if k, ok := csiFinal[final]; ok {
		return NewKey(k, mod)
	}
	return nil
}

// xtermModifier decodes the "1 + bitmask" modifier parameter.
func xtermModifier(n int) Modifier {
	bits := n - 1
	var m Modifier
	if bits&1 != 0 {
		m |= ModShift
	}
	if bits&2 != 0 {
		m |= ModAlt
	}
	if bits&4 != 0 {
		m |= ModCtrl
	}
	return m
}
