// Package history keeps the submitted command lines and resolves the
// Up/Down/PageUp/PageDown navigation targets.
//
// Navigation is stateless: the position is found by searching for the text
// currently in the buffer, so editing a recalled line restarts navigation
// from the newest entry.
package history

// History is an oldest-first list of submitted lines.
type History struct {
	entries []string
}

// New returns an empty history.
func New() *History {
	return &History{}
}

// Append records a submitted line.
func (h *History) Append(line string) {
	h.entries = append(h.entries, line)
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

func (h *History) index(s string) int {
	for i, e := range h.entries {
		if e == s {
			return i
		}
	}
	return -1
}

// Up returns the entry before current. A non-empty current that is not in
// the history is appended first so it can be reached again with Down.
func (h *History) Up(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	pos := len(h.entries)
	if current != "" {
		if i := h.index(current); i >= 0 {
			pos = i
		} else {
			h.Append(current)
		}
	}
	if pos == 0 {
		return "", false
	}
	return h.entries[pos-1], true
}

// Down returns the entry after current. It is a no-op when current is empty
// or not in the history.
func (h *History) Down(current string) (string, bool) {
	if current == "" {
		return "", false
	}
	i := h.index(current)
	if i < 0 || i+1 >= len(h.entries) {
		return "", false
	}
	return h.entries[i+1], true
}

// Oldest returns the first entry unless current already is it.
func (h *History) Oldest(current string) (string, bool) {
	if len(h.entries) == 0 || h.entries[0] == current {
		return "", false
	}
	return h.entries[0], true
}

// Newest returns the last entry. It is a no-op when current is already the
// newest entry or is non-empty text not in the history.
func (h *History) Newest(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if current != "" {
		i := h.index(current)
		if i < 0 || i+1 >= len(h.entries) {
			return "", false
		}
	}
	return h.entries[len(h.entries)-1], true
}
