package keys

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/session"
)

// tab inserts a literal tab, or completes file names when the session has
// file completion enabled. Repeated presses cycle through the matches;
// Shift+Tab cycles backwards.
type tab struct {
	handler.Meta
	s *session.Session

	head, tail []rune
	matches    []string
	pos        int
	// shown is the line as left by the last completion; any other line
	// starts a new completion.
	shown string
}

// Tab returns the Tab key handler.
func Tab() handler.Handler {
	return &tab{Meta: handler.Meta{
		Name:        "Tab",
		Description: "Inserts a tab or completes a file name",
		Keys:        []console.Key{console.KeyTab},
		Normal:      true,
	}}
}

func (t *tab) Init(s *session.Session) error {
	t.s = s
	return nil
}

func (t *tab) ProcessCommand(e *console.KeyEvent) {
	if e.Claimed || e.CommandModifier() {
		return
	}
	e.Claim()
	if !t.s.FileCompletion {
		typeRune(t.s, '\t')
		return
	}
	t.complete(e.Shift())
}

func (t *tab) complete(backward bool) {
	s := t.s
	if t.matches == nil || s.Input.Text() != t.shown {
		idx := s.CursorIndex()
		start := s.Input.WordBefore(idx)
		text := []rune(s.Input.Text())
		t.head = append([]rune(nil), text[:start]...)
		t.tail = append([]rune(nil), text[idx:]...)
		t.matches = completions(s.WorkingDirectory, string(text[start:idx]))
		t.pos = -1
		if backward {
			t.pos = 0
		}
	}
	if len(t.matches) == 0 {
		t.matches = nil
		s.Console.Beep()
		return
	}
	n := len(t.matches)
	if backward {
		t.pos = (t.pos - 1 + n) % n
	} else {
		t.pos = (t.pos + 1) % n
	}
	line := string(t.head) + t.matches[t.pos]
	cursor := len([]rune(line))
	s.Input.Set(line + string(t.tail))
	s.Redraw(cursor)
	t.shown = s.Input.Text()
}

// completions lists the entries of dir (or of the directory named in token)
// whose names start with the last element of token, ignoring case.
// Directories get a trailing separator and names holding spaces are quoted.
func completions(dir, token string) []string {
	token = strings.Trim(token, `"`)
	sub, prefix := "", token
	if i := strings.LastIndexAny(token, `/\`); i >= 0 {
		sub, prefix = token[:i+1], token[i+1:]
	}
	base := sub
	if !filepath.IsAbs(base) {
		base = filepath.Join(dir, sub)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	lower := strings.ToLower(prefix)
	var out []string
	for _, ent := range entries {
		name := ent.Name()
		if !strings.HasPrefix(strings.ToLower(name), lower) {
			continue
		}
		full := sub + name
		if ent.IsDir() {
			full += string(filepath.Separator)
		}
		if strings.ContainsRune(full, ' ') {
			full = `"` + full + `"`
		}
		out = append(out, full)
	}
	sort.Strings(out)
	return out
}
