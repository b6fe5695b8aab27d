package handler

import (
	"fmt"
	"regexp"
	"strings"
)

// Form selects how a command pattern treats text after the command word.
type Form int

const (
	// Exact matches the command words alone.
	Exact Form = iota
	// WithArgs allows a space and arbitrary arguments after the word.
	WithArgs
	// Optional also matches an empty line.
	Optional
)

// Matcher recognises a completed input line.
type Matcher struct {
	re *regexp.Regexp
}

// Compile builds a case-insensitive matcher for the alternatives in words.
// Alternatives are regular expressions; an invalid one is an error.
func Compile(words []string, form Form) (*Matcher, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("compile pattern: no command words")
	}
	alts := strings.Join(words, "|")
	var expr string
	switch form {
	case Exact:
		expr = "(?i)^(" + alts + ")$"
	case WithArgs:
		expr = "(?i)^(" + alts + ")( .*)?$"
	case Optional:
		expr = "(?i)^(" + alts + ")?$"
	default:
		return nil, fmt.Errorf("compile pattern: unknown form %d", form)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", alts, err)
	}
	return &Matcher{re: re}, nil
}

// MatchAll returns the matcher used by the passthrough handler.
func MatchAll() *Matcher {
	return &Matcher{re: regexp.MustCompile(`(?s).*`)}
}

// Match reports whether the trimmed line matches.
func (m *Matcher) Match(line string) bool {
	return m.re.MatchString(strings.TrimSpace(line))
}

func (m *Matcher) String() string { return m.re.String() }
