// Package termstyle colours the plain-text output of ecmd's subcommands
// and its error messages. Styling is only applied when the destination is a
// terminal and NO_COLOR is unset.
package termstyle

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Styler applies ANSI styles for one output stream.
type Styler struct {
	on bool
}

type fder interface {
	Fd() uintptr
}

// For returns a Styler for w. Anything that is not a terminal file gets
// plain text.
func For(w io.Writer) Styler {
	f, ok := w.(fder)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return Styler{}
	}
	return Styler{on: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

// Forced returns a Styler that always styles.
func Forced() Styler { return Styler{on: true} }

// Enabled returns whether styling is active.
func (s Styler) Enabled() bool { return s.on }

func (s Styler) wrap(code, text string) string {
	if !s.on || text == "" {
		return text
	}
	return code + text + "\033[0m"
}

// Bold renders text in bold.
func (s Styler) Bold(text string) string { return s.wrap("\033[1m", text) }

// Dim renders text in dim/faint.
func (s Styler) Dim(text string) string { return s.wrap("\033[2m", text) }

// Red renders text in red.
func (s Styler) Red(text string) string { return s.wrap("\033[31m", text) }

// Green renders text in green.
func (s Styler) Green(text string) string { return s.wrap("\033[32m", text) }

// Cyan renders text in cyan.
func (s Styler) Cyan(text string) string { return s.wrap("\033[36m", text) }

// Error formats err the way ecmd reports fatal errors.
func (s Styler) Error(err error) string {
	return s.Red("error:") + " " + err.Error()
}
