// Package tmpl renders the prompt from a text/template format string such
// as "{{.Dir}}>" or "{{.User}}@{{.Host}} {{base .Dir}}$ ".
package tmpl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// DefaultFormat reproduces the classic prompt.
const DefaultFormat = "{{.Dir}}>"

// Context holds the data available to a prompt format.
type Context struct {
	Dir   string
	Drive string
	User  string
	Host  string
	Echo  bool
	// Status is the exit code of the last shell command.
	Status int
}

// Template is a parsed prompt format.
type Template struct {
	t *template.Template
}

// Parse compiles a prompt format. It fails on syntax errors and on
// unknown functions.
func Parse(format string) (*Template, error) {
	t, err := template.New("prompt").Funcs(funcMap()).Parse(format)
	if err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}
	return &Template{t: t}, nil
}

// Render executes the template with ctx.
func (t *Template) Render(ctx *Context) (string, error) {
	var buf strings.Builder
	if err := t.t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return buf.String(), nil
}

// Render parses and executes format in one step.
func Render(format string, ctx *Context) (string, error) {
	t, err := Parse(format)
	if err != nil {
		return "", err
	}
	return t.Render(ctx)
}

// NewContext fills in the user and host for dir.
func NewContext(dir string) *Context {
	host, _ := os.Hostname()
	ctx := &Context{Dir: dir, User: currentUser(), Host: host}
	if len(dir) >= 2 && dir[1] == ':' {
		ctx.Drive = strings.ToUpper(dir[:2])
	}
	return ctx
}

func currentUser() string {
	for _, name := range []string{"USER", "USERNAME", "LOGNAME"} {
		if u := os.Getenv(name); u != "" {
			return u
		}
	}
	return ""
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"base":      baseFunc,
		"env":       os.Getenv,
		"now":       nowFunc,
		"default":   defaultFunc,
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"trimSpace": strings.TrimSpace,
		"replace":   strings.ReplaceAll,
		"home":      homeFunc,
	}
}

// baseFunc returns the last element of a path, or the path itself for a
// root such as "/" or "C:\".
func baseFunc(p string) string {
	trimmed := strings.TrimRight(p, `/\`)
	if trimmed == "" || (len(trimmed) == 2 && trimmed[1] == ':') {
		return p
	}
	if i := strings.LastIndexAny(trimmed, `/\`); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// homeFunc abbreviates the home directory at the start of p to "~".
func homeFunc(p string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	if p == home {
		return "~"
	}
	if rel, ok := strings.CutPrefix(p, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rel
	}
	return p
}

// nowFunc formats the current time with a Go layout.
func nowFunc(layout string) string {
	return time.Now().Format(layout)
}

// defaultFunc returns val if non-empty, otherwise fallback.
// String semantics: "0" and "false" are non-empty.
func defaultFunc(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
