package commands

import (
	"context"
	"os"
	"sort"
	"strings"

	"ecmd/internal/console"
	"ecmd/internal/handler"
	"ecmd/internal/shell"
)

const syntaxError = "The syntax of the command is incorrect."

type set struct{ base }

// NewSet handles "set": listing, querying, assigning and deleting
// environment variables of the ecmd process, prompting for a value with
// /P and evaluating arithmetic with /A through the shell.
func NewSet(ctx context.Context, x shell.Executor) (handler.Handler, error) {
	b, err := newBase(ctx, x, "Set", "Shows or sets environment variables", handler.WithArgs, "set")
	return &set{b}, err
}

func (h *set) ProcessCommand(e *console.KeyEvent) {
	line, ok := h.take(e)
	if !ok {
		return
	}
	s := h.s
	s.FinishInput()
	rest := strings.TrimSpace(line[len("set"):])

	switch {
	case rest == "":
		h.list("")
	case hasSwitch(rest, "/?"):
		runSynced(h.ctx, s, h.exec, line)
	case hasSwitch(rest, "/p"):
		h.prompt(strings.TrimSpace(rest[2:]))
	case hasSwitch(rest, "/a"):
		h.arithmetic(line, strings.TrimSpace(rest[2:]))
	default:
		h.assign(strings.Trim(rest, `"`))
	}
	s.WritePrompt(true)
}

func hasSwitch(rest, sw string) bool {
	if len(rest) < len(sw) || !strings.EqualFold(rest[:len(sw)], sw) {
		return false
	}
	return len(rest) == len(sw) || rest[len(sw)] == ' '
}

// list prints every variable whose name starts with prefix, ignoring case.
func (h *set) list(prefix string) {
	env := os.Environ()
	sort.Slice(env, func(i, j int) bool { return strings.ToLower(env[i]) < strings.ToLower(env[j]) })
	var out []string
	for _, kv := range env {
		if strings.HasPrefix(strings.ToLower(kv), strings.ToLower(prefix)) {
			out = append(out, kv)
		}
	}
	if len(out) == 0 {
		h.s.Write("Environment variable " + prefix + " not defined\n")
		return
	}
	writeLines(h.s, out)
}

func (h *set) assign(arg string) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		h.list(arg)
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		h.s.Write(syntaxError + "\n")
		return
	}
	if value == "" {
		os.Unsetenv(name)
		return
	}
	os.Setenv(name, value)
}

// prompt handles "set /p name=text": it prints text and stores the line
// typed in reply. An empty reply leaves the variable unchanged.
func (h *set) prompt(arg string) {
	name, text, ok := strings.Cut(strings.Trim(arg, `"`), "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		h.s.Write(syntaxError + "\n")
		return
	}
	h.s.Write(text)
	reply, err := h.s.ReadLine(h.ctx)
	if err != nil || reply == "" {
		return
	}
	os.Setenv(name, reply)
}

// arithmetic hands "set /a expr" to the shell and prints the first output
// line. For an assignment that line also becomes the variable's value.
func (h *set) arithmetic(line, expr string) {
	if expr == "" {
		h.s.Write(syntaxError + "\n")
		return
	}
	out, ok := collect(h.ctx, h.s, h.exec, shell.Request{Command: line, SelfClosing: true, EchoOff: true})
	if !ok || len(out) == 0 {
		writeLines(h.s, out)
		return
	}
	writeLines(h.s, out[:1])
	if name, ok := assignedName(strings.Trim(expr, `"`)); ok {
		os.Setenv(name, strings.TrimSpace(out[0]))
	}
}

var compoundOps = []string{"<<", ">>", "+", "-", "*", "/", "%", "&", "|", "^"}

// assignedName returns the variable an arithmetic expression assigns to:
// "name=expr" or "name op= expr" for a single compound operator. A
// comparison such as "x<=3" or "x==7" assigns nothing.
func assignedName(expr string) (string, bool) {
	i := strings.IndexByte(expr, '=')
	if i <= 0 || strings.HasPrefix(expr[i+1:], "=") {
		return "", false
	}
	name := strings.TrimSpace(expr[:i])
	for _, op := range compoundOps {
		if trimmed, ok := strings.CutSuffix(name, op); ok {
			name = strings.TrimSpace(trimmed)
			break
		}
	}
	if name == "" || strings.ContainsAny(name, "+-*/%&|^<>!=~ ()") {
		return "", false
	}
	return name, true
}
