package shell

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
)

// Dialect adapts command lines to the shell that runs them.
type Dialect interface {
	Name() string
	// Argv returns the default shell invocation; the script is appended
	// as the last argument.
	Argv() []string
	// Translate rewrites a cmd-style line into the dialect. An empty
	// result means there is nothing to run.
	Translate(line string) string
	// Script builds the full script for req: the line followed by the
	// directory and environment capture steps.
	Script(line string, req Request, dirFile, envFile string) string
}

// DialectFor returns the dialect called name. An empty name or "auto"
// picks cmd on Windows and posix elsewhere.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		if runtime.GOOS == "windows" {
			return Cmd{}, nil
		}
		return Posix{}, nil
	case "cmd":
		return Cmd{}, nil
	case "posix", "sh":
		return Posix{}, nil
	default:
		return nil, fmt.Errorf("unknown shell dialect %q", name)
	}
}

// Cmd runs lines through cmd.exe unchanged.
type Cmd struct{}

func (Cmd) Name() string { return "cmd" }

func (Cmd) Argv() []string {
	comspec := os.Getenv("COMSPEC")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	return []string{comspec, "/D", "/S", "/C"}
}

func (Cmd) Translate(line string) string { return line }

func (Cmd) Script(line string, req Request, dirFile, envFile string) string {
	if req.EchoOff {
		line = "@" + line
	}
	parts := []string{line}
	if dirFile != "" {
		parts = append(parts, fmt.Sprintf(`CD > "%s"`, dirFile))
	}
	if envFile != "" {
		parts = append(parts, fmt.Sprintf(`SET > "%s"`, envFile))
	}
	if req.SelfClosing {
		parts = append(parts, "exit")
	}
	return strings.Join(parts, " & ")
}

var (
	cdDrive  = regexp.MustCompile(`(?i)^\s*cd\s+/d\s+(.+?)\s*$`)
	setArith = regexp.MustCompile(`(?i)^\s*set\s+/a\s+(.+?)\s*$`)
	colorCmd = regexp.MustCompile(`(?i)^\s*color(\s.*)?$`)
)

// Posix runs lines through a POSIX shell, rewriting the cmd built-ins that
// ecmd itself issues.
type Posix struct{}

func (Posix) Name() string { return "posix" }

func (Posix) Argv() []string {
	sh := os.Getenv("SHELL")
	if sh == "" {
		sh = "/bin/sh"
	}
	return []string{sh, "-c"}
}

func (Posix) Translate(line string) string {
	if m := cdDrive.FindStringSubmatch(line); m != nil {
		return "cd -- " + Quote(strings.Trim(m[1], `"`))
	}
	if m := setArith.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("echo $((%s))", strings.Trim(m[1], `"`))
	}
	if colorCmd.MatchString(line) {
		return ""
	}
	return line
}

func (Posix) Script(line string, req Request, dirFile, envFile string) string {
	parts := []string{line, "__ecmd_rc=$?"}
	if dirFile != "" {
		parts = append(parts, "pwd > "+Quote(dirFile))
	}
	if envFile != "" {
		parts = append(parts, "env > "+Quote(envFile))
	}
	if req.SelfClosing {
		parts = append(parts, "exit $__ecmd_rc")
	}
	return strings.Join(parts, "\n")
}

// Quote single-quotes s for a POSIX shell.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
