// Package shelltest provides a scripted shell executor for tests.
package shelltest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ecmd/internal/shell"
)

// Response is the canned outcome of one command.
type Response struct {
	Output []string
	Code   int
	// Dir and Env are written to the capture files when the request asks
	// for them.
	Dir string
	Env []string
	// UntilInterrupt keeps the command running until Interrupt is called;
	// it then finishes with code 130.
	UntilInterrupt bool
}

// Fake records every request and answers from registered responses.
// Unregistered commands succeed with no output.
type Fake struct {
	mu         sync.Mutex
	dir        string
	responses  map[string]Response
	requests   []shell.Request
	interrupts int
	seq        int
	running    []*shell.Result
}

// New returns a Fake writing capture files under dir.
func New(dir string) *Fake {
	return &Fake{dir: dir, responses: make(map[string]Response)}
}

// On registers the response for command, matched case-insensitively.
func (f *Fake) On(command string, r Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[strings.ToLower(command)] = r
}

func (f *Fake) Start(_ context.Context, req shell.Request) (*shell.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	resp := f.responses[strings.ToLower(req.Command)]

	res := shell.NewResult()
	if req.SilentDir && resp.Dir != "" {
		res.DirFile = f.write("dir", []string{resp.Dir})
	}
	if req.SilentEnv && resp.Env != nil {
		res.EnvFile = f.write("env", resp.Env)
	}
	for _, line := range resp.Output {
		res.Push(line)
	}
	if resp.UntilInterrupt {
		f.running = append(f.running, res)
		return res, nil
	}
	res.Finish(resp.Code == 0, resp.Code)
	return res, nil
}

func (f *Fake) write(kind string, lines []string) string {
	f.seq++
	p := filepath.Join(f.dir, fmt.Sprintf("%s-%d", kind, f.seq))
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return ""
	}
	return p
}

func (f *Fake) Interrupt() {
	f.mu.Lock()
	f.interrupts++
	running := f.running
	f.running = nil
	f.mu.Unlock()
	for _, res := range running {
		res.Push("^C")
		res.Finish(false, 130)
	}
}

// Requests returns the requests seen so far.
func (f *Fake) Requests() []shell.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shell.Request(nil), f.requests...)
}

// Commands returns the command strings seen so far.
func (f *Fake) Commands() []string {
	var out []string
	for _, r := range f.Requests() {
		out = append(out, r.Command)
	}
	return out
}

// Interrupts returns how many times Interrupt was called.
func (f *Fake) Interrupts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interrupts
}
