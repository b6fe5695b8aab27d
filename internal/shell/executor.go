// Package shell runs command lines through the host shell and collects
// their output, exit status and, on request, the directory and environment
// the shell finished with.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/shlex"
	"github.com/google/uuid"

	"ecmd/internal/activitylog"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("shell: executor closed")

// Executor starts shell commands.
type Executor interface {
	Start(ctx context.Context, req Request) (*Result, error)
	// Interrupt signals the running command, if any.
	Interrupt()
}

// Config configures a Local executor.
type Config struct {
	// Shell is the shell command line; the script is appended as its last
	// argument. Empty uses the dialect default.
	Shell   string
	Dialect Dialect
	// TempDir holds capture files; empty uses os.TempDir.
	TempDir string
	// Size reports the terminal size given to the child.
	Size func() (cols, rows int)
	Log  *activitylog.Logger
}

// Local runs commands as child processes of ecmd, one at a time.
type Local struct {
	argv    []string
	dialect Dialect
	tempDir string
	size    func() (int, int)
	log     *activitylog.Logger

	mu      sync.Mutex
	running *exec.Cmd
	closed  bool
}

// NewLocal returns an executor for cfg.
func NewLocal(cfg Config) (*Local, error) {
	d := cfg.Dialect
	if d == nil {
		var err error
		if d, err = DialectFor(""); err != nil {
			return nil, err
		}
	}
	argv := d.Argv()
	if cfg.Shell != "" {
		parsed, err := shlex.Split(cfg.Shell)
		if err != nil {
			return nil, fmt.Errorf("parse shell %q: %w", cfg.Shell, err)
		}
		if len(parsed) == 0 {
			return nil, fmt.Errorf("parse shell %q: empty command", cfg.Shell)
		}
		argv = parsed
	}
	tmp := cfg.TempDir
	if tmp == "" {
		tmp = os.TempDir()
	}
	size := cfg.Size
	if size == nil {
		size = func() (int, int) { return 80, 25 }
	}
	log := cfg.Log
	if log == nil {
		log = activitylog.Nop()
	}
	return &Local{argv: argv, dialect: d, tempDir: tmp, size: size, log: log}, nil
}

// Dialect returns the dialect commands are translated to.
func (x *Local) Dialect() Dialect { return x.dialect }

// Start translates req.Command, starts it and returns at once. A command
// that cannot be spawned yields a completed, unsuccessful result with no
// output rather than an error.
func (x *Local) Start(ctx context.Context, req Request) (*Result, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, ErrClosed
	}

	res := NewResult()
	line := x.dialect.Translate(req.Command)
	if strings.TrimSpace(line) == "" {
		res.Finish(true, 0)
		return res, nil
	}

	var locks []*flock.Flock
	if req.SilentDir {
		res.DirFile = x.capturePath()
	}
	if req.SilentEnv {
		res.EnvFile = x.capturePath()
	}
	for _, p := range []string{res.DirFile, res.EnvFile} {
		if p == "" {
			continue
		}
		fl := flock.New(lockPath(p))
		if err := fl.Lock(); err != nil {
			x.log.EnvSyncSkipped(p, err.Error())
			continue
		}
		locks = append(locks, fl)
	}
	release := func() {
		for _, fl := range locks {
			fl.Unlock()
		}
	}

	script := x.dialect.Script(line, req, res.DirFile, res.EnvFile)
	newCmd := func() *exec.Cmd {
		argv := append(append([]string(nil), x.argv...), script)
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = req.Dir
		cmd.Env = append(os.Environ(), "TERM=dumb")
		return cmd
	}
	cols, rows := x.size()
	began := time.Now()
	cmd, out, err := startProcess(newCmd, cols, rows)
	if err != nil {
		release()
		x.log.ShellExit(req.Command, false, -1, time.Since(began))
		res.DirFile, res.EnvFile = "", ""
		res.Finish(false, -1)
		return res, nil
	}
	x.running = cmd

	go func() {
		readLines(out, res)
		code := exitCode(cmd.Wait())
		out.Close()
		release()

		x.mu.Lock()
		if x.running == cmd {
			x.running = nil
		}
		x.mu.Unlock()

		x.log.ShellExit(req.Command, code == 0, code, time.Since(began))
		res.Finish(code == 0, code)
	}()
	return res, nil
}

// Interrupt sends an interrupt to the running command's process group.
func (x *Local) Interrupt() {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.running != nil && x.running.Process != nil {
		interruptProcess(x.running)
	}
}

// Close refuses further commands and interrupts the running one.
func (x *Local) Close() error {
	x.mu.Lock()
	x.closed = true
	x.mu.Unlock()
	x.Interrupt()
	return nil
}

func (x *Local) capturePath() string {
	return filepath.Join(x.tempDir, "ecmd-"+uuid.NewString())
}

func lockPath(p string) string { return p + ".lock" }

// readLines queues r line by line, dropping carriage returns. A PTY master
// reports EIO once the child side closes; that ends the stream like EOF.
func readLines(r io.Reader, res *Result) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			res.Push(strings.TrimRight(strings.ReplaceAll(line, "\r", ""), "\n"))
		}
		if err != nil {
			return
		}
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if code := ee.ExitCode(); code >= 0 {
			return code
		}
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
	}
	return -1
}
