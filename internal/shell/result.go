package shell

import (
	"context"
	"sync"
)

// Request describes one command run through the shell.
type Request struct {
	// Command is the line to run, in the configured dialect.
	Command string
	// Dir is the working directory of the child; empty means the
	// process working directory.
	Dir string
	// SilentDir captures the child's final working directory into
	// Result.DirFile.
	SilentDir bool
	// SilentEnv captures the child's final environment into
	// Result.EnvFile.
	SilentEnv bool
	// SelfClosing makes the shell exit right after the command with the
	// command's own exit code.
	SelfClosing bool
	// EchoOff suppresses the shell's echo of the command line.
	EchoOff bool
}

// Result is the output and outcome of a started command. Output lines are
// queued in order as the child writes them; NewOutput signals each batch
// and Done is closed once the child has exited and all output is queued.
type Result struct {
	// DirFile and EnvFile are the capture files requested through
	// SilentDir and SilentEnv; empty when not requested or not produced.
	DirFile string
	EnvFile string

	mu      sync.Mutex
	lines   []string
	notify  chan int
	done    chan struct{}
	once    sync.Once
	success bool
	code    int
}

// NewResult returns an empty, running result.
func NewResult() *Result {
	return &Result{
		notify: make(chan int, 64),
		done:   make(chan struct{}),
	}
}

// Push queues an output line.
func (r *Result) Push(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
	select {
	case r.notify <- 1:
	default:
	}
}

// Finish marks the command complete. Only the first call has any effect.
func (r *Result) Finish(success bool, code int) {
	r.once.Do(func() {
		r.mu.Lock()
		r.success = success
		r.code = code
		r.mu.Unlock()
		close(r.done)
	})
}

// Dequeue removes and returns the oldest queued line.
func (r *Result) Dequeue() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return "", false
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, true
}

// Drain removes and returns every queued line.
func (r *Result) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.lines
	r.lines = nil
	return lines
}

// Len returns the number of queued lines.
func (r *Result) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// NewOutput receives a value whenever lines are queued. Sends never block,
// so a receiver must drain the queue rather than count notifications.
func (r *Result) NewOutput() <-chan int { return r.notify }

// Done is closed when the command has completed.
func (r *Result) Done() <-chan struct{} { return r.done }

// Success reports whether the command exited with status zero. It is only
// meaningful after Done is closed.
func (r *Result) Success() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success
}

// ExitCode returns the child's exit status, or -1 if it never ran.
func (r *Result) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

// Wait blocks until the command completes or ctx is done.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
