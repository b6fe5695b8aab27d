//go:build !windows

package shell

import (
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// startProcess starts the child on a PTY so line-buffered programs flush as
// they go. Where no PTY can be opened it falls back to a plain pipe.
func startProcess(newCmd func() *exec.Cmd, cols, rows int) (*exec.Cmd, io.ReadCloser, error) {
	cmd := newCmd()
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err == nil {
		return cmd, ptm, nil
	}
	cmd = newCmd()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	out, err := startPiped(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cmd, out, nil
}

func startPiped(cmd *exec.Cmd) (io.ReadCloser, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	w.Close()
	return r, nil
}

// interruptProcess sends SIGINT to the child's whole process group; both
// start paths make the child a group leader.
func interruptProcess(cmd *exec.Cmd) {
	_ = unix.Kill(-cmd.Process.Pid, unix.SIGINT)
}
