//go:build windows

package shell

import (
	"io"
	"os"
	"os/exec"
)

func startProcess(newCmd func() *exec.Cmd, cols, rows int) (*exec.Cmd, io.ReadCloser, error) {
	cmd := newCmd()
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, nil, err
	}
	w.Close()
	return cmd, r, nil
}

func interruptProcess(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
}
