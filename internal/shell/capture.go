package shell

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"ecmd/internal/activitylog"
)

// CaptureTimeout bounds how long ReadCapture waits for a capture file.
const CaptureTimeout = time.Second

const lockRetry = 10 * time.Millisecond

// ReadCapture returns the non-empty lines of the capture file at path and
// removes it. It waits for the writing command to release the file and for
// content to appear, up to CaptureTimeout; ok is false when the file is
// skipped, which is logged but otherwise silent.
func ReadCapture(ctx context.Context, path string, log *activitylog.Logger) (lines []string, ok bool) {
	if path == "" {
		return nil, false
	}
	if log == nil {
		log = activitylog.Nop()
	}
	defer func() {
		os.Remove(path)
		os.Remove(lockPath(path))
	}()

	if _, err := os.Stat(path); err != nil {
		log.EnvSyncSkipped(path, "missing")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, CaptureTimeout)
	defer cancel()

	fl := flock.New(lockPath(path))
	locked, err := fl.TryRLockContext(ctx, lockRetry)
	if err != nil || !locked {
		log.EnvSyncSkipped(path, "locked")
		return nil, false
	}
	defer fl.Unlock()

	data, err := waitForContent(ctx, path)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		log.EnvSyncSkipped(path, reason)
		return nil, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, true
}

// waitForContent returns the file's content once it is non-empty.
func waitForContent(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil || len(data) > 0 {
		return data, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		return nil, err
	}
	// A write between the first read and Add raises no event.
	if data, err = os.ReadFile(path); err != nil || len(data) > 0 {
		return data, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil, ctx.Err()
			}
			if !ev.Has(fsnotify.Write) {
				continue
			}
			if data, err = os.ReadFile(path); err != nil || len(data) > 0 {
				return data, err
			}
		case err, ok := <-w.Errors:
			if ok {
				return nil, err
			}
		}
	}
}
