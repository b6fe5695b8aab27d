package activitylog

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Logger writes structured JSONL entries to an activity log file.
// All methods are safe for concurrent use. When disabled (w is nil),
// all methods are no-ops.
type Logger struct {
	mu        sync.Mutex
	w         *os.File
	actor     string
	sessionID string
}

// New creates a Logger that appends to logPath. If enabled is false or the
// file cannot be opened, returns a no-op logger (safe to call methods on).
func New(enabled bool, logPath, actor, sessionID string) *Logger {
	if !enabled {
		return &Logger{}
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &Logger{}
	}
	return &Logger{w: f, actor: actor, sessionID: sessionID}
}

// Nop returns a disabled logger. All methods are no-ops.
func Nop() *Logger {
	return &Logger{}
}

// entry is the common envelope for all log lines.
type entry struct {
	Timestamp string `json:"ts"`
	Actor     string `json:"actor"`
	SessionID string `json:"session_id"`
	Event     string `json:"event"`
}

// PluginLoaded logs a handler accepted from a plugin source.
func (l *Logger) PluginLoaded(name, source string) {
	l.log(struct {
		entry
		Name   string `json:"name"`
		Source string `json:"source"`
	}{
		entry:  l.entry("plugin_loaded"),
		Name:   name,
		Source: source,
	})
}

// PluginDiscarded logs a plugin that failed to load or initialise.
func (l *Logger) PluginDiscarded(name, source string, err error) {
	var reason string
	if err != nil {
		reason = err.Error()
	}
	l.log(struct {
		entry
		Name   string `json:"name,omitempty"`
		Source string `json:"source"`
		Reason string `json:"reason,omitempty"`
	}{
		entry:  l.entry("plugin_discarded"),
		Name:   name,
		Source: source,
		Reason: reason,
	})
}

// Command logs a submitted line and the handler that claimed it.
func (l *Logger) Command(handler, line string) {
	l.log(struct {
		entry
		Handler string `json:"handler"`
		Line    string `json:"line"`
	}{
		entry:   l.entry("command"),
		Handler: handler,
		Line:    line,
	})
}

// ModeChange logs an input mode transition.
func (l *Logger) ModeChange(from, to string) {
	l.log(struct {
		entry
		From string `json:"from"`
		To   string `json:"to"`
	}{
		entry: l.entry("mode_change"),
		From:  from,
		To:    to,
	})
}

// ShellExit logs the completion of a delegated shell command.
func (l *Logger) ShellExit(command string, success bool, exitCode int, elapsed time.Duration) {
	l.log(struct {
		entry
		Command   string `json:"command"`
		Success   bool   `json:"success"`
		ExitCode  int    `json:"exit_code"`
		ElapsedMS int64  `json:"elapsed_ms"`
	}{
		entry:     l.entry("shell_exit"),
		Command:   command,
		Success:   success,
		ExitCode:  exitCode,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

// EnvSyncSkipped logs a capture file that could not be read in time.
func (l *Logger) EnvSyncSkipped(path, reason string) {
	l.log(struct {
		entry
		Path   string `json:"path"`
		Reason string `json:"reason"`
	}{
		entry:  l.entry("env_sync_skipped"),
		Path:   path,
		Reason: reason,
	})
}

// SessionEnd logs the end of the session.
func (l *Logger) SessionEnd(exitCode int, commands int) {
	l.log(struct {
		entry
		ExitCode int `json:"exit_code"`
		Commands int `json:"commands"`
	}{
		entry:    l.entry("session_end"),
		ExitCode: exitCode,
		Commands: commands,
	})
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	if l.w == nil {
		return nil
	}
	return l.w.Close()
}

func (l *Logger) entry(event string) entry {
	return entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:     l.actor,
		SessionID: l.sessionID,
		Event:     event,
	}
}

func (l *Logger) log(v any) {
	if l.w == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	data = append(data, '\n')
	l.mu.Lock()
	l.w.Write(data)
	l.mu.Unlock()
}
