// Package plugin supplies extra handlers from two sources: handlers
// compiled into the binary through Register, and Lua scripts found on the
// plugin paths.
package plugin

import (
	"io"
	"sync"

	"ecmd/internal/handler"
)

// Provider produces plugin handlers. Load is called once at startup; a
// plugin that fails to load is skipped, never fatal.
type Provider interface {
	Name() string
	Load(paths []string) []handler.Handler
}

var (
	regMu    sync.Mutex
	registry []func() handler.Handler
)

// Register adds a compiled-in plugin. It is meant to be called from init.
func Register(ctor func() handler.Handler) {
	regMu.Lock()
	defer regMu.Unlock()
	registry = append(registry, ctor)
}

// Static provides the registered compiled-in plugins.
type Static struct{}

func (Static) Name() string { return "static" }

// Load returns a fresh handler from each registered constructor. Paths are
// not used.
func (Static) Load([]string) []handler.Handler {
	regMu.Lock()
	defer regMu.Unlock()
	hs := make([]handler.Handler, 0, len(registry))
	for _, ctor := range registry {
		if h := ctor(); h != nil {
			hs = append(hs, h)
		}
	}
	return hs
}

// Close releases the resources of every handler that holds any.
func Close(hs []handler.Handler) {
	for _, h := range hs {
		if c, ok := h.(io.Closer); ok {
			c.Close()
		}
	}
}
