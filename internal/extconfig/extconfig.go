// Package extconfig implements the uniform typed option surface shared by
// unrelated subsystems (stack unwinder, profiler, task-stats collector,
// control-plane server, managed-runtime bridge): a registry of named
// Extensions, each owning its own dotted-key option namespace, dispatched
// by "first extension to accept" in registration order.
package extconfig

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/oriys/probe/internal/perr"
)

// OptionDescriptor describes one settable option exposed by an Extension:
// its canonical dotted key, any aliases it may also be addressed by, its
// current value (empty string if unset), and a help string.
type OptionDescriptor struct {
	Key     string
	Aliases []string
	Value   string
	Help    string
}

// matches reports whether key equals the descriptor's canonical key or
// any of its aliases.
func (d OptionDescriptor) matches(key string) bool {
	if d.Key == key {
		return true
	}
	for _, a := range d.Aliases {
		if a == key {
			return true
		}
	}
	return false
}

// Extension is implemented by any subsystem that exposes runtime-tunable
// options through SET/GET and, optionally, a custom HTTP API surface
// under its own name prefix.
type Extension interface {
	// Name is the extension's unique registration name, also the prefix
	// used for custom API routing ("/<name>/...").
	Name() string
	// Set applies value to the option addressed by key (canonical or
	// alias) and returns the option's previous value. Implementations
	// that don't recognize key must return UnsupportedOption.
	Set(key, value string) (old string, err error)
	// Get reads the current value of the option addressed by key.
	Get(key string) (value string, err error)
	// Options lists every option this extension exposes, for discovery.
	Options() []OptionDescriptor
}

// Caller is implemented by extensions that also expose a custom HTTP API
// under their own "/<name>/..." path prefix.
type Caller interface {
	// Call handles a request already stripped of its "/<name>" prefix.
	Call(path string, params map[string]string, body []byte) ([]byte, error)
}

// Manager registers Extensions and dispatches Set/Get/Call to whichever
// one accepts the key or path first, in registration order. Registration
// order is preserved (unlike a map) so that dispatch is deterministic.
type Manager struct {
	mu    sync.RWMutex
	names []string
	exts  map[string]Extension
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{exts: make(map[string]Extension)}
}

// Register adds ext under its own Name(). Re-registering the same name
// replaces the prior extension and keeps its original registration slot.
func (m *Manager) Register(ext Extension) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := ext.Name()
	if _, exists := m.exts[name]; !exists {
		m.names = append(m.names, name)
	}
	m.exts[name] = ext
}

// Extension returns the named extension, if registered.
func (m *Manager) Extension(name string) (Extension, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ext, ok := m.exts[name]
	return ext, ok
}

// Set dispatches to the first registered extension whose Set accepts
// key. Extensions that return UnsupportedOption are skipped; any other
// error (InvalidOptionValue, ReadOnlyOption, ...) is returned immediately.
func (m *Manager) Set(key, value string) error {
	m.mu.RLock()
	names := append([]string(nil), m.names...)
	m.mu.RUnlock()

	for _, name := range names {
		m.mu.RLock()
		ext := m.exts[name]
		m.mu.RUnlock()

		old, err := ext.Set(key, value)
		switch {
		case err == nil:
			slog.Info("config set", "extension", name, "key", key, "value", value, "old", old)
			return nil
		case isUnsupportedOption(err):
			continue
		default:
			return err
		}
	}
	return perr.New(perr.CodeUnsupportedOption, "extconfig.set", key)
}

// Get dispatches to the first registered extension whose Get accepts key.
func (m *Manager) Get(key string) (string, error) {
	m.mu.RLock()
	names := append([]string(nil), m.names...)
	m.mu.RUnlock()

	for _, name := range names {
		m.mu.RLock()
		ext := m.exts[name]
		m.mu.RUnlock()

		value, err := ext.Get(key)
		if err == nil {
			return value, nil
		}
		if !isUnsupportedOption(err) {
			return "", err
		}
	}
	return "", perr.New(perr.CodeUnsupportedOption, "extconfig.get", key)
}

// Options returns the full option surface across every registered
// extension, in registration order.
func (m *Manager) Options() []OptionDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []OptionDescriptor
	for _, name := range m.names {
		out = append(out, m.exts[name].Options()...)
	}
	return out
}

// Call routes "/<ext_name>/sub/path" to the matching extension's Caller,
// stripping the "/<ext_name>" prefix before delegating.
func (m *Manager) Call(path string, params map[string]string, body []byte) ([]byte, error) {
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return nil, perr.New(perr.CodeInvalidRequest, "extconfig.call", "empty path")
	}
	name := parts[0]
	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}

	ext, ok := m.Extension(name)
	if !ok {
		return nil, perr.New(perr.CodePluginError, "extconfig.call", "no such extension: "+name)
	}
	caller, ok := ext.(Caller)
	if !ok {
		return nil, perr.New(perr.CodePluginError, "extconfig.call", name+" does not expose a call API")
	}
	return caller.Call(rest, params, body)
}

// Names returns the registered extension names, in registration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.names...)
}

func isUnsupportedOption(err error) bool {
	pe, ok := err.(*perr.Error)
	return ok && pe.Code == perr.CodeUnsupportedOption
}

// sortedKeys returns m's keys in sorted order, for building a descriptor
// list whose order is stable across calls. No extension in this package
// calls it.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
