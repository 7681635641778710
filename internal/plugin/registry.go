package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/errors"
)

// Registry holds the registered plugins in registration order. Registration
// order is the dispatch precedence: the first enabled plugin whose keywords
// match wins.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	byName  map[string]Plugin
	path    string
	logger  *zap.SugaredLogger
}

// registryState is the persisted enable state, keyed by plugin name.
type registryState struct {
	Enabled map[string]bool `json:"enabled"`
}

// NewRegistry creates an empty registry. path is the state file; empty
// disables persistence.
func NewRegistry(path string, logger *zap.SugaredLogger) *Registry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registry{
		byName: make(map[string]Plugin),
		path:   path,
		logger: logger,
	}
}

// Register adds a plugin. Re-registering a name is a programming error and
// returns an error rather than silently replacing.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.byName[name]; exists {
		return errors.Permanent(errors.CodePluginExecutionFailed, "plugin already registered: "+name)
	}

	r.plugins = append(r.plugins, p)
	r.byName[name] = p
	r.logger.Debugw("plugin registered", "plugin", name)
	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// List returns all plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Match returns the first enabled plugin whose keywords match the input.
func (r *Registry) Match(input string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Enabled() && CanHandle(p, input) {
			return p, true
		}
	}
	return nil, false
}

// SetEnabled toggles a plugin by name and persists the change.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byName[name]
	if !ok {
		return errors.NewBuilder(errors.CodePluginNotFound, "unknown plugin: "+name).
			User().
			WithSuggestion("Say 'list plugins' to see available plugins").
			Build()
	}

	p.SetEnabled(enabled)
	return r.saveState()
}

// LoadState applies persisted enable flags to the registered plugins.
// Call after all plugins are registered.
func (r *Registry) LoadState() {
	if r.path == "" {
		return
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return
	}

	var state registryState
	if err := json.Unmarshal(data, &state); err != nil {
		r.logger.Warnw("plugin registry file is corrupt, using defaults",
			"path", r.path, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, enabled := range state.Enabled {
		if p, ok := r.byName[name]; ok {
			p.SetEnabled(enabled)
		}
	}
}

// saveState persists enable flags. Callers must hold the write lock.
func (r *Registry) saveState() error {
	if r.path == "" {
		return nil
	}

	state := registryState{Enabled: make(map[string]bool, len(r.plugins))}
	for _, p := range r.plugins {
		state.Enabled[p.Name()] = p.Enabled()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(r.path, data, 0o644)
}
