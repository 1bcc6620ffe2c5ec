package registry

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/gantry/pkg/plugin"
)

// Registry collects candidate plugins before resolution.
//
// Registration order is remembered and used as the tie-breaker during
// resolution. The registry is safe for concurrent use, although in
// practice all registration happens during startup, before Resolve.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]plugin.Plugin
	order   []string
	log     *logrus.Logger
}

// New creates an empty registry.
func New(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}
	return &Registry{
		plugins: make(map[string]plugin.Plugin),
		log:     log,
	}
}

// Register adds a candidate plugin. Malformed plugins are rejected with
// a *plugin.InvalidPluginError; callers are expected to log the error
// and continue with the remaining candidates.
func (r *Registry) Register(p plugin.Plugin) error {
	if err := plugin.Validate(p); err != nil {
		return err
	}

	d := p.Descriptor()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.plugins[d.Name]; ok {
		return fmt.Errorf("plugin already registered: %s (existing version %s)",
			d.Name, existing.Descriptor().Version)
	}

	r.plugins[d.Name] = p
	r.order = append(r.order, d.Name)
	r.log.WithFields(logrus.Fields{
		"plugin":  d.Name,
		"version": d.Version,
	}).Debug("Registered plugin")

	return nil
}

// Has reports whether a plugin name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[name]
	return ok
}

// Get returns a registered plugin by name.
func (r *Registry) Get(name string) (plugin.Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("plugin not found: %s", name)
	}
	return p, nil
}

// Plugins returns all registered plugins in registration order.
func (r *Registry) Plugins() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]plugin.Plugin, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.plugins[name])
	}
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
