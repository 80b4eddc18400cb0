// Package providers defines the provider plugin capability and its
// registry. A provider plugin knows what one AI vendor's credentials
// look like and scores raw values for plausibility. Registries are
// plain values passed to the orchestrator explicitly; there is no
// package-level singleton.
package providers

import (
	"fmt"
	"sync"
)

// Plugin scores raw candidate values for one provider.
type Plugin interface {
	// Name returns the canonical provider ID (e.g. "openai").
	Name() string

	// Match reports whether the value is shaped like this
	// provider's credential. A false Match does not prevent
	// scoring; it only means no structural prefix claimed it.
	Match(value string) bool

	// Score returns a plausibility score in [0,1] for the value
	// being a live credential of this provider.
	Score(value string) float64
}

// DuplicateNameError is returned when a plugin is registered under a
// name the registry already holds.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("provider plugin %q already registered", e.Name)
}

// Registry holds provider plugins in registration order. Safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	plugins map[string]Plugin
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.plugins[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	r.plugins[name] = p
	r.order = append(r.order, name)
	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// All returns plugins in registration order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	return out
}

// Names returns plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
