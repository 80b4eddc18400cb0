// Package scanners defines the scanner plugin capability and its
// registry, plus the built-in scanners for known AI tools. A scanner
// knows where one application keeps its config and how to pull
// credential candidates out of it. Scanners never read the filesystem
// themselves; the orchestrator reads each file once and hands the
// bytes to every scanner that claimed the path.
package scanners

import (
	"context"
	"fmt"
	"sync"

	"github.com/yairfalse/keyscout/types"
)

// File is one read config file handed to a scanner.
type File struct {
	// Path is the resolved absolute path the bytes came from.
	Path string
	// Content is the raw file content.
	Content []byte
}

// Candidate is a raw credential sighting before provider scoring.
// The orchestrator turns candidates into immutable DiscoveredKeys
// after consulting the provider registry.
type Candidate struct {
	// Provider is the scanner's tentative attribution. Empty means
	// unknown; the orchestrator will attribute by best match.
	Provider string

	// Value is the raw secret.
	Value string

	ValueType types.ValueType

	// Field names the config key the value sat under.
	Field string

	Line   int
	Column int

	Metadata map[string]string
}

// ScanFragment is one scanner's findings for one file.
type ScanFragment struct {
	Instance   types.ConfigInstance
	Candidates []Candidate
}

// Plugin is the capability every scanner implements.
type Plugin interface {
	// Name returns the scanner identifier (e.g. "claude-desktop").
	Name() string

	// ConfigPaths returns the paths this scanner wants inspected,
	// relative to the scan home directory.
	ConfigPaths() []string

	// CanHandle reports whether this scanner understands a file at
	// the given path. The orchestrator enumerates paths from every
	// active scanner and dispatches each unique file to all scanners
	// that claim it, not just the one that enumerated it.
	CanHandle(path string) bool

	// Scan extracts candidates from one file's content. Called once
	// per claimed file. A scanner returning an error fails only that
	// file, never the scan.
	Scan(ctx context.Context, file File) ([]ScanFragment, error)
}

// ProviderScanner is the optional extension for scanners that can
// attribute findings to specific providers up front and filter work
// to a provider subset.
type ProviderScanner interface {
	Plugin

	// SupportedProviders lists provider IDs this scanner can find.
	SupportedProviders() []string

	// ScanProviderConfigs returns per-provider convention paths to
	// enumerate in addition to ConfigPaths, relative to the given
	// scan root. The orchestrator unions both path sets.
	ScanProviderConfigs(home string) []string

	// ScanProviders behaves like Scan restricted to the given
	// providers. An empty slice means no restriction.
	ScanProviders(ctx context.Context, file File, only []string) ([]ScanFragment, error)
}

// InstanceScanner is the optional extension for scanners whose
// application keeps several config instances under one home, such as
// per-profile editor settings. Each returned path is enumerated like
// a ConfigPaths entry and yields its own ConfigInstance.
type InstanceScanner interface {
	Plugin

	// ScanInstances returns per-instance config paths relative to the
	// given scan root.
	ScanInstances(home string) []string
}

// DuplicateNameError is returned when a scanner is registered under a
// name the registry already holds.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("scanner plugin %q already registered", e.Name)
}

// Registry holds scanner plugins in registration order. Safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	plugins map[string]Plugin
}

// NewRegistry creates an empty scanner registry.
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
