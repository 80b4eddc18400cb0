package orchestrator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yairfalse/keyscout/providers"
	"github.com/yairfalse/keyscout/scanners"
)

// DefaultMaxFileSize caps how large a config file a scan will read.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// DefaultWorkers bounds the concurrent file tasks of one scan.
const DefaultWorkers = 4

// Options control one scan run. The zero value is not usable; HomeDir
// is required.
type Options struct {
	// HomeDir is the directory scanners resolve their config paths
	// against, normally the user's home.
	HomeDir string

	// IncludeFullValues keeps the raw secret on each DiscoveredKey.
	// Off by default; hashes and redacted forms are always present.
	IncludeFullValues bool

	// MaxFileSize skips files larger than this many bytes.
	// Zero means DefaultMaxFileSize.
	MaxFileSize int64

	// OnlyScanners restricts the run to these scanner names.
	OnlyScanners []string

	// ExcludeScanners drops these scanner names from the run.
	ExcludeScanners []string

	// OnlyProviders keeps only keys attributed to these providers.
	OnlyProviders []string

	// ExcludeProviders drops keys attributed to these providers.
	ExcludeProviders []string

	// Workers bounds concurrent file tasks. Zero means DefaultWorkers.
	Workers int

	// DryRun resolves and stats candidate paths without reading any
	// file content. The result lists reachable instances, no keys.
	DryRun bool
}

// ConfigurationError reports invalid scan options. It is returned
// before any filesystem access happens.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid scan options: %s: %s", e.Field, e.Reason)
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize == 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// validate checks the options against the registries that will serve
// the scan.
func (o Options) validate(scanReg *scanners.Registry, provReg *providers.Registry) error {
	if strings.TrimSpace(o.HomeDir) == "" {
		return &ConfigurationError{Field: "HomeDir", Reason: "must not be empty"}
	}
	if !filepath.IsAbs(o.HomeDir) {
		return &ConfigurationError{Field: "HomeDir", Reason: "must be an absolute path"}
	}
	if o.MaxFileSize < 0 {
		return &ConfigurationError{Field: "MaxFileSize", Reason: "must not be negative"}
	}
	if o.Workers < 0 {
		return &ConfigurationError{Field: "Workers", Reason: "must not be negative"}
	}

	for _, name := range o.OnlyScanners {
		if _, ok := scanReg.Get(name); !ok {
			return &ConfigurationError{Field: "OnlyScanners", Reason: fmt.Sprintf("unknown scanner %q", name)}
		}
	}
	for _, name := range o.ExcludeScanners {
		if _, ok := scanReg.Get(name); !ok {
			return &ConfigurationError{Field: "ExcludeScanners", Reason: fmt.Sprintf("unknown scanner %q", name)}
		}
	}
	for _, name := range o.OnlyProviders {
		if _, ok := provReg.Get(name); !ok {
			return &ConfigurationError{Field: "OnlyProviders", Reason: fmt.Sprintf("unknown provider %q", name)}
		}
	}
	for _, name := range o.ExcludeProviders {
		if _, ok := provReg.Get(name); !ok {
			return &ConfigurationError{Field: "ExcludeProviders", Reason: fmt.Sprintf("unknown provider %q", name)}
		}
	}
	return nil
}

// selectScanners applies the only/exclude filters preserving registry
// order. With a provider allow list, provider-aware scanners that
// support none of the wanted providers are dropped before any path
// resolution happens.
func (o Options) selectScanners(scanReg *scanners.Registry) []scanners.Plugin {
	only := map[string]bool{}
	for _, name := range o.OnlyScanners {
		only[name] = true
	}
	excluded := map[string]bool{}
	for _, name := range o.ExcludeScanners {
		excluded[name] = true
	}

	var out []scanners.Plugin
	for _, p := range scanReg.All() {
		if len(only) > 0 && !only[p.Name()] {
			continue
		}
		if excluded[p.Name()] {
			continue
		}
		if len(o.OnlyProviders) > 0 {
			if ps, ok := p.(scanners.ProviderScanner); ok && !supportsAny(ps.SupportedProviders(), o.OnlyProviders) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// supportsAny reports whether any wanted provider is in the supported
// set.
func supportsAny(supported, wanted []string) bool {
	set := make(map[string]bool, len(supported))
	for _, s := range supported {
		set[s] = true
	}
	for _, w := range wanted {
		if set[w] {
			return true
		}
	}
	return false
}

// providerAllowed applies the only/exclude provider filters.
func (o Options) providerAllowed(provider string) bool {
	if len(o.OnlyProviders) > 0 {
		found := false
		for _, name := range o.OnlyProviders {
			if name == provider {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, name := range o.ExcludeProviders {
		if name == provider {
			return false
		}
	}
	return true
}
