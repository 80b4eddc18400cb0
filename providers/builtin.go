package providers

import (
	"strings"

	"github.com/yairfalse/keyscout/catalog"
)

// prefixPlugin is the standard scorer shape: claim values by literal
// prefix, defer to the generic score otherwise. Exclusions keep the
// short "sk-" prefix from swallowing "sk-ant-" and "sk-or-" keys.
type prefixPlugin struct {
	name     string
	prefixes []string
	exclude  []string
}

func (p *prefixPlugin) Name() string { return p.name }

func (p *prefixPlugin) Match(value string) bool {
	for _, ex := range p.exclude {
		if strings.HasPrefix(value, ex) {
			return false
		}
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

func (p *prefixPlugin) Score(value string) float64 {
	if LooksLikePlaceholder(value) {
		return 0.1
	}
	if p.Match(value) {
		// prefix plus enough trailing entropy is near certain
		longest := 0
		for _, prefix := range p.prefixes {
			if strings.HasPrefix(value, prefix) && len(prefix) > longest {
				longest = len(prefix)
			}
		}
		if len(value) >= longest+8 {
			return 0.95
		}
		return 0.5
	}
	// unclaimed values can still belong here, but never score above
	// what structure alone supports
	score := GenericScore(value)
	if score > 0.5 {
		score = 0.5
	}
	return score
}

// mistralPlugin has no stable prefix to key on; it matches bare
// 32-character alphanumeric tokens.
type mistralPlugin struct{}

func (mistralPlugin) Name() string { return "mistral" }

func (mistralPlugin) Match(value string) bool {
	if len(value) != 32 {
		return false
	}
	for _, r := range value {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum {
			return false
		}
	}
	return true
}

func (m mistralPlugin) Score(value string) float64 {
	if LooksLikePlaceholder(value) {
		return 0.1
	}
	if m.Match(value) {
		return 0.7
	}
	score := GenericScore(value)
	if score > 0.5 {
		score = 0.5
	}
	return score
}

// NewDefaultRegistry builds a registry with a scorer for every
// provider in the catalog.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()

	for _, meta := range catalog.All() {
		var p Plugin
		switch meta.ID {
		case "openai":
			p = &prefixPlugin{
				name:     meta.ID,
				prefixes: meta.KeyPrefixes,
				exclude:  []string{"sk-ant-", "sk-or-"},
			}
		case "mistral":
			p = mistralPlugin{}
		default:
			p = &prefixPlugin{name: meta.ID, prefixes: meta.KeyPrefixes}
		}
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
