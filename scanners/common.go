package scanners

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/yairfalse/keyscout/catalog"
	"github.com/yairfalse/keyscout/parser"
	"github.com/yairfalse/keyscout/types"
)

// matchesAnyPath reports whether path ends with one of the relative
// config paths a scanner enumerates. Used by CanHandle implementations
// that claim exactly their own convention files.
func matchesAnyPath(rels []string, path string) bool {
	norm := filepath.ToSlash(path)
	for _, rel := range rels {
		rel = filepath.ToSlash(rel)
		if norm == rel || strings.HasSuffix(norm, "/"+rel) {
			return true
		}
	}
	return false
}

// instanceFor builds the ConfigInstance shared by every fragment a
// scanner emits for one file. InstanceID is deterministic so repeated
// scans dedup cleanly.
func instanceFor(scanner string, file File, format parser.Format) types.ConfigInstance {
	return types.ConfigInstance{
		InstanceID: scanner + ":" + file.Path,
		Scanner:    scanner,
		Path:       file.Path,
		Format:     string(format),
		ScannedAt:  time.Now().UTC(),
	}
}

// envEntryCandidates turns dotenv/ini entries into candidates using
// catalog attribution: the variable name first, the value prefix as
// fallback. Entries that match neither are kept only when the name
// smells like a credential, with no provider attribution.
func envEntryCandidates(entries []parser.Entry) []Candidate {
	var out []Candidate
	for _, e := range entries {
		if e.Value == "" {
			continue
		}

		provider := ""
		if p, ok := catalog.ByEnvVar(e.Key); ok {
			provider = p.ID
		} else if p, ok := catalog.ByKeyPrefix(e.Value); ok {
			provider = p.ID
		} else if !credentialName(e.Key) {
			continue
		}

		out = append(out, Candidate{
			Provider:  provider,
			Value:     e.Value,
			ValueType: valueTypeFor(e.Key),
			Field:     e.Key,
			Line:      e.Line,
			Column:    e.Column,
		})
	}
	return out
}

// credentialName reports whether a config key name suggests secret
// material.
func credentialName(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range []string{"API_KEY", "APIKEY", "TOKEN", "SECRET", "CREDENTIAL"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

func valueTypeFor(key string) types.ValueType {
	upper := strings.ToUpper(key)
	switch {
	case strings.Contains(upper, "HEADER"):
		return types.CustomHeader(key)
	case strings.Contains(upper, "OAUTH"):
		return types.ValueOAuthToken
	case strings.Contains(upper, "BEARER"), strings.Contains(upper, "TOKEN"):
		return types.ValueBearerToken
	case strings.Contains(upper, "API_KEY"), strings.Contains(upper, "APIKEY"),
		strings.Contains(upper, "SECRET"), strings.Contains(upper, "CREDENTIAL"):
		return types.ValueAPIKey
	}
	return types.ValueConfiguration
}

// filterProviders drops candidates outside the allow list. Empty list
// means keep everything.
func filterProviders(fragments []ScanFragment, only []string) []ScanFragment {
	if len(only) == 0 {
		return fragments
	}
	allowed := make(map[string]bool, len(only))
	for _, p := range only {
		allowed[p] = true
	}

	out := make([]ScanFragment, 0, len(fragments))
	for _, f := range fragments {
		kept := f.Candidates[:0:0]
		for _, c := range f.Candidates {
			if c.Provider == "" || allowed[c.Provider] {
				kept = append(kept, c)
			}
		}
		f.Candidates = kept
		out = append(out, f)
	}
	return out
}
