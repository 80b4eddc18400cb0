package parser

import (
	"fmt"
	"strings"
)

// Entry is one key/value pair with its position in the source file.
// Tree formats synthesize entries without positions; line-oriented
// formats (env, ini) carry real line and column numbers.
type Entry struct {
	Key     string
	Value   string
	Section string
	Line    int
	Column  int
}

// Document is the uniform view over a parsed config file. Tree
// formats populate root; line formats populate entries. Both are
// reachable through Flatten, Lookup and Entries.
type Document struct {
	Path   string
	Format Format

	root    map[string]any
	entries []Entry
}

// Flatten returns every scalar value keyed by its dotted path, e.g.
// "mcpServers.github.env.API_KEY". Line-format documents use the
// plain key (with section prefix for INI).
func (d *Document) Flatten() map[string]string {
	out := make(map[string]string)
	if d.root != nil {
		flattenInto(out, "", d.root)
		return out
	}
	for _, e := range d.entries {
		key := e.Key
		if e.Section != "" {
			key = e.Section + "." + e.Key
		}
		out[key] = e.Value
	}
	return out
}

// Lookup fetches a scalar by dotted path. Returns false when the path
// is missing or points at a non-scalar.
func (d *Document) Lookup(path string) (string, bool) {
	v, ok := d.Flatten()[path]
	return v, ok
}

// Entries returns key/value pairs in file order. For tree formats the
// order follows Flatten and positions are zero.
func (d *Document) Entries() []Entry {
	if d.entries != nil {
		return d.entries
	}
	flat := d.Flatten()
	out := make([]Entry, 0, len(flat))
	for k, v := range flat {
		out = append(out, Entry{Key: k, Value: v})
	}
	return out
}

func flattenInto(out map[string]string, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flattenInto(out, joinPath(prefix, k), child)
		}
	case map[any]any:
		// yaml.v3 can produce this for non-string keys
		for k, child := range val {
			flattenInto(out, joinPath(prefix, fmt.Sprintf("%v", k)), child)
		}
	case []any:
		for i, child := range val {
			flattenInto(out, joinPath(prefix, fmt.Sprintf("%d", i)), child)
		}
	case nil:
		// skip
	case string:
		if prefix != "" {
			out[prefix] = val
		}
	default:
		if prefix != "" {
			out[prefix] = fmt.Sprintf("%v", val)
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// HasPrefixKey reports whether any flattened key starts with the given
// dotted prefix. Scanners use it to detect config sections cheaply.
func (d *Document) HasPrefixKey(prefix string) bool {
	for k := range d.Flatten() {
		if k == prefix || strings.HasPrefix(k, prefix+".") {
			return true
		}
	}
	return false
}
