// Package parser reads application config files in the formats AI
// tooling actually uses (JSON, YAML, TOML, dotenv, INI) and exposes
// them through one uniform Document surface so scanners never touch
// format-specific decoding themselves.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a supported config file format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatEnv   Format = "env"
	FormatINI   Format = "ini"
	FormatPlain Format = "plain"
)

// ParseError reports a decode failure with enough context to log it
// against the offending file. Parse errors are never fatal to a scan.
type ParseError struct {
	Path   string
	Format Format
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s as %s: line %d: %v", e.Path, e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DetectFormat picks a format from the file extension, falling back to
// content sniffing for extensionless files like ".env" variants and
// rc files.
func DetectFormat(path string, content []byte) Format {
	base := filepath.Base(path)
	if base == ".env" || strings.HasPrefix(base, ".env.") || strings.HasSuffix(base, ".envrc") {
		return FormatEnv
	}

	switch strings.ToLower(filepath.Ext(base)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".env":
		return FormatEnv
	case ".ini", ".cfg", ".conf":
		return FormatINI
	}

	return sniffFormat(content)
}

// sniffFormat guesses a format from content alone. Used for rc files
// and other extensionless configs.
func sniffFormat(content []byte) Format {
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if len(trimmed) == 0 {
		return FormatPlain
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		if json.Valid(content) {
			return FormatJSON
		}
	}

	envLines, iniSections := 0, 0
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			iniSections++
			continue
		}
		if k, _, ok := strings.Cut(line, "="); ok && !strings.ContainsAny(strings.TrimSpace(k), " \t") {
			envLines++
		}
	}
	if iniSections > 0 {
		return FormatINI
	}
	if envLines > 0 {
		return FormatEnv
	}

	var y any
	if yaml.Unmarshal(content, &y) == nil {
		if _, ok := y.(map[string]any); ok {
			return FormatYAML
		}
	}
	return FormatPlain
}

// Parse decodes content into a Document. The format is detected from
// the path and content; use ParseAs to force one.
func Parse(path string, content []byte) (*Document, error) {
	return ParseAs(path, content, DetectFormat(path, content))
}

// ParseAs decodes content as the given format.
func ParseAs(path string, content []byte, format Format) (*Document, error) {
	doc := &Document{Path: path, Format: format}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(content, &doc.root); err != nil {
			return nil, &ParseError{Path: path, Format: format, Err: err}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &doc.root); err != nil {
			return nil, &ParseError{Path: path, Format: format, Err: err}
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, &doc.root); err != nil {
			pe := &ParseError{Path: path, Format: format, Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				pe.Line, _ = derr.Position()
			}
			return nil, pe
		}
	case FormatEnv:
		doc.entries = parseEnv(content)
	case FormatINI:
		doc.entries = parseINI(content)
	case FormatPlain:
		// Nothing to decode. Scanners that handle plain files read
		// the raw content themselves.
	default:
		return nil, &ParseError{Path: path, Format: format, Err: fmt.Errorf("unsupported format")}
	}

	return doc, nil
}

// IsBinary reports whether content looks like encrypted or binary
// data rather than text config. Keys found in such files are marked
// locked.
func IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	if len(sample) > 512 {
		sample = sample[:512]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	if !utf8.Valid(sample) {
		return true
	}
	return false
}

// IsValid reports whether content decodes cleanly as the given format.
func IsValid(content []byte, format Format) bool {
	_, err := ParseAs("", content, format)
	return err == nil
}

// DefaultFor returns the canonical empty document for a format, used
// to replace corrupt files when a caller opts into repair.
func DefaultFor(format Format) []byte {
	switch format {
	case FormatJSON:
		return []byte("{}\n")
	case FormatYAML:
		return []byte("---\n")
	case FormatTOML, FormatEnv, FormatINI, FormatPlain:
		return []byte("")
	}
	return []byte("")
}
