package scanners

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/yairfalse/keyscout/catalog"
	"github.com/yairfalse/keyscout/parser"
	"github.com/yairfalse/keyscout/types"
)

// RooCodeScanner covers the Roo Code VS Code extension, which stores
// its API key in the editor's settings.json under roo-cline.apiKey.
// Both stable and insiders profiles are checked.
type RooCodeScanner struct{}

// NewRooCodeScanner creates the Roo Code scanner.
func NewRooCodeScanner() *RooCodeScanner { return &RooCodeScanner{} }

func (s *RooCodeScanner) Name() string { return "roo-code" }

func (s *RooCodeScanner) ConfigPaths() []string {
	return []string{
		".vscode/settings.json",
		".vscode-insiders/settings.json",
		".roo-code/config.json",
		"roo_code.json",
	}
}

// ScanInstances lists the per-profile settings files the editor keeps
// besides the workspace defaults. Each file that exists becomes its
// own ConfigInstance.
func (s *RooCodeScanner) ScanInstances(string) []string {
	return []string{
		".config/Code/User/settings.json",
		".config/Code/User/profiles/default/settings.json",
		".config/VSCodium/User/settings.json",
	}
}

func (s *RooCodeScanner) CanHandle(path string) bool {
	base := filepath.Base(path)
	if base == "settings.json" || base == "roo_code.json" {
		return true
	}
	return base == "config.json" && strings.Contains(filepath.ToSlash(path), ".roo-code/")
}

func (s *RooCodeScanner) Scan(_ context.Context, file File) ([]ScanFragment, error) {
	doc, err := parser.ParseAs(file.Path, file.Content, parser.FormatJSON)
	if err != nil {
		return nil, err
	}

	instance := instanceFor(s.Name(), file, parser.FormatJSON)
	instance.Metadata = map[string]string{"profile": profileFor(file.Path)}
	fragment := ScanFragment{Instance: instance}

	for key, value := range doc.Flatten() {
		if value == "" {
			continue
		}
		// settings.json keys are literal "roo-cline.apiKey"; the
		// dedicated config files use plain "apiKey"
		if key != "roo-cline.apiKey" && key != "apiKey" && !strings.HasSuffix(key, ".apiKey") {
			continue
		}

		provider := ""
		if p, ok := catalog.ByKeyPrefix(value); ok {
			provider = p.ID
		}

		fragment.Candidates = append(fragment.Candidates, Candidate{
			Provider:  provider,
			Value:     value,
			ValueType: types.ValueAPIKey,
			Field:     key,
		})
	}

	return []ScanFragment{fragment}, nil
}

// profileFor names the editor profile a settings file belongs to.
func profileFor(path string) string {
	norm := filepath.ToSlash(path)
	if i := strings.Index(norm, "/profiles/"); i >= 0 {
		rest := norm[i+len("/profiles/"):]
		if j := strings.Index(rest, "/"); j > 0 {
			return rest[:j]
		}
	}
	return "default"
}
