package scanners

import (
	"context"
	"strings"

	"github.com/yairfalse/keyscout/catalog"
	"github.com/yairfalse/keyscout/parser"
	"github.com/yairfalse/keyscout/types"
)

// LangchainScanner covers the LangChain config convention: a
// ~/.langchain directory with YAML or JSON configs, plus the per-tool
// files some integrations drop under ~/.config.
type LangchainScanner struct{}

// NewLangchainScanner creates the LangChain scanner.
func NewLangchainScanner() *LangchainScanner { return &LangchainScanner{} }

func (s *LangchainScanner) Name() string { return "langchain" }

func (s *LangchainScanner) ConfigPaths() []string {
	return []string{
		".langchain/config.yaml",
		".langchain/config.json",
		".langchain/settings.json",
		".config/openai",
		".config/anthropic",
		".config/huggingface",
	}
}

func (s *LangchainScanner) CanHandle(path string) bool {
	return matchesAnyPath(s.ConfigPaths(), path)
}

func (s *LangchainScanner) Scan(_ context.Context, file File) ([]ScanFragment, error) {
	format := parser.DetectFormat(file.Path, file.Content)
	doc, err := parser.ParseAs(file.Path, file.Content, format)
	if err != nil {
		return nil, err
	}

	fragment := ScanFragment{Instance: instanceFor(s.Name(), file, format)}

	// the ~/.config/<provider> files hold a bare key on one line
	if format == parser.FormatPlain {
		if token := strings.TrimSpace(string(file.Content)); token != "" && !strings.ContainsAny(token, " \t\n") {
			fragment.Candidates = append(fragment.Candidates, Candidate{
				Provider:  s.attributeProvider(file.Path, "", token),
				Value:     token,
				ValueType: types.ValueAPIKey,
				Field:     "content",
				Line:      1,
				Column:    1,
			})
		}
		return []ScanFragment{fragment}, nil
	}

	for key, value := range doc.Flatten() {
		last := key
		if idx := strings.LastIndex(key, "."); idx >= 0 {
			last = key[idx+1:]
		}
		if value == "" || !credentialName(last) {
			continue
		}

		fragment.Candidates = append(fragment.Candidates, Candidate{
			Provider:  s.attributeProvider(file.Path, key, value),
			Value:     value,
			ValueType: valueTypeFor(last),
			Field:     key,
		})
	}

	return []ScanFragment{fragment}, nil
}

// attributeProvider resolves a provider from, in order: a provider
// name embedded in the config key path, the ~/.config/<provider> file
// location, then the value prefix.
func (s *LangchainScanner) attributeProvider(path, key, value string) string {
	lowerKey := strings.ToLower(key)
	for _, p := range catalog.All() {
		if strings.Contains(lowerKey, p.ID) {
			return p.ID
		}
	}
	for _, p := range catalog.All() {
		if strings.HasSuffix(path, ".config/"+p.ID) {
			return p.ID
		}
	}
	if p, ok := catalog.ByKeyPrefix(value); ok {
		return p.ID
	}
	return ""
}
