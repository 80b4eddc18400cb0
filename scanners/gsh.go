package scanners

import (
	"context"
	"path/filepath"

	"github.com/yairfalse/keyscout/parser"
)

// gsh keeps model credentials in ~/.gshrc as shell-style assignments.
// Its fast/slow model variables are not in the general env-var
// catalog, so they are mapped here.
var gshVarProviders = map[string]string{
	"GSH_FAST_MODEL_API_KEY": "groq",
	"GSH_SLOW_MODEL_API_KEY": "openrouter",
}

// GshScanner reads the gsh shell assistant's rc file.
type GshScanner struct{}

// NewGshScanner creates the gsh scanner.
func NewGshScanner() *GshScanner { return &GshScanner{} }

func (s *GshScanner) Name() string { return "gsh" }

func (s *GshScanner) ConfigPaths() []string {
	return []string{".gshrc"}
}

func (s *GshScanner) CanHandle(path string) bool {
	return filepath.Base(path) == ".gshrc"
}

func (s *GshScanner) Scan(_ context.Context, file File) ([]ScanFragment, error) {
	doc, err := parser.ParseAs(file.Path, file.Content, parser.FormatEnv)
	if err != nil {
		return nil, err
	}

	candidates := envEntryCandidates(doc.Entries())
	for i, c := range candidates {
		if provider, ok := gshVarProviders[c.Field]; ok {
			candidates[i].Provider = provider
		}
	}

	fragment := ScanFragment{
		Instance:   instanceFor(s.Name(), file, parser.FormatEnv),
		Candidates: candidates,
	}
	return []ScanFragment{fragment}, nil
}
