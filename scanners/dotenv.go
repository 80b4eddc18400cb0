package scanners

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/yairfalse/keyscout/catalog"
	"github.com/yairfalse/keyscout/parser"
)

// DotenvScanner finds credentials in shell-convention env files. It
// is the multi-provider exemplar: any provider with a catalog entry
// can show up in a .env file, so it implements ProviderScanner.
type DotenvScanner struct{}

// NewDotenvScanner creates the dotenv scanner.
func NewDotenvScanner() *DotenvScanner { return &DotenvScanner{} }

func (s *DotenvScanner) Name() string { return "dotenv" }

func (s *DotenvScanner) ConfigPaths() []string {
	return []string{".env", ".env.local", ".envrc"}
}

// CanHandle claims any env-convention file, wherever another scanner
// found it.
func (s *DotenvScanner) CanHandle(path string) bool {
	base := filepath.Base(path)
	return base == ".env" || strings.HasPrefix(base, ".env.") || base == ".envrc"
}

// ScanProviderConfigs adds the per-provider convention: some tools
// drop a provider-specific env file under ~/.config/<provider>/.
func (s *DotenvScanner) ScanProviderConfigs(string) []string {
	all := catalog.All()
	out := make([]string, 0, len(all))
	for _, p := range all {
		out = append(out, filepath.Join(".config", p.ID, ".env"))
	}
	return out
}

func (s *DotenvScanner) Scan(ctx context.Context, file File) ([]ScanFragment, error) {
	return s.ScanProviders(ctx, file, nil)
}

// SupportedProviders is the full catalog: env files are not tied to
// any one vendor.
func (s *DotenvScanner) SupportedProviders() []string {
	all := catalog.All()
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = p.ID
	}
	return out
}

func (s *DotenvScanner) ScanProviders(_ context.Context, file File, only []string) ([]ScanFragment, error) {
	doc, err := parser.ParseAs(file.Path, file.Content, parser.FormatEnv)
	if err != nil {
		return nil, err
	}

	fragment := ScanFragment{
		Instance:   instanceFor(s.Name(), file, parser.FormatEnv),
		Candidates: envEntryCandidates(doc.Entries()),
	}
	return filterProviders([]ScanFragment{fragment}, only), nil
}
