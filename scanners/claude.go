package scanners

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/yairfalse/keyscout/catalog"
	"github.com/yairfalse/keyscout/parser"
	"github.com/yairfalse/keyscout/types"
)

// ClaudeDesktopScanner reads Claude Desktop state. Two locations
// matter: the top-level ~/.claude.json state file and the MCP server
// config, whose per-server env blocks routinely hold third-party API
// keys.
type ClaudeDesktopScanner struct{}

// NewClaudeDesktopScanner creates the Claude Desktop scanner.
func NewClaudeDesktopScanner() *ClaudeDesktopScanner { return &ClaudeDesktopScanner{} }

func (s *ClaudeDesktopScanner) Name() string { return "claude-desktop" }

func (s *ClaudeDesktopScanner) ConfigPaths() []string {
	return []string{
		".claude.json",
		".config/Claude/claude_desktop_config.json",
	}
}

func (s *ClaudeDesktopScanner) CanHandle(path string) bool {
	base := filepath.Base(path)
	return base == ".claude.json" || base == "claude_desktop_config.json"
}

func (s *ClaudeDesktopScanner) Scan(_ context.Context, file File) ([]ScanFragment, error) {
	doc, err := parser.ParseAs(file.Path, file.Content, parser.FormatJSON)
	if err != nil {
		return nil, err
	}

	fragment := ScanFragment{Instance: instanceFor(s.Name(), file, parser.FormatJSON)}

	// the state file keeps the account credential under userID
	if v, ok := doc.Lookup("userID"); ok && v != "" {
		fragment.Candidates = append(fragment.Candidates, Candidate{
			Provider:  "anthropic",
			Value:     v,
			ValueType: types.ValueConfiguration,
			Field:     "userID",
		})
	}

	// MCP server env blocks: mcpServers.<name>.env.<VAR>
	for key, value := range doc.Flatten() {
		parts := strings.Split(key, ".")
		if len(parts) != 4 || parts[0] != "mcpServers" || parts[2] != "env" || value == "" {
			continue
		}
		envVar := parts[3]

		provider := ""
		if p, ok := catalog.ByEnvVar(envVar); ok {
			provider = p.ID
		} else if p, ok := catalog.ByKeyPrefix(value); ok {
			provider = p.ID
		} else if !credentialName(envVar) {
			continue
		}

		fragment.Candidates = append(fragment.Candidates, Candidate{
			Provider:  provider,
			Value:     value,
			ValueType: valueTypeFor(envVar),
			Field:     key,
			Metadata:  map[string]string{"mcp_server": parts[1]},
		})
	}

	return []ScanFragment{fragment}, nil
}
