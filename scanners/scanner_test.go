package scanners

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewDotenvScanner()))

	err := r.Register(NewDotenvScanner())
	require.Error(t, err)

	var dup *DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "dotenv", dup.Name)
}

func TestDefaultRegistry_Order(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"claude-desktop", "langchain", "roo-code", "gsh", "dotenv"}, r.Names())
}

func TestDotenvScanner(t *testing.T) {
	s := NewDotenvScanner()
	file := File{
		Path:    "/home/u/.env",
		Content: []byte("OPENAI_API_KEY=sk-test1234567890abcdef\nDB_HOST=localhost\nMY_SECRET_TOKEN=tok_abcdef123456\n"),
	}

	fragments, err := s.Scan(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, fragments, 1)

	frag := fragments[0]
	assert.Equal(t, "dotenv:/home/u/.env", frag.Instance.InstanceID)
	require.Len(t, frag.Candidates, 2, "DB_HOST must not be a candidate")

	openai := frag.Candidates[0]
	assert.Equal(t, "openai", openai.Provider)
	assert.Equal(t, "sk-test1234567890abcdef", openai.Value)
	assert.Equal(t, 1, openai.Line)

	unknown := frag.Candidates[1]
	assert.Equal(t, "", unknown.Provider, "unmapped token stays unattributed")
	assert.Equal(t, "MY_SECRET_TOKEN", unknown.Field)
}

func TestDotenvScanner_ProviderFilter(t *testing.T) {
	s := NewDotenvScanner()
	file := File{
		Path:    "/home/u/.env",
		Content: []byte("OPENAI_API_KEY=sk-test1234567890abcdef\nGROQ_API_KEY=gsk_abc1234567890def\n"),
	}

	fragments, err := s.ScanProviders(context.Background(), file, []string{"groq"})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Len(t, fragments[0].Candidates, 1)
	assert.Equal(t, "groq", fragments[0].Candidates[0].Provider)
}

func TestClaudeDesktopScanner(t *testing.T) {
	s := NewClaudeDesktopScanner()
	content := `{
		"userID": "acc-1234567890abcdef",
		"mcpServers": {
			"github": {"command": "gh-mcp", "env": {"OPENAI_API_KEY": "sk-mcp1234567890abcdef"}},
			"files": {"command": "fs-mcp", "env": {"LOG_LEVEL": "debug"}}
		}
	}`

	fragments, err := s.Scan(context.Background(), File{Path: "/home/u/.claude.json", Content: []byte(content)})
	require.NoError(t, err)
	require.Len(t, fragments, 1)

	cands := fragments[0].Candidates
	require.Len(t, cands, 2, "LOG_LEVEL must not be a candidate")

	byField := map[string]Candidate{}
	for _, c := range cands {
		byField[c.Field] = c
	}
	assert.Equal(t, "anthropic", byField["userID"].Provider)

	mcp := byField["mcpServers.github.env.OPENAI_API_KEY"]
	assert.Equal(t, "openai", mcp.Provider)
	assert.Equal(t, "github", mcp.Metadata["mcp_server"])
}

func TestRooCodeScanner(t *testing.T) {
	s := NewRooCodeScanner()
	content := `{"roo-cline.apiKey": "sk-ant-api03-xyz1234567890", "editor.fontSize": "14"}`

	fragments, err := s.Scan(context.Background(), File{Path: "/home/u/.vscode/settings.json", Content: []byte(content)})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Len(t, fragments[0].Candidates, 1)

	c := fragments[0].Candidates[0]
	assert.Equal(t, "anthropic", c.Provider, "attributed by sk-ant- prefix")
	assert.Equal(t, "roo-cline.apiKey", c.Field)
}

func TestGshScanner(t *testing.T) {
	s := NewGshScanner()
	content := "GSH_FAST_MODEL_API_KEY=gsk_fast1234567890\nGSH_SLOW_MODEL_API_KEY=sk-or-slow1234567890\n"

	fragments, err := s.Scan(context.Background(), File{Path: "/home/u/.gshrc", Content: []byte(content)})
	require.NoError(t, err)
	require.Len(t, fragments, 1)

	cands := fragments[0].Candidates
	require.Len(t, cands, 2)
	assert.Equal(t, "groq", cands[0].Provider)
	assert.Equal(t, "openrouter", cands[1].Provider)
}

func TestLangchainScanner_YAML(t *testing.T) {
	s := NewLangchainScanner()
	content := "llm:\n  openai_api_key: sk-test1234567890abcdef\nmodel: gpt-4\n"

	fragments, err := s.Scan(context.Background(), File{Path: "/home/u/.langchain/config.yaml", Content: []byte(content)})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Len(t, fragments[0].Candidates, 1)
	assert.Equal(t, "openai", fragments[0].Candidates[0].Provider)
}

func TestLangchainScanner_BareKeyFile(t *testing.T) {
	s := NewLangchainScanner()

	fragments, err := s.Scan(context.Background(), File{
		Path:    "/home/u/.config/anthropic",
		Content: []byte("sk-ant-api03-xyz1234567890\n"),
	})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Len(t, fragments[0].Candidates, 1)
	assert.Equal(t, "anthropic", fragments[0].Candidates[0].Provider)
}

func TestCanHandle(t *testing.T) {
	tests := []struct {
		scanner Plugin
		path    string
		want    bool
	}{
		{NewDotenvScanner(), "/home/u/.env", true},
		{NewDotenvScanner(), "/home/u/.env.production", true},
		{NewDotenvScanner(), "/home/u/.envrc", true},
		{NewDotenvScanner(), "/home/u/.config/openai/.env", true},
		{NewDotenvScanner(), "/home/u/settings.json", false},
		{NewGshScanner(), "/home/u/.gshrc", true},
		{NewGshScanner(), "/home/u/.env", false},
		{NewClaudeDesktopScanner(), "/home/u/.claude.json", true},
		{NewClaudeDesktopScanner(), "/home/u/claude_desktop_config.json", true},
		{NewClaudeDesktopScanner(), "/home/u/.env", false},
		{NewRooCodeScanner(), "/home/u/.vscode/settings.json", true},
		{NewRooCodeScanner(), "/home/u/.config/Code/User/profiles/work/settings.json", true},
		{NewRooCodeScanner(), "/home/u/.roo-code/config.json", true},
		{NewRooCodeScanner(), "/home/u/other/config.json", false},
		{NewLangchainScanner(), "/home/u/.langchain/config.yaml", true},
		{NewLangchainScanner(), "/home/u/.gshrc", false},
	}

	for _, tt := range tests {
		got := tt.scanner.CanHandle(tt.path)
		assert.Equal(t, tt.want, got, "%s / %s", tt.scanner.Name(), tt.path)
	}
}

func TestDotenvScanner_ProviderConfigPaths(t *testing.T) {
	s := NewDotenvScanner()
	paths := s.ScanProviderConfigs("/home/u")

	assert.Contains(t, paths, ".config/openai/.env")
	assert.Contains(t, paths, ".config/anthropic/.env")
	for _, p := range paths {
		assert.False(t, filepath.IsAbs(p), "%s must stay relative to the scan root", p)
	}
}

func TestRooCodeScanner_Instances(t *testing.T) {
	s := NewRooCodeScanner()
	assert.NotEmpty(t, s.ScanInstances("/home/u"))

	fragments, err := s.Scan(context.Background(), File{
		Path:    "/home/u/.config/Code/User/profiles/work/settings.json",
		Content: []byte(`{"roo-cline.apiKey": "sk-ant-api03-xyz1234567890"}`),
	})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, "work", fragments[0].Instance.Metadata["profile"])

	fragments, err = s.Scan(context.Background(), File{
		Path:    "/home/u/.vscode/settings.json",
		Content: []byte(`{}`),
	})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, "default", fragments[0].Instance.Metadata["profile"])
}

func TestScanner_MalformedJSONIsError(t *testing.T) {
	s := NewClaudeDesktopScanner()
	_, err := s.Scan(context.Background(), File{Path: "/home/u/.claude.json", Content: []byte("{broken")})
	require.Error(t, err)
}
