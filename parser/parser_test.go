package parser

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    Format
	}{
		{"json by extension", "/home/u/.claude.json", `{"a":1}`, FormatJSON},
		{"yaml by extension", "/etc/app/config.yaml", "a: 1", FormatYAML},
		{"yml by extension", "config.yml", "a: 1", FormatYAML},
		{"toml by extension", "config.toml", "a = 1", FormatTOML},
		{"dotenv by name", "/project/.env", "A=1", FormatEnv},
		{"dotenv variant", "/project/.env.local", "A=1", FormatEnv},
		{"envrc", "/project/.envrc", "export A=1", FormatEnv},
		{"ini by extension", "settings.ini", "[s]\na=1", FormatINI},
		{"sniffed json", "/home/u/.gshrc2", `{"model": "gpt-4"}`, FormatJSON},
		{"sniffed env", "/home/u/.gshrc", "GSH_FAST_MODEL_API_KEY=gsk_abc", FormatEnv},
		{"sniffed ini", "/home/u/rc", "[core]\neditor=vim", FormatINI},
		{"empty is plain", "/home/u/nothing", "", FormatPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.path, []byte(tt.content)); got != tt.want {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParse_JSONLookup(t *testing.T) {
	content := []byte(`{"mcpServers": {"github": {"env": {"API_KEY": "sk-abc"}}}}`)
	doc, err := Parse("config.json", content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	v, ok := doc.Lookup("mcpServers.github.env.API_KEY")
	if !ok || v != "sk-abc" {
		t.Errorf("Lookup() = %q, %v, want sk-abc, true", v, ok)
	}
	if !doc.HasPrefixKey("mcpServers") {
		t.Error("HasPrefixKey(mcpServers) should be true")
	}
	if doc.HasPrefixKey("otherServers") {
		t.Error("HasPrefixKey(otherServers) should be false")
	}
}

func TestParse_EnvPositions(t *testing.T) {
	content := []byte("# comment\n\nOPENAI_API_KEY=sk-test123\nexport GROQ_API_KEY=\"gsk_abc\"\nnot a pair\n")
	doc, err := Parse(".env", content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	entries := doc.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	first := entries[0]
	if first.Key != "OPENAI_API_KEY" || first.Value != "sk-test123" {
		t.Errorf("entry = %+v", first)
	}
	if first.Line != 3 {
		t.Errorf("line = %d, want 3", first.Line)
	}
	if first.Column != 16 {
		t.Errorf("column = %d, want 16", first.Column)
	}

	second := entries[1]
	if second.Key != "GROQ_API_KEY" || second.Value != "gsk_abc" {
		t.Errorf("export/quoted entry = %+v", second)
	}
	if second.Line != 4 {
		t.Errorf("line = %d, want 4", second.Line)
	}
}

func TestParse_INISections(t *testing.T) {
	content := []byte("[openai]\napi_key = sk-one\n\n[anthropic]\napi_key: sk-two\n")
	doc, err := ParseAs("settings.ini", content, FormatINI)
	if err != nil {
		t.Fatalf("ParseAs() error = %v", err)
	}

	flat := doc.Flatten()
	if flat["openai.api_key"] != "sk-one" {
		t.Errorf("openai.api_key = %q", flat["openai.api_key"])
	}
	if flat["anthropic.api_key"] != "sk-two" {
		t.Errorf("anthropic.api_key = %q", flat["anthropic.api_key"])
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := Parse("bad.json", []byte(`{"unclosed": `))
	if err == nil {
		t.Fatal("expected parse error")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if pe.Format != FormatJSON {
		t.Errorf("format = %v, want json", pe.Format)
	}
	if pe.Path != "bad.json" {
		t.Errorf("path = %q", pe.Path)
	}
}

func TestIsValidAndDefaultFor(t *testing.T) {
	if !IsValid([]byte(`{}`), FormatJSON) {
		t.Error("empty object should be valid JSON")
	}
	if IsValid([]byte(`{`), FormatJSON) {
		t.Error("truncated object should be invalid")
	}
	if !IsValid(DefaultFor(FormatJSON), FormatJSON) {
		t.Error("default JSON document should round-trip as valid")
	}
	if !IsValid(DefaultFor(FormatYAML), FormatYAML) {
		t.Error("default YAML document should round-trip as valid")
	}
}

func TestIsBinary(t *testing.T) {
	if IsBinary([]byte("OPENAI_API_KEY=sk-test")) {
		t.Error("plain text flagged as binary")
	}
	if !IsBinary([]byte{0x00, 0x01, 0x02, 0xff}) {
		t.Error("null bytes should flag binary")
	}
	if !IsBinary([]byte{0xc3, 0x28, 0xa0, 0xa1}) {
		t.Error("invalid utf8 should flag binary")
	}
}
