package providers

import (
	"errors"
	"testing"
)

type fakePlugin struct{ name string }

func (f fakePlugin) Name() string         { return f.name }
func (f fakePlugin) Match(string) bool    { return false }
func (f fakePlugin) Score(string) float64 { return 0 }

func TestRegistry_OrderPreserved(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(fakePlugin{name: name}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	names := r.Names()
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(fakePlugin{name: "openai"}); err != nil {
		t.Fatalf("first Register error = %v", err)
	}

	err := r.Register(fakePlugin{name: "openai"})
	if err == nil {
		t.Fatal("duplicate registration should fail")
	}
	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("error type = %T, want *DuplicateNameError", err)
	}
	if dup.Name != "openai" {
		t.Errorf("Name = %q", dup.Name)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d after failed duplicate, want 1", r.Len())
	}
}

func TestGenericScore(t *testing.T) {
	tests := []struct {
		name  string
		value string
		min   float64
		max   float64
	}{
		{"empty", "", 0, 0},
		{"short word", "hello", 0.3, 0.35},
		{"long mixed key", "Ab3dEf6hIj9lMn2pQr5tUv8xYz1cDe4f", 0.6, 1},
		{"sk prefix bonus", "sk-test-BLAHfoo1234567890abcdef", 0.8, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenericScore(tt.value)
			if got < tt.min || got > tt.max {
				t.Errorf("GenericScore(%q) = %v, want in [%v,%v]", tt.value, got, tt.min, tt.max)
			}
		})
	}
}

func TestDefaultRegistry_Scoring(t *testing.T) {
	r, err := NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}

	openai, ok := r.Get("openai")
	if !ok {
		t.Fatal("openai scorer missing")
	}
	if got := openai.Score("sk-test1234567890abcdefghij"); got < 0.85 {
		t.Errorf("openai sk- key score = %v, want >= 0.85", got)
	}
	// anthropic keys must not be claimed by the openai scorer
	if openai.Match("sk-ant-api03-xyz1234567890") {
		t.Error("openai matched an sk-ant- key")
	}

	anthropic, _ := r.Get("anthropic")
	if got := anthropic.Score("sk-ant-api03-xyz1234567890"); got < 0.85 {
		t.Errorf("anthropic key score = %v, want >= 0.85", got)
	}

	mistral, _ := r.Get("mistral")
	if got := mistral.Score("a1B2c3D4e5F6g7H8i9J0k1L2m3N4o5P6"); got < 0.6 {
		t.Errorf("mistral 32-char token score = %v, want >= 0.6", got)
	}
}

func TestScore_Placeholder(t *testing.T) {
	r, err := NewDefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	openai, _ := r.Get("openai")
	if got := openai.Score("sk-your-api-key-here-padpadpad"); got > 0.2 {
		t.Errorf("placeholder score = %v, want <= 0.2", got)
	}
}
