package types

import "testing"

func TestTargetValid(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   bool
	}{
		{"key target", KeyTarget("abc123"), true},
		{"instance target", InstanceTarget("claude-desktop:/home/u/.claude.json"), true},
		{"provider target", ProviderTarget("openai"), true},
		{"model target", ModelTarget("openai-prod", "gpt-4"), true},
		{"model target with packed id", Target{Kind: TargetModel, ID: "openai-prod/gpt-4"}, true},
		{"empty id", Target{Kind: TargetKey}, false},
		{"empty model id", Target{Kind: TargetModel}, false},
		{"model field on non-model kind", Target{Kind: TargetKey, ID: "x", Model: "gpt-4"}, false},
		{"unknown kind", Target{Kind: "host", ID: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTargetComparable(t *testing.T) {
	// Targets are used as map keys in the stores.
	seen := map[Target]bool{}
	seen[KeyTarget("h1")] = true

	if !seen[KeyTarget("h1")] {
		t.Error("equal targets should hit the same map slot")
	}
	if seen[InstanceTarget("h1")] {
		t.Error("same ID under a different kind is a different target")
	}

	seen[ModelTarget("inst", "m1")] = true
	if !seen[ModelTarget("inst", "m1")] {
		t.Error("equal model targets should hit the same map slot")
	}
	if seen[ModelTarget("inst", "m2")] {
		t.Error("different model under the same instance is a different target")
	}
}

func TestTargetString(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{ProviderTarget("openai"), "provider:openai"},
		{InstanceTarget("dotenv:/home/u/.env"), "instance:dotenv:/home/u/.env"},
		{ModelTarget("openai-prod", "gpt-4"), "model:openai-prod@gpt-4"},
	}
	for _, tt := range tests {
		if got := tt.target.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
