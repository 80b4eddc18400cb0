package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestConfidenceFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Confidence
	}{
		{0.0, ConfidenceLow},
		{0.29, ConfidenceLow},
		{0.3, ConfidenceMedium},
		{0.59, ConfidenceMedium},
		{0.6, ConfidenceHigh},
		{0.84, ConfidenceHigh},
		{0.85, ConfidenceVeryHigh},
		{0.95, ConfidenceVeryHigh},
		{1.0, ConfidenceVeryHigh},
	}

	for _, tt := range tests {
		if got := ConfidenceFromScore(tt.score); got != tt.want {
			t.Errorf("ConfidenceFromScore(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestConfidenceAtLeast(t *testing.T) {
	if !ConfidenceVeryHigh.AtLeast(ConfidenceHigh) {
		t.Error("very_high should satisfy at-least-high")
	}
	if !ConfidenceHigh.AtLeast(ConfidenceHigh) {
		t.Error("high should satisfy at-least-high")
	}
	if ConfidenceMedium.AtLeast(ConfidenceHigh) {
		t.Error("medium should not satisfy at-least-high")
	}
}

func TestHashValue_Stable(t *testing.T) {
	a := HashValue("sk-test-1234567890abcdef")
	b := HashValue("sk-test-1234567890abcdef")
	if a != b {
		t.Errorf("hash not stable: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
	if a == HashValue("sk-test-1234567890abcdeg") {
		t.Error("different values must not collide trivially")
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"long value keeps ends", "sk-proj-abcdefghij1234", "sk-p...1234"},
		{"short value fully masked", "sk-ab", "********"},
		{"exactly eight chars masked", "12345678", "********"},
		{"nine chars elided", "123456789", "1234...6789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Redact(tt.value); got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestDiscoveredKey_FullValueNotSerialized(t *testing.T) {
	key := DiscoveredKey{
		Provider:  "openai",
		Source:    "/home/u/.env",
		FullValue: "sk-secret-value-never-shown",
		Hash:      HashValue("sk-secret-value-never-shown"),
		Redacted:  Redact("sk-secret-value-never-shown"),
	}

	data, err := json.Marshal(key)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "sk-secret-value-never-shown") {
		t.Error("full value leaked into JSON serialization")
	}
	if !strings.Contains(string(data), key.Hash) {
		t.Error("hash should be serialized")
	}
}
