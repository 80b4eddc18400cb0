package providers

import (
	"strings"
	"unicode"
)

// GenericScore rates a raw value on structure alone, with no provider
// knowledge. Every candidate gets this score as a floor before
// provider-specific scorers weigh in.
//
// The weighting favors long, mixed-character strings: real API keys
// are long random tokens, config noise is short dictionary words.
func GenericScore(value string) float64 {
	if value == "" {
		return 0
	}

	score := 0.3

	if len(value) >= 20 {
		score += 0.2
	}
	if len(value) >= 40 {
		score += 0.1
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case r == '-' || r == '_' || r == '.':
			hasSpecial = true
		}
	}
	if hasUpper && hasLower {
		score += 0.1
	}
	if hasDigit {
		score += 0.05
	}
	if hasSpecial {
		score += 0.05
	}

	if strings.HasPrefix(value, "sk-") || strings.HasPrefix(value, "ak-") {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}

// LooksLikePlaceholder reports whether the value is an obvious dummy
// the user never replaced. Placeholder values are still discovered
// but never score above Low.
func LooksLikePlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, marker := range []string{
		"your-api-key", "your_api_key", "changeme", "change-me",
		"xxxx", "<key>", "placeholder", "example", "dummy",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
