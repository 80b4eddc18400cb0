// Package types defines the core data model for keyscout: discovered
// credentials, configuration instances, scan results and tag/label
// assignments. Values here are plain data - behavior lives in the
// packages that produce and consume them.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ValueType classifies what kind of secret material was found and how
// it would be presented to the provider's API.
type ValueType string

const (
	ValueAPIKey        ValueType = "api_key"
	ValueBearerToken   ValueType = "bearer_token"
	ValueOAuthToken    ValueType = "oauth_token"
	ValueConfiguration ValueType = "configuration_value"
)

// CustomHeader is the value type for a credential sent in a named
// HTTP header. The header name is part of the type so it survives
// serialization round trips.
func CustomHeader(name string) ValueType {
	return ValueType("custom_header:" + name)
}

// Confidence buckets a raw plausibility score into a coarse grade.
// Thresholds: score < 0.3 is Low, < 0.6 Medium, < 0.85 High,
// everything above VeryHigh.
type Confidence string

const (
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceVeryHigh Confidence = "very_high"
)

// ConfidenceFromScore maps a [0,1] score to a Confidence bucket.
// Scores outside the range are clamped.
func ConfidenceFromScore(score float64) Confidence {
	switch {
	case score < 0.3:
		return ConfidenceLow
	case score < 0.6:
		return ConfidenceMedium
	case score < 0.85:
		return ConfidenceHigh
	default:
		return ConfidenceVeryHigh
	}
}

// AtLeast reports whether c is the same grade as min or a stronger one.
func (c Confidence) AtLeast(min Confidence) bool {
	return c.rank() >= min.rank()
}

func (c Confidence) rank() int {
	switch c {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceHigh:
		return 2
	case ConfidenceVeryHigh:
		return 3
	}
	return -1
}

// DiscoveredKey is a single credential found during a scan. It is
// constructed once by the orchestrator after provider scoring and is
// never mutated afterwards.
//
// FullValue carries the raw secret and is excluded from all
// serialization. Consumers that need to persist or display a key use
// Redacted and Hash.
type DiscoveredKey struct {
	Provider   string            `json:"provider" yaml:"provider"`
	Source     string            `json:"source" yaml:"source"`
	ValueType  ValueType         `json:"value_type" yaml:"value_type"`
	Confidence Confidence        `json:"confidence" yaml:"confidence"`
	Score      float64           `json:"score" yaml:"score"`
	Hash       string            `json:"hash" yaml:"hash"`
	Redacted   string            `json:"redacted" yaml:"redacted"`
	Line       int               `json:"line,omitempty" yaml:"line,omitempty"`
	Column     int               `json:"column,omitempty" yaml:"column,omitempty"`
	Locked     bool              `json:"locked,omitempty" yaml:"locked,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	FoundAt    time.Time         `json:"found_at" yaml:"found_at"`

	FullValue string `json:"-" yaml:"-"`
}

// HashValue returns the lowercase hex SHA-256 of a raw secret. Two
// scans of the same value always produce the same hash, which is what
// makes scan results comparable across runs.
func HashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Redact produces the display form of a secret: first four and last
// four characters with the middle elided. Values of eight characters
// or fewer are fully masked so nothing useful leaks.
func Redact(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "..." + value[len(value)-4:]
}

// Identity is the dedup key for a discovered credential: same provider
// plus same raw value means same key, wherever it was found first.
func (k DiscoveredKey) Identity() string {
	return k.Provider + ":" + k.Hash
}
