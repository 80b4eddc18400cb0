package types

import "time"

// ConfigInstance records one concrete configuration location a scanner
// inspected, whether or not it yielded keys. Instances let callers see
// which applications are present on a machine.
type ConfigInstance struct {
	// InstanceID uniquely identifies this config location. Scanners
	// derive it from the scanner name and resolved path so repeated
	// scans produce the same ID and the aggregator can dedup.
	InstanceID string `json:"instance_id" yaml:"instance_id"`

	// Scanner is the name of the plugin that produced this instance.
	Scanner string `json:"scanner" yaml:"scanner"`

	// Path is the resolved absolute path of the configuration file.
	Path string `json:"path" yaml:"path"`

	// Format is the detected file format (json, yaml, toml, env, ini).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// KeyCount is how many keys this instance contributed.
	KeyCount int `json:"key_count" yaml:"key_count"`

	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	ScannedAt time.Time `json:"scanned_at" yaml:"scanned_at"`
}
