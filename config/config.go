package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Version string `yaml:"version"`
	// HomeDir is the scan root. Empty means the current user's home.
	HomeDir string `yaml:"home_dir,omitempty"`
	// StoreDir holds the tag/label documents and assignment history.
	StoreDir string `yaml:"store_dir,omitempty"`
	// AuditDir holds the scan audit log. Empty disables auditing.
	AuditDir string `yaml:"audit_dir,omitempty"`
	Scan     Scan   `yaml:"scan,omitempty"`
	Watch    Watch  `yaml:"watch,omitempty"`
}

// Scan defines scan behavior
type Scan struct {
	IncludeFullValues bool     `yaml:"include_full_values"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	OnlyScanners      []string `yaml:"only_scanners,omitempty"`
	ExcludeScanners   []string `yaml:"exclude_scanners,omitempty"`
	OnlyProviders     []string `yaml:"only_providers,omitempty"`
	ExcludeProviders  []string `yaml:"exclude_providers,omitempty"`
	Workers           int      `yaml:"workers"`
}

// Watch defines the rescan daemon behavior
type Watch struct {
	Interval    time.Duration `yaml:"interval"`
	MetricsPort int           `yaml:"metrics_port"`
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate ensures config has required fields and sane values
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Scan.MaxFileSize < 0 {
		return fmt.Errorf("scan.max_file_size must not be negative")
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must not be negative")
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("watch.interval must not be negative")
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Version: "v1",
		Watch: Watch{
			Interval:    time.Hour,
			MetricsPort: 9090,
		},
	}
}
