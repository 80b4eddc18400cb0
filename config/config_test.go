package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Create a temp config file
	content := `
version: v1
home_dir: /home/u
store_dir: /var/lib/keyscout
audit_dir: /var/log/keyscout

scan:
  include_full_values: false
  max_file_size: 1048576
  only_providers:
    - openai
    - anthropic
  workers: 8

watch:
  interval: 30m
  metrics_port: 9090
`
	tmpfile, err := os.CreateTemp("", "keyscout-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Load the config
	cfg, err := LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// Verify config
	if cfg.Version != "v1" {
		t.Errorf("Version = %v, want v1", cfg.Version)
	}
	if cfg.HomeDir != "/home/u" {
		t.Errorf("HomeDir = %v, want /home/u", cfg.HomeDir)
	}
	if cfg.Scan.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize = %v, want 1048576", cfg.Scan.MaxFileSize)
	}
	if len(cfg.Scan.OnlyProviders) != 2 {
		t.Errorf("OnlyProviders count = %v, want 2", len(cfg.Scan.OnlyProviders))
	}
	if cfg.Watch.Interval != 30*time.Minute {
		t.Errorf("Interval = %v, want 30m", cfg.Watch.Interval)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Version: "v1",
			},
			wantErr: false,
		},
		{
			name:    "missing version",
			config:  Config{},
			wantErr: true,
		},
		{
			name: "negative max file size",
			config: Config{
				Version: "v1",
				Scan:    Scan{MaxFileSize: -1},
			},
			wantErr: true,
		},
		{
			name: "negative workers",
			config: Config{
				Version: "v1",
				Scan:    Scan{Workers: -2},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
