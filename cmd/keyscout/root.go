package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yairfalse/keyscout/config"
)

var (
	version = "0.1.0"

	cfgPath  string
	storeDir string
	debug    bool

	rootCmd = &cobra.Command{
		Use:   "keyscout",
		Short: "AI credential discovery for developer machines",
		Long: `Keyscout - AI Credential Discovery

Keyscout scans the config files AI tools leave on a developer machine
(.env files, Claude Desktop, LangChain, Roo Code, gsh) and reports the
provider API keys found in them, with per-key confidence scoring.

Discovered keys are identified by hash, never stored in the clear.
Tag and label them to track ownership across rescans.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// init sets up the root command
func init() {
	rootCmd.SetVersionTemplate(`Keyscout {{.Version}} - AI Credential Discovery
`)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Directory for tag/label documents (default ~/.keyscout)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	}
}

// loadConfig returns the file config when --config is set, defaults
// otherwise.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(cfgPath)
}

// resolveStoreDir picks the store directory from flag, config, then
// the fallback under the user's home.
func resolveStoreDir(cfg *config.Config) (string, error) {
	if storeDir != "" {
		return storeDir, nil
	}
	if cfg.StoreDir != "" {
		return cfg.StoreDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".keyscout"), nil
}

// resolveHomeDir picks the scan root from flag, config, then the
// current user's home.
func resolveHomeDir(flagValue string, cfg *config.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.HomeDir != "" {
		return cfg.HomeDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return home, nil
}
