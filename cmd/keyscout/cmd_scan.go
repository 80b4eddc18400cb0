package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	scanHome       string
	scanOutput     string
	scanFullValues bool
	scanMaxSize    int64
	scanOnly       []string
	scanExclude    []string
	scanProviders  []string
	scanSkip       []string
	scanWorkers    int
	scanDryRun     bool
	scanAuditDir   string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan config files for AI provider credentials",
	Long: `Scan the home directory for AI tool config files and report the
provider API keys found in them.

Every file is read at most once per scan. Keys are reported by hash
and redacted form; pass --full-values to include the raw secret.
Per-file failures never abort the scan, they are listed at the end.`,
	Example: `  keyscout scan                            # Scan your home directory
  keyscout scan --home /home/alex          # Scan a specific home
  keyscout scan --only-scanner dotenv      # Only the .env scanner
  keyscout scan --only-provider openai     # Only OpenAI keys
  keyscout scan --dry-run                  # List reachable files, read nothing
  keyscout scan --output json              # Machine-readable output`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanHome, "home", "", "Scan root directory (default your home)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "table", "Output format: table, json")
	scanCmd.Flags().BoolVar(&scanFullValues, "full-values", false, "Include raw secret values in output")
	scanCmd.Flags().Int64Var(&scanMaxSize, "max-file-size", 0, "Skip files larger than this many bytes")
	scanCmd.Flags().StringSliceVar(&scanOnly, "only-scanner", nil, "Run only these scanners")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude-scanner", nil, "Skip these scanners")
	scanCmd.Flags().StringSliceVar(&scanProviders, "only-provider", nil, "Report only these providers")
	scanCmd.Flags().StringSliceVar(&scanSkip, "exclude-provider", nil, "Drop these providers from the report")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Concurrent file readers")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "Resolve paths without reading any file")
	scanCmd.Flags().StringVar(&scanAuditDir, "audit-dir", "", "Append scan events to a JSONL audit log in this directory")
}

func runScan(cmd *cobra.Command, args []string) error {
	validOutputs := []string{"table", "json"}
	if !contains(validOutputs, scanOutput) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			scanOutput, strings.Join(validOutputs, ", "))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	home, err := resolveHomeDir(scanHome, cfg)
	if err != nil {
		return err
	}

	scanCommand := &ScanCommand{
		Home:              home,
		Output:            scanOutput,
		IncludeFullValues: scanFullValues || cfg.Scan.IncludeFullValues,
		MaxFileSize:       firstNonZero(scanMaxSize, cfg.Scan.MaxFileSize),
		OnlyScanners:      firstNonEmpty(scanOnly, cfg.Scan.OnlyScanners),
		ExcludeScanners:   firstNonEmpty(scanExclude, cfg.Scan.ExcludeScanners),
		OnlyProviders:     firstNonEmpty(scanProviders, cfg.Scan.OnlyProviders),
		ExcludeProviders:  firstNonEmpty(scanSkip, cfg.Scan.ExcludeProviders),
		Workers:           firstNonZeroInt(scanWorkers, cfg.Scan.Workers),
		DryRun:            scanDryRun,
		AuditDir:          firstNonEmptyString(scanAuditDir, cfg.AuditDir),
	}

	return scanCommand.Run(cmd.Context())
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func firstNonZero(a, b int64) int64 {
	if a != 0 {
		return a
	}
	return b
}

func firstNonZeroInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func firstNonEmpty(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

func firstNonEmptyString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
