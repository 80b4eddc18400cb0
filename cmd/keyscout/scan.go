package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/yairfalse/keyscout/audit"
	"github.com/yairfalse/keyscout/orchestrator"
	"github.com/yairfalse/keyscout/providers"
	"github.com/yairfalse/keyscout/scanners"
	"github.com/yairfalse/keyscout/telemetry"
	"github.com/yairfalse/keyscout/types"
)

// ScanCommand implements the 'keyscout scan' command
type ScanCommand struct {
	Home              string
	Output            string
	IncludeFullValues bool
	MaxFileSize       int64
	OnlyScanners      []string
	ExcludeScanners   []string
	OnlyProviders     []string
	ExcludeProviders  []string
	Workers           int
	DryRun            bool
	AuditDir          string
}

// Run executes the scan command
func (cmd *ScanCommand) Run(ctx context.Context) error {
	scanReg, err := scanners.NewDefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build scanner registry: %w", err)
	}
	provReg, err := providers.NewDefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build provider registry: %w", err)
	}

	orchCfg := orchestrator.Config{
		Logger: telemetry.NewLogger("scan"),
	}

	if cmd.AuditDir != "" {
		auditLog, err := audit.Open(audit.Config{Dir: cmd.AuditDir})
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer func() { _ = auditLog.Close() }()
		orchCfg.Audit = auditLog
	}

	orch := orchestrator.New(scanReg, provReg, orchCfg)

	result, err := orch.Scan(ctx, orchestrator.Options{
		HomeDir:           cmd.Home,
		IncludeFullValues: cmd.IncludeFullValues,
		MaxFileSize:       cmd.MaxFileSize,
		OnlyScanners:      cmd.OnlyScanners,
		ExcludeScanners:   cmd.ExcludeScanners,
		OnlyProviders:     cmd.OnlyProviders,
		ExcludeProviders:  cmd.ExcludeProviders,
		Workers:           cmd.Workers,
		DryRun:            cmd.DryRun,
	})
	if err != nil {
		if result != nil && result.Partial && errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Scan interrupted, showing partial results")
		} else {
			return err
		}
	}

	switch cmd.Output {
	case "json":
		return cmd.outputJSON(result)
	default:
		return cmd.outputTable(result)
	}
}

// outputTable displays results in a table format
func (cmd *ScanCommand) outputTable(result *types.ScanResult) error {
	fmt.Printf("Scan Summary:\n")
	fmt.Printf("   Files scanned: %d\n", result.Stats.FilesScanned)
	fmt.Printf("   Files skipped: %d\n", result.Stats.FilesSkipped)
	fmt.Printf("   Scanners run:  %d\n", result.Stats.ScannersRun)
	fmt.Printf("   Duration:      %s\n", result.Stats.Duration)
	fmt.Printf("\n")

	if cmd.DryRun {
		return cmd.outputInstances(result)
	}

	if len(result.Keys) == 0 {
		fmt.Println("No credentials found.")
	} else {
		cmd.outputKeys(result.Keys)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nScan errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("   %s: %s: %s\n", e.Scanner, e.Path, e.Message)
		}
	}

	return nil
}

// outputKeys prints discovered keys sorted by provider then score.
func (cmd *ScanCommand) outputKeys(keys []types.DiscoveredKey) {
	sorted := make([]types.DiscoveredKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Provider != sorted[j].Provider {
			return sorted[i].Provider < sorted[j].Provider
		}
		return sorted[i].Score > sorted[j].Score
	})

	fmt.Printf("Discovered Keys (%d):\n", len(sorted))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROVIDER\tCONFIDENCE\tSCORE\tVALUE\tSOURCE\tLINE")
	_, _ = fmt.Fprintln(w, "--------\t----------\t-----\t-----\t------\t----")

	for _, key := range sorted {
		value := key.Redacted
		if cmd.IncludeFullValues && key.FullValue != "" {
			value = key.FullValue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%d\n",
			key.Provider,
			key.Confidence,
			key.Score,
			value,
			truncate(key.Source, 48),
			key.Line,
		)
	}
	_ = w.Flush()
}

// outputInstances prints reachable config files, used by dry runs.
func (cmd *ScanCommand) outputInstances(result *types.ScanResult) error {
	if len(result.Instances) == 0 {
		fmt.Println("No config files reachable.")
		return nil
	}

	fmt.Printf("Reachable config files (%d):\n", len(result.Instances))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCANNER\tPATH\tFORMAT")
	_, _ = fmt.Fprintln(w, "-------\t----\t------")
	for _, inst := range result.Instances {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", inst.Scanner, inst.Path, inst.Format)
	}
	_ = w.Flush()
	return nil
}

// outputJSON outputs the full scan result as JSON
func (cmd *ScanCommand) outputJSON(result *types.ScanResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
