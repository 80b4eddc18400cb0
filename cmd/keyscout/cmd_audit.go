package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/keyscout/audit"
)

var (
	auditDir       string
	auditSince     time.Duration
	auditRetention int
)

// auditCmd groups the audit log subcommands
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and maintain the scan audit log",
	Long: `The audit log records every scan event (starts, key discoveries,
skipped files, scanner failures) as append-only JSONL. Scans write it
when --audit-dir or the audit_dir config field is set.`,
	Example: `  keyscout audit replay --dir ~/.keyscout/audit
  keyscout audit replay --dir ~/.keyscout/audit --since 24h
  keyscout audit stats --dir ~/.keyscout/audit
  keyscout audit cleanup --dir ~/.keyscout/audit --retention-days 7`,
}

var auditReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Print recorded scan events in order",
	Args:  cobra.NoArgs,
	RunE:  runAuditReplay,
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show on-disk audit log statistics",
	Args:  cobra.NoArgs,
	RunE:  runAuditStats,
}

var auditCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove audit files past the retention period",
	Args:  cobra.NoArgs,
	RunE:  runAuditCleanup,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditReplayCmd, auditStatsCmd, auditCleanupCmd)

	auditCmd.PersistentFlags().StringVar(&auditDir, "dir", "", "Audit log directory")
	auditReplayCmd.Flags().DurationVar(&auditSince, "since", 0, "Only replay entries newer than this")
	auditCleanupCmd.Flags().IntVar(&auditRetention, "retention-days", 0, "Days of audit files to keep (default 30)")
}

// resolveAuditDir picks the audit directory from flag then config.
func resolveAuditDir() (string, error) {
	if auditDir != "" {
		return auditDir, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.AuditDir == "" {
		return "", fmt.Errorf("no audit directory configured; pass --dir or set audit_dir in the config")
	}
	return cfg.AuditDir, nil
}

func runAuditReplay(cmd *cobra.Command, args []string) error {
	dir, err := resolveAuditDir()
	if err != nil {
		return err
	}

	var since time.Time
	if auditSince > 0 {
		since = time.Now().Add(-auditSince)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SEQ\tTIME\tEVENT\tSCANNER\tPATH\tERROR")

	count := 0
	err = audit.Replay(audit.Config{Dir: dir}, since, func(entry *audit.Entry) error {
		count++
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			entry.Sequence,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Type,
			entry.Scanner,
			entry.Path,
			entry.Error,
		)
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d entries\n", count)
	return nil
}

func runAuditStats(cmd *cobra.Command, args []string) error {
	dir, err := resolveAuditDir()
	if err != nil {
		return err
	}

	stats := audit.GetStats(audit.Config{Dir: dir})
	fmt.Printf("Audit log at %s:\n", dir)
	fmt.Printf("   Files:         %d\n", stats.TotalFiles)
	fmt.Printf("   Total size:    %d bytes\n", stats.TotalSizeBytes)
	fmt.Printf("   Last sequence: %d\n", stats.LastSequence)
	return nil
}

func runAuditCleanup(cmd *cobra.Command, args []string) error {
	dir, err := resolveAuditDir()
	if err != nil {
		return err
	}

	removed, err := audit.Cleanup(audit.Config{Dir: dir, RetentionDays: auditRetention})
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d audit files\n", removed)
	return nil
}
