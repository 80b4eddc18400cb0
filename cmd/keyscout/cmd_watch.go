package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/yairfalse/keyscout/audit"
	"github.com/yairfalse/keyscout/diff"
	"github.com/yairfalse/keyscout/orchestrator"
	"github.com/yairfalse/keyscout/providers"
	"github.com/yairfalse/keyscout/scanners"
	"github.com/yairfalse/keyscout/telemetry"
	"github.com/yairfalse/keyscout/types"
)

var (
	watchInterval    time.Duration
	watchMetricsPort int
	watchHome        string
	watchOTLP        string
	watchOnce        bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan continuously and export metrics",
	Long: `Run keyscout as a long-lived process that rescans the home
directory at a fixed interval.

Metrics are exported two ways at once: pulled by Prometheus from the
/metrics endpoint and pushed over OTLP when an endpoint is configured.
The process shuts down cleanly on SIGTERM/SIGINT.`,
	Example: `  keyscout watch                          # Rescan hourly, metrics on :9090
  keyscout watch --interval 10m           # Rescan every 10 minutes
  keyscout watch --metrics-port 2112      # Custom metrics port
  keyscout watch --otlp localhost:4317    # Push metrics and traces over OTLP`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Rescan interval (default 1h)")
	watchCmd.Flags().IntVar(&watchMetricsPort, "metrics-port", 0, "Metrics HTTP server port (default 9090)")
	watchCmd.Flags().StringVar(&watchHome, "home", "", "Scan root directory (default your home)")
	watchCmd.Flags().StringVar(&watchOTLP, "otlp", "", "OTLP gRPC endpoint for metric and trace push")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Run a single scan and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	home, err := resolveHomeDir(watchHome, cfg)
	if err != nil {
		return err
	}

	interval := watchInterval
	if interval == 0 {
		interval = cfg.Watch.Interval
	}
	if interval == 0 {
		interval = time.Hour
	}
	metricsPort := watchMetricsPort
	if metricsPort == 0 {
		metricsPort = cfg.Watch.MetricsPort
	}
	if metricsPort == 0 {
		metricsPort = 9090
	}

	ctx := cmd.Context()

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "keyscout",
		ServiceVersion: version,
		OTELEndpoint:   watchOTLP,
		Insecure:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	scanReg, err := scanners.NewDefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build scanner registry: %w", err)
	}
	provReg, err := providers.NewDefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build provider registry: %w", err)
	}

	orchCfg := orchestrator.Config{Logger: telemetry.NewLogger("watch")}
	if cfg.AuditDir != "" {
		auditLog, err := audit.Open(audit.Config{Dir: cfg.AuditDir})
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer func() { _ = auditLog.Close() }()
		orchCfg.Audit = auditLog
	}
	orch := orchestrator.New(scanReg, provReg, orchCfg)

	opts := orchestrator.Options{
		HomeDir:           home,
		IncludeFullValues: false,
		MaxFileSize:       cfg.Scan.MaxFileSize,
		OnlyScanners:      cfg.Scan.OnlyScanners,
		ExcludeScanners:   cfg.Scan.ExcludeScanners,
		OnlyProviders:     cfg.Scan.OnlyProviders,
		ExcludeProviders:  cfg.Scan.ExcludeProviders,
		Workers:           cfg.Scan.Workers,
	}

	fmt.Printf("Starting keyscout watch\n")
	fmt.Printf("   Home:     %s\n", home)
	fmt.Printf("   Interval: %s\n", interval)
	fmt.Printf("   Metrics:  http://localhost:%d/metrics\n\n", metricsPort)

	if watchOnce {
		_, err := runSingleScan(ctx, orch, opts, nil)
		return err
	}

	var group run.Group

	// Signal handling
	{
		sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		group.Add(func() error {
			<-sigCtx.Done()
			return sigCtx.Err()
		}, func(error) {
			cancel()
		})
	}

	// Metrics server on the dual-export Prometheus registry
	{
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		server := &http.Server{
			Addr:              net.JoinHostPort("", fmt.Sprintf("%d", metricsPort)),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		group.Add(func() error {
			err := server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}, func(error) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		})
	}

	// Rescan loop
	{
		loopCtx, cancel := context.WithCancel(ctx)
		group.Add(func() error {
			previous, err := runSingleScan(loopCtx, orch, opts, nil)
			if err != nil {
				return err
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					result, err := runSingleScan(loopCtx, orch, opts, previous)
					if err != nil {
						return err
					}
					if result != nil {
						previous = result
					}
				case <-loopCtx.Done():
					return loopCtx.Err()
				}
			}
		}, func(error) {
			cancel()
		})
	}

	err = group.Run()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println("\nWatch stopped")
	return nil
}

// runSingleScan runs one scan, reports a one-line summary and the
// changes against the previous run. Cancellation stops the loop; any
// other scan failure is logged and swallowed so the daemon keeps
// running.
func runSingleScan(ctx context.Context, orch *orchestrator.Orchestrator, opts orchestrator.Options, previous *types.ScanResult) (*types.ScanResult, error) {
	result, err := orch.Scan(ctx, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		return nil, nil
	}

	fmt.Printf("scan done: %d keys across %d files (%d errors) in %s\n",
		len(result.Keys), result.Stats.FilesScanned, len(result.Errors), result.Stats.Duration)

	if previous != nil {
		reportChanges(diff.Detect(previous, result))
	}
	return result, nil
}

// reportChanges prints credential churn between two consecutive scans.
func reportChanges(changes diff.Changes) {
	if changes.Empty() {
		return
	}

	for _, c := range changes.Keys {
		switch c.ChangeType {
		case diff.ChangeAppeared:
			fmt.Printf("   + key %s appeared in %s\n", c.Identity, c.Current.Source)
		case diff.ChangeDisappeared:
			fmt.Printf("   - key %s disappeared from %s\n", c.Identity, c.Previous.Source)
		case diff.ChangeModified:
			fmt.Printf("   ~ key %s moved: %s -> %s\n", c.Identity, c.Previous.Source, c.Current.Source)
		}
	}
	for _, c := range changes.Instances {
		switch c.ChangeType {
		case diff.ChangeAppeared:
			fmt.Printf("   + config file %s appeared\n", c.InstanceID)
		case diff.ChangeDisappeared:
			fmt.Printf("   - config file %s disappeared\n", c.InstanceID)
		case diff.ChangeModified:
			fmt.Printf("   ~ config file %s changed (%d -> %d keys)\n",
				c.InstanceID, c.Previous.KeyCount, c.Current.KeyCount)
		}
	}
}
