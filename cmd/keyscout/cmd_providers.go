package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yairfalse/keyscout/catalog"
	"github.com/yairfalse/keyscout/scanners"
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List known AI providers and their key shapes",
	Long: `List the providers keyscout can attribute keys to, with the key
prefixes and environment variable names used for attribution.`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

// scannersCmd represents the scanners command
var scannersCmd = &cobra.Command{
	Use:   "scanners",
	Short: "List built-in scanners and the paths they check",
	Args:  cobra.NoArgs,
	RunE:  runScanners,
}

func init() {
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(scannersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROVIDER\tNAME\tKEY PREFIXES\tENV VARS")
	_, _ = fmt.Fprintln(w, "--------\t----\t------------\t--------")

	for _, p := range catalog.All() {
		prefixes := strings.Join(p.KeyPrefixes, ", ")
		if prefixes == "" {
			prefixes = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.ID, p.DisplayName, prefixes, strings.Join(p.EnvVars, ", "))
	}
	return w.Flush()
}

func runScanners(cmd *cobra.Command, args []string) error {
	reg, err := scanners.NewDefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build scanner registry: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCANNER\tCONFIG PATHS")
	_, _ = fmt.Fprintln(w, "-------\t------------")

	for _, s := range reg.All() {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", s.Name(), strings.Join(s.ConfigPaths(), ", "))
	}
	return w.Flush()
}
