package types

import "time"

// ScanError records a non-fatal failure against the file that caused
// it. Errors never abort a scan; they accumulate here.
type ScanError struct {
	Scanner string    `json:"scanner,omitempty" yaml:"scanner,omitempty"`
	Path    string    `json:"path,omitempty" yaml:"path,omitempty"`
	Message string    `json:"message" yaml:"message"`
	At      time.Time `json:"at" yaml:"at"`
}

func (e ScanError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ScanStats summarizes the work a scan did.
type ScanStats struct {
	FilesScanned int           `json:"files_scanned" yaml:"files_scanned"`
	FilesSkipped int           `json:"files_skipped" yaml:"files_skipped"`
	ScannersRun  int           `json:"scanners_run" yaml:"scanners_run"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// ScanResult is the aggregate outcome of one orchestrated scan. Keys
// and Instances are deduplicated; Errors holds every per-file failure
// encountered along the way. A result with Errors is still a valid,
// usable result.
type ScanResult struct {
	Keys      []DiscoveredKey  `json:"keys" yaml:"keys"`
	Instances []ConfigInstance `json:"instances" yaml:"instances"`
	Errors    []ScanError      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Stats     ScanStats        `json:"stats" yaml:"stats"`
	StartedAt time.Time        `json:"started_at" yaml:"started_at"`
	// Partial is set when the scan was cancelled before all scanners
	// finished. The collected keys are still valid.
	Partial bool `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// KeysByProvider groups discovered keys by provider name.
func (r *ScanResult) KeysByProvider() map[string][]DiscoveredKey {
	out := make(map[string][]DiscoveredKey)
	for _, k := range r.Keys {
		out[k.Provider] = append(out[k.Provider], k)
	}
	return out
}

// KeyMultiset counts keys by identity (provider plus hash). Two scans
// over unchanged input must produce equal multisets even if discovery
// order differs.
func (r *ScanResult) KeyMultiset() map[string]int {
	out := make(map[string]int, len(r.Keys))
	for _, k := range r.Keys {
		out[k.Identity()]++
	}
	return out
}
