package audit

import (
	"fmt"
	"os"
	"time"
)

// Cleanup removes audit files older than the retention period
func Cleanup(config Config) (int, error) {
	config = config.withDefaults()
	cutoff := time.Now().AddDate(0, 0, -config.RetentionDays)

	files, err := listFiles(config)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(file); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", file, err)
		}
		removed++
	}
	return removed, nil
}

// Stats summarizes the on-disk audit log
type Stats struct {
	TotalFiles     int
	TotalSizeBytes int64
	LastSequence   int64
}

// GetStats reads statistics for an audit directory
func GetStats(config Config) Stats {
	config = config.withDefaults()
	stats := Stats{LastSequence: lastSequence(config)}

	files, err := listFiles(config)
	if err != nil {
		return stats
	}

	stats.TotalFiles = len(files)
	for _, file := range files {
		if info, err := os.Stat(file); err == nil {
			stats.TotalSizeBytes += info.Size()
		}
	}
	return stats
}
