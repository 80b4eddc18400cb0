// Package audit provides an append-only JSONL log of scan events.
// Every key discovery, skipped file and scanner failure lands here so
// a scan's behavior can be reconstructed after the fact.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the type of audit entry
type EventType string

const (
	EventScanStarted   EventType = "scan_started"
	EventKeyFound      EventType = "key_found"
	EventFileSkipped   EventType = "file_skipped"
	EventScannerFailed EventType = "scanner_failed"
	EventScanCompleted EventType = "scan_completed"
	EventAssignment    EventType = "assignment"
)

// Entry is a single audit record
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Sequence  int64           `json:"sequence"`
	Type      EventType       `json:"type"`
	Scanner   string          `json:"scanner,omitempty"`
	Path      string          `json:"path,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Config holds audit log settings
type Config struct {
	Dir           string
	FilePrefix    string // default "keyscout"
	MaxFileSize   int64  // rotate above this, default 32 MiB
	RetentionDays int    // Cleanup removes older files, default 30
}

func (c Config) withDefaults() Config {
	if c.FilePrefix == "" {
		c.FilePrefix = "keyscout"
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 32 << 20
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = 30
	}
	return c
}

// Log is the append-only audit log. Safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	sequence int64
	size     int64
	config   Config
}

// Open creates or opens an audit log in the configured directory.
// Sequence numbering continues from existing files.
func Open(config Config) (*Log, error) {
	config = config.withDefaults()

	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	l := &Log{config: config}
	l.sequence = lastSequence(config)

	if err := l.openNewFile(); err != nil {
		return nil, err
	}
	return l, nil
}

// openNewFile starts a fresh timestamped log file. Caller holds the
// lock except during Open.
func (l *Log) openNewFile() error {
	filename := fmt.Sprintf("%s-%s.jsonl", l.config.FilePrefix, time.Now().Format("20060102-150405"))
	path := filepath.Join(l.config.Dir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}

	l.file = file
	l.writer = bufio.NewWriter(file)
	l.size = 0
	return nil
}

// Close flushes and closes the log
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writer.Flush(); err != nil {
		return err
	}
	return l.file.Close()
}

// Append adds an entry
func (l *Log) Append(eventType EventType, scanner, path string, data any) error {
	return l.append(eventType, scanner, path, data, nil)
}

// AppendError adds an entry carrying an error
func (l *Log) AppendError(eventType EventType, scanner, path string, data any, errToLog error) error {
	return l.append(eventType, scanner, path, data, errToLog)
}

func (l *Log) append(eventType EventType, scanner, path string, data any, errToLog error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sequence++

	entry := Entry{
		Timestamp: time.Now(),
		Sequence:  l.sequence,
		Type:      eventType,
		Scanner:   scanner,
		Path:      path,
	}
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
		entry.Data = jsonData
	}
	if errToLog != nil {
		entry.Error = errToLog.Error()
	}

	return l.writeEntry(entry)
}

// writeEntry writes one line and rotates when the file grows past the
// size limit
func (l *Log) writeEntry(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	n, err := l.writer.Write(line)
	if err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if _, err := l.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	l.size += int64(n) + 1

	// Flush immediately for durability
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return err
	}

	if l.size >= l.config.MaxFileSize {
		return l.rotate()
	}
	return nil
}

func (l *Log) rotate() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close for rotation: %w", err)
	}
	return l.openNewFile()
}

// Reader replays one audit file
type Reader struct {
	scanner *bufio.Scanner
	file    *os.File
}

// NewReader opens an audit file for replay
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}

	return &Reader{
		scanner: bufio.NewScanner(file),
		file:    file,
	}, nil
}

// Next reads the next entry
func (r *Reader) Next() (*Entry, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	var entry Entry
	if err := json.Unmarshal(r.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}

	return &entry, nil
}

// Close closes the reader
func (r *Reader) Close() error {
	return r.file.Close()
}

// Replay feeds every entry newer than since to the handler, oldest
// file first.
func Replay(config Config, since time.Time, handler func(*Entry) error) error {
	config = config.withDefaults()

	files, err := listFiles(config)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := replayFile(file, since, handler); err != nil {
			return err
		}
	}
	return nil
}

func replayFile(path string, since time.Time, handler func(*Entry) error) error {
	reader, err := NewReader(path)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	for {
		entry, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if entry.Timestamp.After(since) {
			if err := handler(entry); err != nil {
				return err
			}
		}
	}
}

// listFiles returns the log files for a config, sorted by name, which
// is chronological given the timestamped naming scheme.
func listFiles(config Config) ([]string, error) {
	pattern := filepath.Join(config.Dir, config.FilePrefix+"-*.jsonl")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit files: %w", err)
	}
	return files, nil
}

// lastSequence scans existing files for the highest sequence so a
// reopened log keeps numbering monotonic.
func lastSequence(config Config) int64 {
	files, err := listFiles(config)
	if err != nil {
		return 0
	}

	var maxSeq int64
	for _, file := range files {
		reader, err := NewReader(file)
		if err != nil {
			continue
		}
		for {
			entry, err := reader.Next()
			if err != nil {
				break
			}
			if entry.Sequence > maxSeq {
				maxSeq = entry.Sequence
			}
		}
		_ = reader.Close()
	}
	return maxSeq
}
