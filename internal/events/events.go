// Package events persists dispatch run records as JSON Lines so other
// aidd tooling can tail stage activity without a database dependency.
package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Record is one dispatch event. Timestamps are UTC, second precision,
// trailing Z.
type Record struct {
	RunID      string `json:"run_id"`
	Timestamp  string `json:"ts"`
	Command    string `json:"command"`
	Stage      string `json:"stage,omitempty"`
	Ticket     string `json:"ticket,omitempty"`
	Profile    string `json:"profile,omitempty"`
	ReturnCode int    `json:"returncode"`
}

// Timestamp returns the current time in the log's timestamp format.
func Timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// Append adds one record to the log, creating parent directories as
// needed.
func Append(path string, record Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating event log directory: %w", err)
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding event record: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending event record: %w", err)
	}
	return nil
}

// Write replaces the log atomically: records go to a temp file that is
// renamed over the target.
func Write(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating event log directory: %w", err)
	}
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp event log: %w", err)
	}
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			file.Close()
			os.Remove(tmp)
			return fmt.Errorf("encoding event record: %w", err)
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			file.Close()
			os.Remove(tmp)
			return fmt.Errorf("writing event record: %w", err)
		}
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temp event log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing event log: %w", err)
	}
	return nil
}

// Read loads the log. A missing file yields no records; blank and
// malformed lines are skipped so a partially written log stays readable.
func Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	return records, nil
}
