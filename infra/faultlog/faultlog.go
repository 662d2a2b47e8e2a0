// Package faultlog appends a human readable block per cycle to a rotating
// text file.
package faultlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/feederwatch/core/model"
)

// Config controls the log file and its rotation.
type Config struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
	Disabled   bool   `json:"disabled"`
}

// SetDefaults fills in the log path and rotation limits.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "fault_log.txt"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 50
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
}

// Validate checks the rotation limits.
func (c Config) Validate() error {
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("fault_log rotation limits must not be negative")
	}
	return nil
}

const timeLayout = "2006-01-02 15:04:05"

// Writer formats snapshots into the fault log.
type Writer struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// New opens the rotating log described by cfg.
func New(cfg Config) (*Writer, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return &Writer{out: lj}, nil
}

// NewWriter wraps an arbitrary destination.
func NewWriter(w io.WriteCloser) *Writer { return &Writer{out: w} }

// Append writes the block for snap. Snapshots without faults are skipped.
func (w *Writer) Append(snap model.Snapshot) error {
	if len(snap.Faults) == 0 {
		return nil
	}
	block := Format(snap)
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := io.WriteString(w.out, block)
	return err
}

// Close closes the destination.
func (w *Writer) Close() error { return w.out.Close() }

// Format renders the text block of a cycle.
func Format(snap model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(&b, "Timestamp: %s\n", snap.Timestamp.Format(timeLayout))
	fmt.Fprintf(&b, "Cycle: %d\n", snap.CycleNumber)
	fmt.Fprintf(&b, "Total Faults Detected: %d\n", len(snap.Faults))
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 80))
	for _, f := range snap.Faults {
		fmt.Fprintf(&b, "Customer ID: %6d | Feeder: %d | Output: %3d -> %3d | Location: %-20s | Engineer: %s (%s)\n",
			f.CustomerID, f.FeederID, f.OldOutput, f.NewOutput, f.FeederName, f.AssignedEngineer, f.EngineerSpecialty)
		if f.AIAssigned {
			reason := f.AssignmentReason
			if reason == "" {
				reason = "N/A"
			}
			fmt.Fprintf(&b, "  AI Reason: %s\n", reason)
		}
	}
	return b.String()
}
