package faultlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/feederwatch/core/model"
)

func sample() model.Snapshot {
	return model.Snapshot{
		CycleNumber: 12,
		Timestamp:   time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		TotalFaults: 2,
		Faults: []model.SnapshotFault{
			{CustomerID: 42, FeederID: 1, OldOutput: 200, NewOutput: 350, FeederName: "Zone-A / Feeder-2", AssignedEngineer: "Eng. Riya", EngineerSpecialty: model.SpecialtyLine},
			{CustomerID: 7, FeederID: 3, OldOutput: 90, NewOutput: 5, FeederName: "Zone-C / Feeder-4", AssignedEngineer: "Eng. Neha", EngineerSpecialty: model.SpecialtyLine, AIAssigned: true, AssignmentReason: "closest"},
		},
	}
}

func TestFormat(t *testing.T) {
	out := Format(sample())
	lines := strings.Split(out, "\n")
	if lines[0] != "" || lines[1] != strings.Repeat("=", 80) {
		t.Fatalf("unexpected header %q", lines[:2])
	}
	if lines[2] != "Timestamp: 2024-02-03 04:05:06" || lines[3] != "Cycle: 12" || lines[4] != "Total Faults Detected: 2" {
		t.Fatalf("unexpected preamble %q", lines[2:5])
	}
	want := "Customer ID:     42 | Feeder: 1 | Output: 200 -> 350 | Location: Zone-A / Feeder-2    | Engineer: Eng. Riya (line)"
	if lines[6] != want {
		t.Fatalf("got  %q\nwant %q", lines[6], want)
	}
	if !strings.Contains(lines[7], "Output:  90 ->   5") {
		t.Fatalf("padding missing: %q", lines[7])
	}
	if lines[8] != "  AI Reason: closest" {
		t.Fatalf("missing AI reason line: %q", lines[8])
	}
}

func TestAppendRotatingFile(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "logs", "fault_log.txt")}
	cfg.SetDefaults()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Append(sample()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(model.Snapshot{CycleNumber: 13}); err != nil {
		t.Fatalf("append empty: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(cfg.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Count(string(b), "Cycle: ") != 1 {
		t.Fatalf("expected exactly one block, got:\n%s", b)
	}
}
