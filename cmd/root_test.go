package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCycleDryRun(t *testing.T) {
	t.Setenv("K_TICKETS__DIR", t.TempDir())
	t.Setenv("K_POPULATION__SEED", "3")
	t.Setenv("K_POPULATION__CUSTOMERS", "40")
	out, err := execute(t, "cycle", "--dry-run", "-n", "2")
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if !strings.Contains(out, "cycle 1:") || !strings.Contains(out, "cycle 2:") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCycleRejectsZeroCount(t *testing.T) {
	if _, err := execute(t, "cycle", "--dry-run", "-n", "0"); err == nil {
		t.Fatal("expected error for zero count")
	}
	cycleCount = 1
}

func TestSnapshotsLatestEmpty(t *testing.T) {
	t.Setenv("K_SNAPSHOTS__TYPE", "memory")
	out, err := execute(t, "snapshots", "latest")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if strings.TrimSpace(out) != "{}" {
		t.Fatalf("expected {}, got %q", out)
	}
}

func TestSnapshotsHistoryRequiresCustomer(t *testing.T) {
	t.Setenv("K_SNAPSHOTS__TYPE", "memory")
	historyCustomer = 0
	if _, err := execute(t, "snapshots", "history"); err == nil {
		t.Fatal("expected error without --customer")
	}
}
