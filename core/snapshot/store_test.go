package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/feederwatch/core/model"
)

func TestKeyFormat(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	if got := Key(7, ts); got != "cycle_0007_20240309_070501.json" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key(12345, ts); got != "cycle_12345_20240309_070501.json" {
		t.Fatalf("unexpected wide key %q", got)
	}
}

func TestParseCycle(t *testing.T) {
	cases := map[string]int{
		"cycle_0007_20240309_070501.json":            7,
		"prefix/dir/cycle_0120_20240309_070501.json": 120,
	}
	for key, want := range cases {
		got, ok := ParseCycle(key)
		if !ok || got != want {
			t.Fatalf("%s: got %d %v", key, got, ok)
		}
	}
	for _, bad := range []string{"fault_log.txt", "cycle_x_1.json", "cycle_0001.json", "cycle_0001_x.txt"} {
		if _, ok := ParseCycle(bad); ok {
			t.Fatalf("%s should not parse", bad)
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	_, err := Decode("k", []byte("{not json"))
	var ce *CorruptError
	if !errors.As(err, &ce) || ce.Key != "k" {
		t.Fatalf("expected CorruptError, got %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	snap := model.Snapshot{CycleNumber: 3, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Faults: []model.SnapshotFault{}}
	b, err := Encode(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode("k", b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CycleNumber != 3 || !got.Timestamp.Equal(snap.Timestamp) {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestSortAndNewest(t *testing.T) {
	l := Listing{Snapshots: []model.Snapshot{{CycleNumber: 3}, {CycleNumber: 1}, {CycleNumber: 2}}}
	SortByCycle(l.Snapshots)
	if l.Snapshots[0].CycleNumber != 1 || l.Newest().CycleNumber != 3 {
		t.Fatalf("unexpected order %+v", l.Snapshots)
	}
	if (Listing{}).Newest() != nil {
		t.Fatalf("empty listing should have no newest")
	}
}
