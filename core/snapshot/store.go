// Package snapshot defines the persistence contract for cycle snapshots.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/feederwatch/core/model"
)

// ErrExists is returned by Save when a snapshot with the same key was
// already written. Snapshots are never overwritten.
var ErrExists = errors.New("snapshot already exists")

// CorruptError reports a stored document that could not be decoded.
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("snapshot %s is corrupt: %v", e.Key, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Listing is the result of a full scan of a store.
type Listing struct {
	// Snapshots sorted by ascending cycle number.
	Snapshots []model.Snapshot
	// Skipped holds the documents that could not be read.
	Skipped []*CorruptError
}

// Store persists snapshots. Implementations must be safe for one writer and
// concurrent readers.
type Store interface {
	Save(ctx context.Context, snap model.Snapshot) (string, error)
	List(ctx context.Context) (Listing, error)
	// Latest returns the snapshot with the highest cycle number, or nil
	// when the store is empty.
	Latest(ctx context.Context) (*model.Snapshot, error)
	Close() error
}

const (
	keyPrefix  = "cycle_"
	keySuffix  = ".json"
	keyTimeFmt = "20060102_150405"
)

// Key returns the document name of a cycle written at t.
func Key(cycle int, t time.Time) string {
	return fmt.Sprintf("%s%04d_%s%s", keyPrefix, cycle, t.Format(keyTimeFmt), keySuffix)
}

// ParseCycle extracts the cycle number from a key produced by Key.
func ParseCycle(key string) (int, bool) {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, keySuffix) {
		return 0, false
	}
	rest := strings.TrimPrefix(key, keyPrefix)
	num, _, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Encode renders snap as an indented JSON document.
func Encode(snap model.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot %d: %w", snap.CycleNumber, err)
	}
	return buf.Bytes(), nil
}

// Decode parses a stored document. Failures are reported as *CorruptError.
func Decode(key string, b []byte) (model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return model.Snapshot{}, &CorruptError{Key: key, Err: err}
	}
	return snap, nil
}

// SortByCycle orders snaps by ascending cycle number, then timestamp.
func SortByCycle(snaps []model.Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].CycleNumber != snaps[j].CycleNumber {
			return snaps[i].CycleNumber < snaps[j].CycleNumber
		}
		return snaps[i].Timestamp.Before(snaps[j].Timestamp)
	})
}

// Newest returns the last snapshot of a sorted listing, or nil.
func (l Listing) Newest() *model.Snapshot {
	if len(l.Snapshots) == 0 {
		return nil
	}
	s := l.Snapshots[len(l.Snapshots)-1]
	return &s
}
