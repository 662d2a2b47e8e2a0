package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kilianp07/feederwatch/core/model"
	coresnap "github.com/kilianp07/feederwatch/core/snapshot"
)

// FileStore keeps one JSON document per cycle in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the documents.
func (s *FileStore) Dir() string { return s.dir }

// Save writes snap to a new file. Existing files are never replaced and a
// partially written document is never visible under its key.
func (s *FileStore) Save(ctx context.Context, snap model.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := coresnap.Encode(snap)
	if err != nil {
		return "", err
	}
	key := coresnap.Key(snap.CycleNumber, snap.Timestamp)
	path := filepath.Join(s.dir, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Lstat(path); err == nil {
		return "", fmt.Errorf("%s: %w", key, coresnap.ErrExists)
	}
	// Readers only ever see complete documents: the bytes land in a temp
	// file that is hard-linked into place, and Link fails if the key exists.
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+key+"-*")
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%s: %w", key, coresnap.ErrExists)
		}
		return "", fmt.Errorf("link %s: %w", key, err)
	}
	return key, nil
}

// keys returns the snapshot file names found in the directory.
func (s *FileStore) keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := coresnap.ParseCycle(e.Name()); ok {
			keys = append(keys, e.Name())
		}
	}
	return keys, nil
}

func (s *FileStore) read(key string) (model.Snapshot, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		return model.Snapshot{}, &coresnap.CorruptError{Key: key, Err: err}
	}
	return coresnap.Decode(key, b)
}

// List reads every snapshot in the directory.
func (s *FileStore) List(ctx context.Context) (coresnap.Listing, error) {
	keys, err := s.keys()
	if err != nil {
		return coresnap.Listing{}, err
	}
	var l coresnap.Listing
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return coresnap.Listing{}, err
		}
		snap, err := s.read(k)
		if err != nil {
			var ce *coresnap.CorruptError
			if errors.As(err, &ce) {
				l.Skipped = append(l.Skipped, ce)
				continue
			}
			return coresnap.Listing{}, err
		}
		l.Snapshots = append(l.Snapshots, snap)
	}
	coresnap.SortByCycle(l.Snapshots)
	return l, nil
}

// Latest reads the newest file that decodes. Corrupt files are passed over,
// matching List().Newest().
func (s *FileStore) Latest(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := s.keys()
	if err != nil {
		return nil, err
	}
	return newestDecodable(keys, s.read)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

// byRecency orders keys by descending cycle number; ties go to the
// lexically greater key, which is the later timestamp.
func byRecency(keys []string) []string {
	type entry struct {
		key   string
		cycle int
	}
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		if c, ok := coresnap.ParseCycle(k); ok {
			entries = append(entries, entry{key: k, cycle: c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].cycle != entries[j].cycle {
			return entries[i].cycle > entries[j].cycle
		}
		return entries[i].key > entries[j].key
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.key
	}
	return out
}

// newestDecodable returns the most recent snapshot read cleanly, skipping
// keys whose documents are corrupt. It returns nil when nothing decodes.
func newestDecodable(keys []string, read func(key string) (model.Snapshot, error)) (*model.Snapshot, error) {
	for _, k := range byRecency(keys) {
		snap, err := read(k)
		if err != nil {
			var ce *coresnap.CorruptError
			if errors.As(err, &ce) {
				continue
			}
			return nil, err
		}
		return &snap, nil
	}
	return nil, nil
}
