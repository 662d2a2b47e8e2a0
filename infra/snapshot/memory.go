package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/feederwatch/core/model"
	coresnap "github.com/kilianp07/feederwatch/core/snapshot"
)

// MemoryStore keeps encoded snapshots in memory. It is meant for tests and
// for `feederwatch cycle --dry-run`.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Save stores an encoded copy of snap.
func (m *MemoryStore) Save(_ context.Context, snap model.Snapshot) (string, error) {
	b, err := coresnap.Encode(snap)
	if err != nil {
		return "", err
	}
	key := coresnap.Key(snap.CycleNumber, snap.Timestamp)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[key]; ok {
		return "", fmt.Errorf("%s: %w", key, coresnap.ErrExists)
	}
	m.docs[key] = b
	return key, nil
}

// Put stores raw bytes under key, bypassing encoding.
func (m *MemoryStore) Put(key string, b []byte) {
	m.mu.Lock()
	m.docs[key] = b
	m.mu.Unlock()
}

// List decodes every stored document.
func (m *MemoryStore) List(context.Context) (coresnap.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var l coresnap.Listing
	for k, b := range m.docs {
		snap, err := coresnap.Decode(k, b)
		if err != nil {
			l.Skipped = append(l.Skipped, err.(*coresnap.CorruptError))
			continue
		}
		l.Snapshots = append(l.Snapshots, snap)
	}
	coresnap.SortByCycle(l.Snapshots)
	return l, nil
}

// Latest decodes the newest document that is not corrupt.
func (m *MemoryStore) Latest(context.Context) (*model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		keys = append(keys, k)
	}
	return newestDecodable(keys, func(key string) (model.Snapshot, error) {
		return coresnap.Decode(key, m.docs[key])
	})
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
