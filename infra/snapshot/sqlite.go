package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/feederwatch/core/model"
	coresnap "github.com/kilianp07/feederwatch/core/snapshot"
)

// SQLiteStore persists snapshots to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dsn and ensures schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite store: dsn is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS cycle_snapshots (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        cycle_number INTEGER NOT NULL,
        key TEXT NOT NULL UNIQUE,
        ts INTEGER NOT NULL,
        document TEXT NOT NULL
    )`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_snapshots_cycle ON cycle_snapshots (cycle_number)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts snap. A duplicate key yields ErrExists.
func (s *SQLiteStore) Save(ctx context.Context, snap model.Snapshot) (string, error) {
	b, err := coresnap.Encode(snap)
	if err != nil {
		return "", err
	}
	key := coresnap.Key(snap.CycleNumber, snap.Timestamp)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cycle_snapshots (cycle_number, key, ts, document) VALUES (?, ?, ?, ?)`,
		snap.CycleNumber, key, snap.Timestamp.Unix(), string(b))
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", key, coresnap.ErrExists)
		}
		return "", err
	}
	return key, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// List returns all snapshots ordered by cycle number.
func (s *SQLiteStore) List(ctx context.Context) (coresnap.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, document FROM cycle_snapshots ORDER BY cycle_number, ts, id`)
	if err != nil {
		return coresnap.Listing{}, err
	}
	defer func() { _ = rows.Close() }()
	var l coresnap.Listing
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return coresnap.Listing{}, err
		}
		snap, err := coresnap.Decode(key, []byte(doc))
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
	if err := rows.Err(); err != nil {
		return coresnap.Listing{}, err
	}
	return l, nil
}

// Latest returns the newest snapshot that decodes, passing over corrupt
// documents as List does.
func (s *SQLiteStore) Latest(ctx context.Context) (*model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, document FROM cycle_snapshots ORDER BY cycle_number DESC, ts DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, err
		}
		snap, err := coresnap.Decode(key, []byte(doc))
		if err != nil {
			var ce *coresnap.CorruptError
			if errors.As(err, &ce) {
				continue
			}
			return nil, err
		}
		return &snap, rows.Err()
	}
	return nil, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
