// Package snapshot provides the snapshot store backends: a directory of JSON
// files, a SQLite table, an S3 bucket and an in-memory map.
package snapshot

import (
	"context"
	"time"

	"github.com/kilianp07/feederwatch/core/factory"
	coresnap "github.com/kilianp07/feederwatch/core/snapshot"
)

// DefaultDir is used by the file backend when no dir is configured.
const DefaultDir = "cycle_data"

// init registers the built-in backends.
func init() {
	_ = coresnap.RegisterStore("file", func(conf map[string]any) (coresnap.Store, error) {
		var c struct {
			Dir string `json:"dir"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Dir == "" {
			c.Dir = DefaultDir
		}
		return NewFileStore(c.Dir)
	})

	_ = coresnap.RegisterStore("sqlite", func(conf map[string]any) (coresnap.Store, error) {
		var c struct {
			DSN string `json:"dsn"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.DSN)
	})

	_ = coresnap.RegisterStore("s3", func(conf map[string]any) (coresnap.Store, error) {
		var c S3Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return NewS3Store(ctx, c)
	})

	_ = coresnap.RegisterStore("memory", func(map[string]any) (coresnap.Store, error) {
		return NewMemoryStore(), nil
	})
}
