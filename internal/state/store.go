// Package state is the workspace's durable local storage: a small
// bbolt-backed key/value store of JSON blobs, read at startup and
// rewritten after every mutating workspace action.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Blob keys. KeyLayout is the legacy single-layout format kept for
// migration; KeyTabLayouts is the current per-tab format.
const (
	KeyLayout     = "workspace.layout"
	KeyTabLayouts = "workspace.tabLayouts"
	KeyDrafts     = "workspace.drafts"
)

var bucketBlobs = []byte("blobs")

// Store is a durable string-keyed blob store.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("state: mkdir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("state: open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBlobs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the blob stored under key, or (nil, false) when absent.
func (s *Store) Get(key string) ([]byte, bool) {
	var out []byte
	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get([]byte(key))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, out != nil
}

// Put stores a blob under key.
func (s *Store) Put(key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("state: put %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key, if any.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("state: delete %s: %w", key, err)
	}
	return nil
}
