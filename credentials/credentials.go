package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"imageconverter/logger"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned when no entry exists under a key.
var ErrNotFound = errors.New("credentials not found")

// Key prefixes for the two kinds of entries kept here.
const (
	IdentityPrefix = "identity/"
	SinkPrefix     = "sink/"
)

// Store is a Pebble DB holding JSON-encoded string maps: the signed-in
// account of the local identity provider and download sink access info.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the Pebble DB for credentials at dbPath
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create credentials directory: %w", err)
	}
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		logger.Errorf("Failed to open Pebble DB: %v", err)
		return nil, fmt.Errorf("open credentials store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the DB
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Get returns the map stored under key, or ErrNotFound
func (s *Store) Get(key string) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("credentials store not initialized")
	}
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer closer.Close()

	creds := make(map[string]string)
	if err := json.Unmarshal(value, &creds); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return creds, nil
}

// Put stores the credentials map under the given key
func (s *Store) Put(key string, creds map[string]string) error {
	if s.db == nil {
		return fmt.Errorf("credentials store not initialized")
	}
	encoded, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.db.Set([]byte(key), encoded, pebble.Sync)
}

// Delete deletes the credentials for the given key. Deleting a missing key
// is not an error.
func (s *Store) Delete(key string) error {
	if s.db == nil {
		return fmt.Errorf("credentials store not initialized")
	}
	return s.db.Delete([]byte(key), pebble.Sync)
}

// Keys lists every key starting with prefix, in order
func (s *Store) Keys(prefix string) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("credentials store not initialized")
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: prefixUpperBound([]byte(prefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iteration error: %w", err)
	}
	return keys, nil
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix, or nil when there is none.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
