package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrKeyNotFound is returned by Get when no value is stored under the key
var ErrKeyNotFound = errors.New("localstore: key not found")

// Well-known keys used by the client core
const (
	KeyOffers   = "offers"
	KeyEndpoint = "endpoint"
	KeyToken    = "token"
	KeyIdentity = "identity"
)

// Store is a file-backed JSON key-value store. Each key maps to one JSON
// file under the base directory; writes go through a temp file and an
// atomic rename so a crash never leaves a half-written value.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore opens a store rooted at dir, creating the directory if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get reads the value stored under key into target
func (s *Store) Get(key string, target interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("failed to read key %q: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode key %q: %w", key, err)
	}
	return nil
}

// Put stores value under key, replacing any previous value atomically
func (s *Store) Put(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode key %q: %w", key, err)
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace key %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key; deleting a missing key is not
// an error
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Has reports whether a value is stored under key
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path(key))
	return err == nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
