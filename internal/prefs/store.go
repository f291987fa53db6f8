// Package prefs implements the key/value preference store consumed by the
// playback and reminder flows. Values set with persist=true survive restarts
// (badger-backed); volatile values live only in memory, matching the
// middleware contract where the UI decides per key whether a preference is
// durable.
package prefs

import (
	"errors"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Well-known preference keys.
const (
	KeySendDescribe    = "PREF_SEND_DESCRIBE"
	KeyCurrentChannel  = "PREF_CURRENT_CHANNEL"
	KeyAutoTuneChannel = "PREF_AUTOTUNE_CHANNEL"
)

// Store is the preference store. Persisted keys are written through to
// badger; volatile keys shadow persisted ones while set.
type Store struct {
	mu       sync.RWMutex
	volatile map[string]string
	db       *badger.DB
}

// Open opens (or creates) the persistent preference database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{
		volatile: make(map[string]string),
		db:       db,
	}, nil
}

// NewVolatile returns a store with no backing database. Persisted writes
// fall back to memory; used in tests and on boxes without writable flash.
func NewVolatile() *Store {
	return &Store{volatile: make(map[string]string)}
}

// Close closes the backing database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Set stores a preference. With persist=true the value is written through
// to the backing database when one is open.
func (s *Store) Set(key, value string, persist bool) error {
	s.mu.Lock()
	s.volatile[key] = value
	s.mu.Unlock()

	if !persist || s.db == nil {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// Get returns a preference value. Volatile values win; otherwise the
// persisted value is read, cached, and returned.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	v, ok := s.volatile[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}

	if s.db == nil {
		return "", false
	}

	var stored string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stored = string(val)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return "", false
		}
		return "", false
	}

	s.mu.Lock()
	s.volatile[key] = stored
	s.mu.Unlock()
	return stored, true
}

// SetBool stores a boolean preference.
func (s *Store) SetBool(key string, value, persist bool) error {
	return s.Set(key, strconv.FormatBool(value), persist)
}

// GetBool returns a boolean preference, with def when absent or malformed.
func (s *Store) GetBool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

// Delete removes a preference from both layers.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	delete(s.volatile, key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
