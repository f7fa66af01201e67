package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// BadgerKVStore is the on-disk ports.KeyValueStore used for per-user view
// preferences such as column visibility
type BadgerKVStore struct {
	db *badger.DB
}

// OpenBadgerKVStore opens (creating when needed) a badger database in dir
func OpenBadgerKVStore(dir string) (*BadgerKVStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create kv dir: %w", err)
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerKVStore{db: db}, nil
}

// Get returns the value stored under key
func (s *BadgerKVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var result []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// Set stores value under key
func (s *BadgerKVStore) Set(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes key
func (s *BadgerKVStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close flushes and closes the database
func (s *BadgerKVStore) Close() error {
	return s.db.Close()
}
