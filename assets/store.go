// ABOUTME: Badger-backed store for captured image assets
// ABOUTME: A flat namespace of binary payloads keyed by uuid, outside SQLite
package assets

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Store holds captured photo payloads. Image binaries stay out of the
// SQLite database; responses reference them by uuid.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the asset store at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a payload under a fresh uuid and returns it.
func (s *Store) Put(payload []byte) (uuid.UUID, error) {
	id := uuid.New()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id.String()), payload)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to store asset: %w", err)
	}
	return id, nil
}

// Get returns the payload stored under id.
func (s *Store) Get(id string) ([]byte, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	return payload, nil
}

// Delete removes the payload stored under id. Deleting an absent id is a
// no-op.
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// DeleteAll removes every listed asset. Used when the owning survey
// response is deleted.
func (s *Store) DeleteAll(ids []string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			if err := txn.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete assets: %w", err)
	}
	return nil
}

// Count returns the number of stored assets.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return count, nil
}
