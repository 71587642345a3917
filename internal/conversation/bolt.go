package conversation

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// stateBucket holds every persisted slot. Different logical datasets
// (conversation, user context) are separate keys within the one bucket.
var stateBucket = []byte("state")

// BoltBackend persists slots in a single bbolt database file.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (creating as needed) the database at path.
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &BoltBackend{db: db}, nil
}

// Get returns the value stored under key, or (nil, nil) when absent.
func (b *BoltBackend) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(stateBucket)
		if bkt == nil {
			return nil
		}
		if v := bkt.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put writes value under key.
func (b *BoltBackend) Put(key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(stateBucket)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(key), value)
	})
}

// Delete removes key. Deleting an absent key is not an error.
func (b *BoltBackend) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(stateBucket)
		if bkt == nil {
			return nil
		}
		return bkt.Delete([]byte(key))
	})
}

// Close closes the underlying database.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
