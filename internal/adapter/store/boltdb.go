package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"kbrag/internal/domain"
)

// SchemaVersion is bumped whenever the stored entry layout changes.
const SchemaVersion = 1

var (
	bucketEmbeddings = []byte("embeddings")
	bucketMeta       = []byte("meta")
	keySchemaVersion = []byte("schema_version")
)

// BoltStore persists the cache in a bbolt database, one key per document
// file path. Save replaces every entry in a single transaction.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketEmbeddings, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, path: path}, nil
}

func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) Load() (domain.Cache, error) {
	cache := domain.Cache{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketMeta).Get(keySchemaVersion); data != nil {
			var version int
			if err := json.Unmarshal(data, &version); err != nil {
				return &domain.CacheCorruptError{Path: s.path, Cause: err}
			}
			if version != SchemaVersion {
				return &domain.CacheCorruptError{
					Path:  s.path,
					Cause: fmt.Errorf("schema version %d, expected %d", version, SchemaVersion),
				}
			}
		}

		return tx.Bucket(bucketEmbeddings).ForEach(func(k, v []byte) error {
			var entry domain.CacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return &domain.CacheCorruptError{
					Path:  s.path,
					Cause: fmt.Errorf("entry %s: %w", k, err),
				}
			}
			cache[string(k)] = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return cache, nil
}

func (s *BoltStore) Save(cache domain.Cache) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEmbeddings); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(bucketEmbeddings)
		if err != nil {
			return err
		}

		for path, entry := range cache {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to encode entry %s: %w", path, err)
			}
			if err := b.Put([]byte(path), data); err != nil {
				return err
			}
		}

		version, _ := json.Marshal(SchemaVersion)
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, version)
	})
}

// Clear drops every cached entry but keeps the database file.
func (s *BoltStore) Clear() error {
	return s.Save(domain.Cache{})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
