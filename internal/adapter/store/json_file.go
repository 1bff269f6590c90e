package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"kbrag/internal/domain"
)

// JSONFileStore keeps the whole cache in a single JSON document keyed by
// document file path.
type JSONFileStore struct {
	path string
}

func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (s *JSONFileStore) Path() string {
	return s.path
}

// Load reads the cache file. A missing file yields an empty cache; a file that
// exists but does not parse yields a *domain.CacheCorruptError.
func (s *JSONFileStore) Load() (domain.Cache, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Cache{}, nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	cache := domain.Cache{}
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, &domain.CacheCorruptError{Path: s.path, Cause: err}
	}
	return cache, nil
}

// Save writes the cache to a temporary file in the same directory and renames
// it over the previous one, so readers never observe a half-written cache.
func (s *JSONFileStore) Save(cache domain.Cache) error {
	if cache == nil {
		cache = domain.Cache{}
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	return nil
}

// Clear removes the cache file. Clearing a missing cache is not an error.
func (s *JSONFileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache: %w", err)
	}
	return nil
}
