package port

import "kbrag/internal/domain"

// CacheStore persists embedded chunks per document file path.
type CacheStore interface {
	// Load returns the whole mapping. A missing cache is an empty mapping.
	Load() (domain.Cache, error)

	// Save replaces the whole persisted mapping.
	Save(cache domain.Cache) error
}
