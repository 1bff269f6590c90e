package store

import "kbrag/internal/domain"

// NopStore never remembers anything; every initialization embeds from
// scratch.
type NopStore struct{}

func (NopStore) Load() (domain.Cache, error) { return domain.Cache{}, nil }

func (NopStore) Save(domain.Cache) error { return nil }

func (NopStore) Path() string { return "" }

func (NopStore) Clear() error { return nil }
