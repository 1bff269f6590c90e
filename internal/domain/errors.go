package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned when retrieval is attempted before the vector
	// store finished initializing.
	ErrNotReady = errors.New("vector store is not initialized")

	// ErrInvalidWindow is returned when the chunk step would not advance.
	ErrInvalidWindow = errors.New("chunk size must be greater than overlap")
)

// ConfigurationError reports missing or invalid provider settings.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// EmbeddingError reports a failed embedding provider call.
type EmbeddingError struct {
	Cause error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Cause)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}

// DimensionMismatchError reports a comparison between vectors of different
// lengths, which usually means the cache was built with another model.
type DimensionMismatchError struct {
	Left  int
	Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: %d != %d", e.Left, e.Right)
}

// CacheCorruptError reports a cache that exists but cannot be read back.
type CacheCorruptError struct {
	Path  string
	Cause error
}

func (e *CacheCorruptError) Error() string {
	return fmt.Sprintf("embedding cache %s is corrupt: %v", e.Path, e.Cause)
}

func (e *CacheCorruptError) Unwrap() error {
	return e.Cause
}
