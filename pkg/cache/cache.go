// Package cache provides pluggable caching for rendered documents.
//
// A generation run is deterministic, so a document can be cached under a
// key derived from its configuration alone. Three backends exist:
//
//   - FileCache: XDG cache directory, for CLI usage
//   - RedisCache: shared backend for multi-instance preview servers
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLDocument is how long rendered documents stay cached. Documents are
// pure functions of their configuration, so the TTL exists only to bound
// disk usage, not for correctness.
const TTLDocument = 30 * 24 * time.Hour

// Cache stores opaque byte blobs under string keys.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the document pipeline.
type Keyer interface {
	// DocumentKey generates a key for a rendered document from the
	// canonical configuration string.
	DocumentKey(canonical string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DocumentKey generates a key for a rendered document.
func (k *DefaultKeyer) DocumentKey(canonical string) string {
	return hashKey("doc", canonical)
}
