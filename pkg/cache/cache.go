// Package cache provides byte-level caches for computed layer styles.
//
// The styling collaborator can be expensive (colormap evaluation, tile URL
// construction), and a comparison session recomputes the same drawable
// styles on every structural sync. A [Cache] memoizes those results:
//
//   - [NewNullCache]: caching disabled (tests, --no-cache)
//   - [NewMemoryCache]: process-local cache for embedders and tests
//   - [NewFileCache]: on-disk cache for the CLI (~/.cache/stylesync/)
//
// Keys come from a [Keyer], so that callers never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
type Cache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// StyleKey returns the key for a computed drawable style.
	StyleKey(drawableID string, opts StyleKeyOpts) string
}

// StyleKeyOpts holds the inputs of a style computation that affect its result.
type StyleKeyOpts struct {
	Spec       any    `json:"spec"`
	FrameID    int    `json:"frame_id"`
	Vector     bool   `json:"vector"`
	Visibility string `json:"visibility"`
	TileURL    string `json:"tile_url,omitempty"`
}

// DefaultKeyer hashes key inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// StyleKey returns "style:<drawableID>:<hash(opts)>".
func (DefaultKeyer) StyleKey(drawableID string, opts StyleKeyOpts) string {
	return hashKey("style:"+drawableID, opts)
}

var _ Keyer = DefaultKeyer{}
