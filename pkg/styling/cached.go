package styling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/stylesync/pkg/cache"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/observability"
	"github.com/matzehuels/stylesync/pkg/style"
)

// DefaultCacheTTL bounds how long a computed style is reused.
const DefaultCacheTTL = time.Hour

// CachedStyler memoizes an inner Styler's results in a cache.Cache.
// Cache failures fall through to the inner styler.
type CachedStyler struct {
	Inner Styler
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration
}

// NewCachedStyler wraps inner. Nil arguments fall back to the defaults:
// the built-in styler, a null cache, and the default keyer.
func NewCachedStyler(inner Styler, c cache.Cache, keyer cache.Keyer) *CachedStyler {
	if inner == nil {
		inner = NewDefault()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedStyler{Inner: inner, Cache: c, Keyer: keyer, TTL: DefaultCacheTTL}
}

// ComputeLayerStyle returns a cached update when available.
func (s *CachedStyler) ComputeLayerStyle(drawableID string, spec LayerStyle, frame layers.Frame, vector bool, visibility string) (*style.Update, bool) {
	ctx := context.Background()
	key := s.Keyer.StyleKey(drawableID, cache.StyleKeyOpts{
		Spec:       spec,
		FrameID:    frame.ID,
		Vector:     vector,
		Visibility: visibility,
		TileURL:    frame.TileURL,
	})

	if data, hit, err := s.Cache.Get(ctx, key); err == nil && hit {
		var u style.Update
		if err := json.Unmarshal(data, &u); err == nil {
			observability.Cache().OnCacheHit(ctx, "style")
			return &u, true
		}
	}
	observability.Cache().OnCacheMiss(ctx, "style")

	u, ok := s.Inner.ComputeLayerStyle(drawableID, spec, frame, vector, visibility)
	if !ok {
		return nil, false
	}
	if data, err := json.Marshal(u); err == nil {
		if err := s.Cache.Set(ctx, key, data, s.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "style", len(data))
		}
	}
	return u, true
}

// Close closes the underlying cache.
func (s *CachedStyler) Close() error {
	return s.Cache.Close()
}

var _ Styler = (*CachedStyler)(nil)
